// Package report folds a list of news into a titled report with a plain
// text summary and an HTML rendering.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

const (
	DefaultSubject = "Adam Sandler"
	// summaryTopItems is how many items the text summary lists.
	summaryTopItems = 5

	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 às 15:04"
)

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Metadata is computed once, when the report is finalized.
type Metadata struct {
	TotalSourcesConsulted int           `json:"total_sources_consulted"`
	TotalNewsFound        int           `json:"total_news_found"`
	RelevantNewsCount     int           `json:"relevant_news_count"`
	GenerationTime        time.Time     `json:"generation_time"`
	SourcesSummary        []SourceCount `json:"sources_summary"`
	IsTest                bool          `json:"is_test,omitempty"`
}

type Report struct {
	Title       string
	Subject     string
	GeneratedAt time.Time
	Items       []*news.News
	Summary     string
	Metadata    Metadata
	// SummaryLength bounds each item's summary in the HTML rendering.
	SummaryLength int

	keys map[string]struct{}
}

// New creates an empty report. The title must not be blank.
func New(title string, generatedAt time.Time) (*Report, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &news.ValidationError{Entity: "report", Field: "title"}
	}
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	return &Report{
		Title:         strings.TrimSpace(title),
		Subject:       DefaultSubject,
		GeneratedAt:   generatedAt,
		SummaryLength: news.DefaultSummaryLength,
		keys:          make(map[string]struct{}),
	}, nil
}

// Add appends n unless an item with the same URL, title and source is
// already present.
func (r *Report) Add(n *news.News) bool {
	if n == nil {
		return false
	}
	if r.keys == nil {
		r.keys = make(map[string]struct{})
	}
	key := n.Key()
	if _, dup := r.keys[key]; dup {
		return false
	}
	r.keys[key] = struct{}{}
	r.Items = append(r.Items, n)
	return true
}

// AddMany adds items in order and returns how many were new.
func (r *Report) AddMany(items []*news.News) int {
	added := 0
	for _, n := range items {
		if r.Add(n) {
			added++
		}
	}
	return added
}

func (r *Report) Count() int { return len(r.Items) }

// SourceBreakdown counts items per source, ordered by first appearance.
func (r *Report) SourceBreakdown() []SourceCount {
	var out []SourceCount
	index := make(map[string]int)
	for _, n := range r.Items {
		i, ok := index[n.Source]
		if !ok {
			index[n.Source] = len(out)
			out = append(out, SourceCount{Source: n.Source, Count: 1})
			continue
		}
		out[i].Count++
	}
	return out
}

// NoResultsText is the whole summary of an empty report.
func (r *Report) NoResultsText() string {
	return fmt.Sprintf("Nenhuma notícia encontrada sobre %s.", r.subject())
}

// GenerateSummary renders the plain-text summary from the current items.
func (r *Report) GenerateSummary() string {
	if len(r.Items) == 0 {
		return r.NoResultsText()
	}

	total := len(r.Items)
	parts := make([]string, 0, total)
	for _, sc := range r.SourceBreakdown() {
		parts = append(parts, fmt.Sprintf("%s: %d", sc.Source, sc.Count))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.Title)
	fmt.Fprintf(&b, "Gerado em: %s\n\n", r.GeneratedAt.Format(dateTimeLayout))
	fmt.Fprintf(&b, "Total de notícias encontradas: %d\n", total)
	fmt.Fprintf(&b, "Fontes consultadas: %s\n\n", strings.Join(parts, ", "))
	b.WriteString("Principais notícias:\n")

	for i, n := range r.Items {
		if i >= summaryTopItems {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, n.Title)
		fmt.Fprintf(&b, "\n   Fonte: %s", n.Source)
		fmt.Fprintf(&b, "\n   Data: %s", n.Published.Format(dateLayout))
		fmt.Fprintf(&b, "\n   URL: %s\n", n.URL)
	}

	if total > summaryTopItems {
		fmt.Fprintf(&b, "\n... e mais %d notícias.", total-summaryTopItems)
	}
	return b.String()
}

// Finalize stores the summary and metadata. Call it once, after the last Add.
func (r *Report) Finalize(sourcesConsulted, totalFound int) {
	r.Summary = r.GenerateSummary()
	r.Metadata = Metadata{
		TotalSourcesConsulted: sourcesConsulted,
		TotalNewsFound:        totalFound,
		RelevantNewsCount:     len(r.Items),
		GenerationTime:        r.GeneratedAt,
		SourcesSummary:        r.SourceBreakdown(),
		IsTest:                r.Metadata.IsTest,
	}
}

func (r *Report) subject() string {
	if strings.TrimSpace(r.Subject) == "" {
		return DefaultSubject
	}
	return r.Subject
}
