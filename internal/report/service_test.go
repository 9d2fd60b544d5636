package report

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/aggregator"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

type fixedExtractor struct {
	source *news.Source
	items  []*news.News
}

func (f *fixedExtractor) Source() *news.Source { return f.source }

func (f *fixedExtractor) Extract(context.Context, *http.Client, string) news.Result {
	return news.Collected(f.source.Name, f.items)
}

func newFixed(t *testing.T, name string, items ...*news.News) *fixedExtractor {
	t.Helper()
	src, err := news.NewSource(name, "https://"+name, news.MechanismScraping, "/search")
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	return &fixedExtractor{source: src, items: items}
}

func fixedNow() time.Time { return generatedAt }

func TestEndToEnd_SameURLFromTwoSources(t *testing.T) {
	a, _ := news.New("Adam Sandler in new film", "Story body one", "https://example.com/same", "one", generatedAt)
	b, _ := news.New("Adam Sandler in new film", "Story body two", "https://example.com/same", "two", generatedAt)

	agg := aggregator.New([]news.Extractor{newFixed(t, "one", a), newFixed(t, "two", b)}, aggregator.Options{Query: "Adam Sandler"})
	defer agg.Close()

	items := agg.FetchAll(context.Background(), "Adam Sandler")
	if len(items) != 1 {
		t.Fatalf("expected a single item, got %d", len(items))
	}

	svc := NewService(agg, ServiceOptions{Now: fixedNow})
	r, err := svc.Build(items, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if r.Metadata.RelevantNewsCount != 1 {
		t.Fatalf("expected relevant_news_count 1, got %d", r.Metadata.RelevantNewsCount)
	}
	if n := len(regexp.MustCompile(`(?m)^\d+\. `).FindAllString(r.Summary, -1)); n != 1 {
		t.Fatalf("expected one numbered entry, got %d", n)
	}
	if r.Title != "Relatório de Notícias sobre Adam Sandler - 15/07/2024" {
		t.Fatalf("unexpected default title %q", r.Title)
	}
	if r.Metadata.TotalSourcesConsulted != 2 {
		t.Fatalf("expected 2 sources consulted, got %d", r.Metadata.TotalSourcesConsulted)
	}
}

func TestGenerate_FiltersAndCounts(t *testing.T) {
	rel, _ := news.New("Sandler comedy tour", "Dates announced", "https://example.com/tour", "one", generatedAt)
	off, _ := news.New("Weather", "Sunny weekend", "https://example.com/weather", "one", generatedAt)

	agg := aggregator.New([]news.Extractor{newFixed(t, "one", rel, off)}, aggregator.Options{})
	svc := NewService(agg, ServiceOptions{Now: fixedNow})

	r, err := svc.Daily(context.Background())
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if r.Metadata.TotalNewsFound != 2 || r.Metadata.RelevantNewsCount != 1 {
		t.Fatalf("unexpected counts %+v", r.Metadata)
	}
	if r.Title != "Relatório Diário - Adam Sandler - 15/07/2024" {
		t.Fatalf("unexpected daily title %q", r.Title)
	}
	if !strings.HasPrefix(svc.WeeklyTitle(), "Relatório Semanal - Adam Sandler - Semana de ") {
		t.Fatalf("unexpected weekly title %q", svc.WeeklyTitle())
	}
}

func TestGenerate_NoResultsStillValid(t *testing.T) {
	agg := aggregator.New([]news.Extractor{newFixed(t, "one")}, aggregator.Options{})
	svc := NewService(agg, ServiceOptions{Now: fixedNow})

	r, err := svc.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.Summary != "Nenhuma notícia encontrada sobre Adam Sandler." {
		t.Fatalf("unexpected summary %q", r.Summary)
	}
	out, err := r.HTML()
	if err != nil || !strings.Contains(out, "</html>") {
		t.Fatalf("empty report should still render: %v", err)
	}
}

func TestTestReport(t *testing.T) {
	svc := NewService(nil, ServiceOptions{Now: fixedNow})
	r, err := svc.TestReport()
	if err != nil {
		t.Fatalf("TestReport: %v", err)
	}
	if r.Count() != 1 || !r.Metadata.IsTest {
		t.Fatalf("unexpected test report %+v", r.Metadata)
	}
	if !strings.HasPrefix(r.Title, "Relatório de Teste - 15/07/2024") {
		t.Fatalf("unexpected title %q", r.Title)
	}
}

func TestStatistics(t *testing.T) {
	a, _ := news.New("Sandler A", "Body", "https://example.com/a", "one", generatedAt)
	b, _ := news.New("Sandler B", "Body", "https://example.com/b", "two", generatedAt)
	agg := aggregator.New([]news.Extractor{newFixed(t, "one", a), newFixed(t, "two", b)}, aggregator.Options{Query: "Adam Sandler"})
	svc := NewService(agg, ServiceOptions{Now: fixedNow})

	st := svc.Statistics(context.Background())
	if st.TotalRecentNews != 2 || len(st.AvailableSources) != 2 || len(st.SourcesBreakdown) != 2 {
		t.Fatalf("unexpected statistics %+v", st)
	}
}
