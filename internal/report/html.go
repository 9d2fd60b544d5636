package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var (
	reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))
	// analysisPolicy allows the formatting tags the analysis service emits
	// and drops scripts, styles and event handlers.
	analysisPolicy = bluemonday.UGCPolicy()
)

type pageView struct {
	Title       string
	GeneratedAt string
	Total       int
	Sources     []SourceCount
	Items       []itemView
}

type itemView struct {
	Title    string
	Source   string
	Date     string
	URL      string
	Summary  string
	Analysis analysisView
}

// analysisView flattens news.Analysis for the template. Kind is one of
// "none", "success" or "failed".
type analysisView struct {
	Kind  string
	HTML  template.HTML
	Model string
}

func viewAnalysis(a news.Analysis) analysisView {
	switch a.Status {
	case news.AnalysisSuccess:
		return analysisView{
			Kind:  "success",
			HTML:  template.HTML(analysisPolicy.Sanitize(a.Text)),
			Model: a.Model,
		}
	case news.AnalysisError:
		return analysisView{Kind: "failed"}
	default:
		return analysisView{Kind: "none"}
	}
}

// HTML renders a self-contained page. Items appear in stored order.
func (r *Report) HTML() (string, error) {
	view := pageView{
		Title:       r.Title,
		GeneratedAt: r.GeneratedAt.Format(dateTimeLayout),
		Total:       len(r.Items),
		Sources:     r.SourceBreakdown(),
		Items:       make([]itemView, 0, len(r.Items)),
	}
	for _, n := range r.Items {
		// a body that only repeats the title gets no summary block
		summary := n.GenerateSummary(r.SummaryLength)
		if summary == n.Title {
			summary = ""
		}
		view.Items = append(view.Items, itemView{
			Title:    n.Title,
			Source:   n.Source,
			Date:     n.Published.Format(dateLayout),
			URL:      n.URL,
			Summary:  summary,
			Analysis: viewAnalysis(n.Analysis),
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}
