package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/ratelimit"
)

func sampleNews(t *testing.T, title string) *news.News {
	t.Helper()
	n, err := news.New(title, "Adam Sandler confirmed a new Netflix comedy.", "https://example.com/"+title, "BBC News", time.Now())
	if err != nil {
		t.Fatalf("news.New: %v", err)
	}
	return n
}

func TestAnalyzeNews_Success(t *testing.T) {
	c := newClient(Options{})
	var gotPrompt string
	c.generate = func(_ context.Context, prompt string) (string, int, error) {
		gotPrompt = prompt
		return "```html\n<h3>Resumo</h3><p>Ok</p>\n```", 321, nil
	}

	n := sampleNews(t, "sandler-netflix")
	a := c.AnalyzeNews(context.Background(), n)
	if a.Status != news.AnalysisSuccess || a.Model != DefaultModel || a.Tokens != 321 {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if a.Text != "<h3>Resumo</h3><p>Ok</p>" {
		t.Fatalf("code fence not removed: %q", a.Text)
	}
	if !strings.Contains(gotPrompt, "Título: sandler-netflix") || !strings.Contains(gotPrompt, "Fonte: BBC News") {
		t.Fatalf("prompt missing item fields: %s", gotPrompt)
	}
}

func TestAnalyzeNews_Failure(t *testing.T) {
	c := newClient(Options{})
	c.generate = func(context.Context, string) (string, int, error) {
		return "", 0, errors.New("quota exceeded")
	}

	a := c.AnalyzeNews(context.Background(), sampleNews(t, "x"))
	if a.Status != news.AnalysisError || a.Text != FailureText || a.Error != "quota exceeded" {
		t.Fatalf("unexpected failed analysis %+v", a)
	}
	if c.metrics.AnalysesFailed != 1 {
		t.Fatalf("failure not counted")
	}
}

func TestAnalyzeAll_RespectsLimiter(t *testing.T) {
	c := newClient(Options{Limiter: ratelimit.New("gemini", 2, time.Hour, nil)})
	calls := 0
	c.generate = func(context.Context, string) (string, int, error) {
		calls++
		return "<p>ok</p>", 10, nil
	}

	items := []*news.News{sampleNews(t, "a"), sampleNews(t, "b"), sampleNews(t, "c")}
	if tried := c.AnalyzeAll(context.Background(), items); tried != 2 || calls != 2 {
		t.Fatalf("expected 2 analyses, tried=%d calls=%d", tried, calls)
	}
	if items[2].Analysis.Status != news.AnalysisNone {
		t.Fatalf("item beyond budget should stay unanalyzed")
	}
}

func TestPrepareContent_Truncates(t *testing.T) {
	long := strings.Repeat("Uma frase qualquer sobre cinema. ", 400)
	out := prepareContent(long)
	if !strings.HasSuffix(out, "[TRUNCATED]") {
		t.Fatalf("long content should be marked truncated")
	}
	if len([]rune(out)) > maxContentRunes+len("\n[TRUNCATED]") {
		t.Fatalf("content not trimmed: %d runes", len([]rune(out)))
	}
	if prepareContent("  curto   texto ") != "curto texto" {
		t.Fatalf("short content should only be normalized")
	}
}

func TestAnalyzeAll_ResetBudgetPerRun(t *testing.T) {
	c := newClient(Options{Limiter: ratelimit.New("gemini", 5, 24*time.Hour, nil)})
	c.generate = func(context.Context, string) (string, int, error) { return "<p>ok</p>", 1, nil }

	batch := func() []*news.News {
		return []*news.News{sampleNews(t, "a"), sampleNews(t, "b"), sampleNews(t, "c")}
	}

	if got := c.AnalyzeAll(context.Background(), batch()); got != 3 {
		t.Fatalf("first run analyzed %d", got)
	}
	c.ResetBudget()
	if got := c.AnalyzeAll(context.Background(), batch()); got != 3 {
		t.Fatalf("second run after reset analyzed %d, want 3", got)
	}
}
