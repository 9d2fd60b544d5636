package news

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNew_RejectsBlankRequiredFields(t *testing.T) {
	cases := []struct {
		name, title, content, url, source, field string
	}{
		{"title", "  ", "body", "https://x", "BBC", "title"},
		{"content", "Title", "\t\n", "https://x", "BBC", "content"},
		{"url", "Title", "body", "", "BBC", "url"},
		{"source", "Title", "body", "https://x", " ", "source"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.title, tc.content, tc.url, tc.source, time.Now())
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestNew_ValidInput(t *testing.T) {
	n, err := New("Adam Sandler returns", "Body text", "https://bbc.com/a", "BBC News", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Published.IsZero() {
		t.Fatalf("zero published time should default to now")
	}
	if n.Analysis.Status != AnalysisNone {
		t.Fatalf("new item should be unanalyzed, got %s", n.Analysis.Status)
	}
}

func TestIsRelevant_IsPure(t *testing.T) {
	n := &News{Title: "Sandler signs new Netflix deal", Content: "Details inside"}
	first := n.IsRelevant(nil)
	for i := 0; i < 5; i++ {
		if n.IsRelevant(nil) != first {
			t.Fatalf("relevance changed between calls")
		}
	}
	if !first {
		t.Fatalf("expected item to be relevant")
	}

	other := &News{Title: "Stock markets fall", Content: "Investors worry about rates"}
	if other.IsRelevant(nil) {
		t.Fatalf("unrelated item marked relevant")
	}
}

func TestContainsAny_ShortWordsNeedBoundary(t *testing.T) {
	if ContainsAny("he said hello", []string{"ai"}) {
		t.Fatalf("short keyword matched inside a word")
	}
	if !ContainsAny("new AI model", []string{"ai"}) {
		t.Fatalf("short keyword not matched as a word")
	}
}

func TestGenerateSummary_ShortBodyVerbatim(t *testing.T) {
	n := &News{Content: "Short body. Still short."}
	if got := n.GenerateSummary(200); got != n.Content {
		t.Fatalf("expected verbatim body, got %q", got)
	}
}

func TestGenerateSummary_EndsAtSentenceBoundary(t *testing.T) {
	body := "Adam Sandler announced a new film. " + strings.Repeat("The production will take place in several cities around the world. ", 5)
	n := &News{Content: body}
	got := n.GenerateSummary(100)
	if utf8.RuneCountInString(got) > 100 {
		t.Fatalf("summary exceeds limit: %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, ".") {
		t.Fatalf("summary should end at a sentence boundary: %q", got)
	}
	if !strings.HasPrefix(got, "Adam Sandler announced a new film.") {
		t.Fatalf("unexpected summary: %q", got)
	}
	if strings.Contains(got, "..") {
		t.Fatalf("period doubled: %q", got)
	}
}

func TestGenerateSummary_NoBoundaryHardCut(t *testing.T) {
	n := &News{Content: strings.Repeat("word ", 100)}
	got := n.GenerateSummary(50)
	if utf8.RuneCountInString(got) > 50 {
		t.Fatalf("summary exceeds limit: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("hard cut should end with ellipsis: %q", got)
	}
}

func TestSearchURL(t *testing.T) {
	s, err := NewSource("BBC News", "https://www.bbc.com", MechanismScraping, "/search")
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if got := s.SearchURL("Adam Sandler"); got != "https://www.bbc.com/search?q=Adam+Sandler" {
		t.Fatalf("unexpected scraping url: %s", got)
	}

	feed, _ := NewSource("Google News", "https://news.google.com", MechanismFeed, "/rss/search?hl=en-US")
	if got := feed.SearchURL("Adam Sandler"); got != "https://news.google.com/rss/search?hl=en-US" {
		t.Fatalf("feed url should ignore term without query_param: %s", got)
	}
	feed.SetConfig(ConfigQueryParam, "q")
	if got := feed.SearchURL("Adam Sandler"); got != "https://news.google.com/rss/search?hl=en-US&q=Adam+Sandler" {
		t.Fatalf("unexpected feed url: %s", got)
	}
}

func TestNewSource_Validation(t *testing.T) {
	if _, err := NewSource("", "https://x", MechanismAPI, "/s"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := NewSource("x", "https://x", MechanismAPI, " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty endpoint, got %v", err)
	}
}

func TestSourceConfigGetters(t *testing.T) {
	s, _ := NewSource("BBC", "https://www.bbc.com", MechanismScraping, "/search")
	if s.MaxResults() != 10 || s.Timeout() != 30*time.Second || s.RetryAttempts() != 1 {
		t.Fatalf("unexpected defaults: %d %v %d", s.MaxResults(), s.Timeout(), s.RetryAttempts())
	}
	s.SetConfig(ConfigMaxResults, "20")
	s.SetConfig(ConfigTimeout, "5")
	s.SetConfig(ConfigRetryAttempts, "3")
	if s.MaxResults() != 20 || s.Timeout() != 5*time.Second || s.RetryAttempts() != 3 {
		t.Fatalf("config not applied: %d %v %d", s.MaxResults(), s.Timeout(), s.RetryAttempts())
	}
}

func TestCollected_EmptyIsNotOK(t *testing.T) {
	if r := Collected("x", nil); r.Status != StatusEmpty {
		t.Fatalf("expected empty status, got %s", r.Status)
	}
	if r := Failure("x", errors.New("boom")); r.Status != StatusFailed || r.Err == nil {
		t.Fatalf("unexpected failure result: %+v", r)
	}
}
