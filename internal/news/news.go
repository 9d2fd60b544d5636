// Package news holds the domain records shared by every stage of the
// pipeline: source descriptors, news items and the extractor contract.
package news

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultSummaryLength is the rune budget used when none is given.
const DefaultSummaryLength = 200

// News is one normalized article found by an extractor.
type News struct {
	Title     string
	Content   string
	URL       string
	Source    string
	Published time.Time
	Author    string
	Summary   string
	Analysis  Analysis
}

// New builds a validated item. A zero published time means "now"; extractors
// that cannot read a date rely on that.
func New(title, content, url, source string, published time.Time) (*News, error) {
	n := &News{
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(content),
		URL:       strings.TrimSpace(url),
		Source:    strings.TrimSpace(source),
		Published: published,
	}
	if n.Published.IsZero() {
		n.Published = time.Now()
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *News) Validate() error {
	switch {
	case strings.TrimSpace(n.Title) == "":
		return &ValidationError{Entity: "news", Field: "title"}
	case strings.TrimSpace(n.Content) == "":
		return &ValidationError{Entity: "news", Field: "content"}
	case strings.TrimSpace(n.URL) == "":
		return &ValidationError{Entity: "news", Field: "url"}
	case strings.TrimSpace(n.Source) == "":
		return &ValidationError{Entity: "news", Field: "source"}
	}
	return nil
}

// Key identifies an item structurally: same URL, title and source.
func (n *News) Key() string {
	return n.URL + "|" + n.Title + "|" + n.Source
}

// GenerateSummary returns the body when it fits in max runes. Otherwise it
// keeps whole ". "-separated sentences while they fit, and only cuts inside
// a sentence when not even the first one does. The result never exceeds max.
func (n *News) GenerateSummary(max int) string {
	if max <= 0 {
		max = DefaultSummaryLength
	}
	body := n.Content
	if utf8.RuneCountInString(body) <= max {
		return body
	}

	var b strings.Builder
	for _, sentence := range strings.Split(body, ". ") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if !strings.HasSuffix(sentence, ".") {
			sentence += "."
		}
		next := sentence
		if b.Len() > 0 {
			next = " " + sentence
		}
		if utf8.RuneCountInString(b.String())+utf8.RuneCountInString(next) > max {
			break
		}
		b.WriteString(next)
	}
	if b.Len() > 0 {
		return b.String()
	}
	return truncateWords(body, max)
}

// truncateWords cuts s to at most max runes including the ellipsis,
// preferring the last space before the limit.
func truncateWords(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
