package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Profile is the markup knowledge for one scraped site. Every selector list
// is ordered from most specific to most generic and the first hit wins.
type Profile struct {
	Name string

	// Cards locate result blocks on the search page.
	Cards []string
	// Titles, Snippets are tried inside each card.
	Titles   []string
	Snippets []string
	// Articles extract the full body from an article page.
	Articles []string

	// LinkKeywords drive the anchor scan used when no card selector matches.
	LinkKeywords []string

	// DateMeta holds free-text dates parsed with DateLayouts.
	DateMeta    string
	DateLayouts []string

	MinTitle     int
	MinSnippet   int
	MinParagraph int
}

var BBC = Profile{
	Name: "bbc",
	Cards: []string{
		`[data-testid="newport-card"]`,
		`div[data-testid="search-results"] article`,
		`.ssrcss-1f3bvyz-Stack`,
		`article`,
		`.media__content`,
	},
	Titles: []string{
		"h3",
		"h2",
		"h1",
		".media__title",
		`[data-testid="card-headline"]`,
	},
	Snippets: []string{
		`[data-component="text-block"]`,
		`[data-testid="card-description"]`,
		".media__summary",
		"p",
		".ssrcss-1q0x1qg-Paragraph",
		`[data-testid="card-text"]`,
	},
	Articles: []string{
		`[data-component="text-block"]`,
		".ssrcss-11r1m41-RichTextComponentWrapper",
		`div[data-component="text-block"] p`,
		".story-body__inner p",
	},
	LinkKeywords: []string{"adam sandler", "sandler", "comedy", "netflix", "movie", "film"},
	DateMeta:     `span[data-testid="card-metadata-lastupdated"]`,
	DateLayouts:  []string{"2 Jan 2006", "2 January 2006"},
	MinTitle:     10,
	MinSnippet:   10,
	MinParagraph: 20,
}

var profiles = map[string]Profile{
	BBC.Name: BBC,
}

// ProfileFor looks a profile up by the name used in source configuration.
func ProfileFor(name string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// selectionMatcher returns the matched selection, or nil.
type selectionMatcher func(*goquery.Selection) *goquery.Selection

// textMatcher returns extracted text and whether it qualified.
type textMatcher func(*goquery.Selection) (string, bool)

func matchAll(selector string) selectionMatcher {
	return func(root *goquery.Selection) *goquery.Selection {
		if found := root.Find(selector); found.Length() > 0 {
			return found
		}
		return nil
	}
}

// firstText takes the first element matching selector and accepts its text
// when longer than min runes.
func firstText(selector string, min int) textMatcher {
	return func(root *goquery.Selection) (string, bool) {
		text := cleanText(root.Find(selector).First().Text())
		if text == "" || utf8.RuneCountInString(text) <= min {
			return "", false
		}
		return text, true
	}
}

// joinedText concatenates every matching element longer than min runes.
func joinedText(selector string, min int) textMatcher {
	return func(root *goquery.Selection) (string, bool) {
		var parts []string
		root.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if text := cleanText(s.Text()); utf8.RuneCountInString(text) > min {
				parts = append(parts, text)
			}
		})
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " "), true
	}
}

func firstSelection(root *goquery.Selection, matchers []selectionMatcher) *goquery.Selection {
	for _, m := range matchers {
		if found := m(root); found != nil {
			return found
		}
	}
	return nil
}

func firstTextOf(root *goquery.Selection, matchers []textMatcher) (string, bool) {
	for _, m := range matchers {
		if text, ok := m(root); ok {
			return text, true
		}
	}
	return "", false
}

// compiled is a Profile turned into strategy lists.
type compiled struct {
	cards    []selectionMatcher
	titles   []textMatcher
	snippets []textMatcher
	articles []textMatcher
}

func compile(p Profile) compiled {
	var c compiled
	for _, sel := range p.Cards {
		c.cards = append(c.cards, matchAll(sel))
	}
	for _, sel := range p.Titles {
		c.titles = append(c.titles, firstText(sel, 0))
	}
	for _, sel := range p.Snippets {
		c.snippets = append(c.snippets, firstText(sel, p.MinSnippet))
	}
	for _, sel := range p.Articles {
		c.articles = append(c.articles, joinedText(sel, p.MinParagraph))
	}
	return c
}

// cleanText collapses runs of whitespace, including the newlines and tabs
// left behind by nested markup.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
