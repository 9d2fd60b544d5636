// Package scraper extracts news from search result pages of sites without a
// usable feed or API.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/cache"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/fetch"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

// isoLayouts cover "Z"-suffixed, offset-suffixed and bare timestamps.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

type Options struct {
	Profile  Profile
	Keywords []string
	// Articles caches article bodies by URL; nil disables caching.
	Articles *cache.Cache[string]
	Logger   *slog.Logger
	Now      func() time.Time
}

// Scraper is a news.Extractor driven by a Profile.
type Scraper struct {
	source   *news.Source
	profile  Profile
	rules    compiled
	keywords []string
	articles *cache.Cache[string]
	log      *slog.Logger
	now      func() time.Time
}

var _ news.Extractor = (*Scraper)(nil)

func New(src *news.Source, opts Options) *Scraper {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scraper{
		source:   src,
		profile:  opts.Profile,
		rules:    compile(opts.Profile),
		keywords: opts.Keywords,
		articles: opts.Articles,
		log:      opts.Logger.With("component", "scraper", "source", src.Name),
		now:      opts.Now,
	}
}

func (s *Scraper) Source() *news.Source { return s.source }

// Extract fetches the search page for term. Only the first max_results
// candidates are enriched and filtered, and the output keeps scan order.
func (s *Scraper) Extract(ctx context.Context, client *http.Client, term string) news.Result {
	searchURL := s.source.SearchURL(term)
	doc, err := fetch.Document(ctx, client, searchURL, s.source.Timeout())
	if err != nil {
		s.log.Warn("search page unavailable", "url", searchURL, "error", err)
		return news.Failure(s.source.Name, err)
	}

	max := s.source.MaxResults()
	candidates := s.parseCards(doc, max)
	if len(candidates) == 0 {
		candidates = s.scanLinks(doc, max)
		s.log.Debug("no result cards, used link scan", "found", len(candidates))
	}

	out := make([]*news.News, 0, len(candidates))
	for _, n := range candidates {
		s.enrich(ctx, client, n)
		if !n.IsRelevant(s.keywords) {
			s.log.Debug("dropped irrelevant item", "title", n.Title)
			continue
		}
		out = append(out, n)
		if len(out) >= max {
			break
		}
	}

	s.log.Info("extraction finished", "candidates", len(candidates), "kept", len(out))
	return news.Collected(s.source.Name, out)
}

func (s *Scraper) parseCards(doc *goquery.Document, max int) []*news.News {
	cards := firstSelection(doc.Selection, s.rules.cards)
	if cards == nil {
		return nil
	}

	var out []*news.News
	seen := make(map[string]struct{})
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= max {
			return false
		}
		n := s.parseCard(card)
		if n == nil {
			return true
		}
		if _, dup := seen[n.URL]; dup {
			return true
		}
		seen[n.URL] = struct{}{}
		out = append(out, n)
		return true
	})
	return out
}

func (s *Scraper) parseCard(card *goquery.Selection) *news.News {
	title, ok := firstTextOf(card, s.rules.titles)
	if !ok {
		return nil
	}

	anchor := card.Find("a[href]").First()
	if card.Is("a[href]") {
		anchor = card
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return nil
	}
	link := s.resolve(href)
	if link == "" {
		return nil
	}

	body, ok := firstTextOf(card, s.rules.snippets)
	if !ok {
		body = title
	}

	n, err := news.New(title, body, link, s.source.Name, s.publishedAt(card))
	if err != nil {
		s.log.Debug("skipped card", "error", err)
		return nil
	}
	return n
}

// scanLinks is the last resort: any anchor whose text or href mentions a
// link keyword becomes an item whose body is its title.
func (s *Scraper) scanLinks(doc *goquery.Document, max int) []*news.News {
	var out []*news.News
	seen := make(map[string]struct{})
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := cleanText(a.Text())
		href, _ := a.Attr("href")
		if utf8.RuneCountInString(text) < s.profile.MinTitle {
			return true
		}
		if !news.ContainsAny(text+" "+href, s.profile.LinkKeywords) {
			return true
		}
		link := s.resolve(href)
		if link == "" {
			return true
		}
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}

		n, err := news.New(text, text, link, s.source.Name, s.now())
		if err != nil {
			return true
		}
		out = append(out, n)
		return len(out) < max
	})
	return out
}

// enrich replaces the snippet with the article body only when the body is
// strictly longer.
func (s *Scraper) enrich(ctx context.Context, client *http.Client, n *news.News) {
	body, ok := s.articleBody(ctx, client, n.URL)
	if !ok {
		return
	}
	if utf8.RuneCountInString(body) > utf8.RuneCountInString(n.Content) {
		n.Content = body
	}
}

func (s *Scraper) articleBody(ctx context.Context, client *http.Client, link string) (string, bool) {
	if s.articles != nil {
		if body, ok := s.articles.Get(link); ok {
			return body, body != ""
		}
	}

	doc, err := fetch.Document(ctx, client, link, s.source.Timeout())
	if err != nil {
		s.log.Debug("article unavailable, keeping snippet", "url", link, "error", err)
		return "", false
	}
	body, ok := firstTextOf(doc.Selection, s.rules.articles)
	if s.articles != nil {
		s.articles.Set(link, body)
	}
	return body, ok
}

// publishedAt tries the "last updated" label, then a time[datetime]
// attribute, and falls back to the current time.
func (s *Scraper) publishedAt(card *goquery.Selection) time.Time {
	if s.profile.DateMeta != "" {
		if text := cleanText(card.Find(s.profile.DateMeta).First().Text()); text != "" {
			if t, ok := parseAny(text, s.profile.DateLayouts); ok {
				return t
			}
		}
	}
	if dt, ok := card.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, ok := parseAny(strings.TrimSpace(dt), isoLayouts); ok {
			return t
		}
	}
	return s.now()
}

func parseAny(value string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolve makes href absolute against the source base URL and rejects
// non-http links such as mailto: or javascript:.
func (s *Scraper) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	base, err := url.Parse(s.source.BaseURL)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
