// Package rss extracts news from syndication feeds (RSS, Atom, JSON Feed).
package rss

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/fetch"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

var htmlStripper = bluemonday.StrictPolicy()

// Feed is a news.Extractor over one feed URL.
type Feed struct {
	source   *news.Source
	keywords []string
	log      *slog.Logger
	now      func() time.Time
}

var _ news.Extractor = (*Feed)(nil)

func New(src *news.Source, keywords []string, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		source:   src,
		keywords: keywords,
		log:      logger.With("component", "rss", "source", src.Name),
		now:      time.Now,
	}
}

func (f *Feed) Source() *news.Source { return f.source }

func (f *Feed) Extract(ctx context.Context, client *http.Client, term string) news.Result {
	feedURL := f.source.SearchURL(term)
	body, err := fetch.Get(ctx, client, feedURL, f.source.Timeout(),
		"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		f.log.Warn("feed unavailable", "url", feedURL, "error", err)
		return news.Failure(f.source.Name, err)
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		f.log.Warn("feed unparseable", "url", feedURL, "error", err)
		return news.Failure(f.source.Name, fmt.Errorf("parse feed: %w", err))
	}

	max := f.source.MaxResults()
	out := make([]*news.News, 0, max)
	for _, item := range feed.Items {
		n := f.toNews(item)
		if n == nil || !n.IsRelevant(f.keywords) {
			continue
		}
		out = append(out, n)
		if len(out) >= max {
			break
		}
	}

	f.log.Info("feed processed", "entries", len(feed.Items), "kept", len(out))
	return news.Collected(f.source.Name, out)
}

func (f *Feed) toNews(item *gofeed.Item) *news.News {
	title := stripHTML(item.Title)
	body := stripHTML(item.Description)
	if body == "" {
		body = stripHTML(item.Content)
	}
	if body == "" {
		body = title
	}

	published := f.now()
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	n, err := news.New(title, body, strings.TrimSpace(item.Link), f.source.Name, published)
	if err != nil {
		f.log.Debug("skipped feed entry", "error", err)
		return nil
	}
	if item.Author != nil {
		n.Author = strings.TrimSpace(item.Author.Name)
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		n.Author = strings.TrimSpace(item.Authors[0].Name)
	}
	return n
}

// stripHTML removes markup and entities and collapses whitespace.
func stripHTML(s string) string {
	s = htmlStripper.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
