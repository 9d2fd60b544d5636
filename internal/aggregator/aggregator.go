// Package aggregator runs every configured extractor in turn and merges their
// results into one deduplicated list.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/metrics"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/retry"
)

const defaultLatestLimit = 10

type Options struct {
	// Query is the term Latest searches for.
	Query    string
	Keywords []string
	// Delay is the fixed pause between sources and between retries.
	Delay time.Duration
	// ClientTimeout bounds requests that carry no per-source timeout.
	ClientTimeout time.Duration
	// NewClient overrides how the shared client is built.
	NewClient func() *http.Client
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Aggregator owns the shared HTTP client. It is created lazily on first use
// and released by Close; extractors only borrow it.
type Aggregator struct {
	extractors []news.Extractor
	query      string
	keywords   []string
	delay      time.Duration
	metrics    *metrics.Metrics
	log        *slog.Logger

	mu        sync.Mutex
	client    *http.Client
	newClient func() *http.Client
}

func New(extractors []news.Extractor, opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.NewClient == nil {
		timeout := opts.ClientTimeout
		opts.NewClient = func() *http.Client {
			return &http.Client{Timeout: timeout}
		}
	}
	return &Aggregator{
		extractors: extractors,
		query:      opts.Query,
		keywords:   opts.Keywords,
		delay:      opts.Delay,
		metrics:    opts.Metrics,
		log:        opts.Logger.With("component", "aggregator"),
		newClient:  opts.NewClient,
	}
}

func (a *Aggregator) httpClient() *http.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		a.client = a.newClient()
		a.log.Debug("http client created")
	}
	return a.client
}

// Close releases pooled connections. A later fetch builds a new client.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		a.client.CloseIdleConnections()
		a.client = nil
		a.log.Debug("http client released")
	}
}

// Sources lists every registered source, active or not, in registration order.
func (a *Aggregator) Sources() []*news.Source {
	out := make([]*news.Source, 0, len(a.extractors))
	for _, ex := range a.extractors {
		out = append(out, ex.Source())
	}
	return out
}

// Query is the configured default search term.
func (a *Aggregator) Query() string { return a.query }

// FetchAll visits active sources sequentially, pausing between them, and
// returns their items deduplicated by URL. It never fails: a broken source
// contributes nothing and the others still run.
func (a *Aggregator) FetchAll(ctx context.Context, term string) []*news.News {
	start := time.Now()
	client := a.httpClient()

	var all []*news.News
	visited := 0
	for _, ex := range a.extractors {
		src := ex.Source()
		if !src.Active {
			a.log.Debug("skipping inactive source", "source", src.Name)
			continue
		}
		if visited > 0 {
			if err := a.pause(ctx); err != nil {
				a.log.Warn("fetch interrupted", "error", err)
				break
			}
		}
		visited++

		res := a.extract(ctx, client, ex, term)
		a.metrics.IncrementSourcesConsulted()
		a.metrics.AddNewsFetched(len(res.Items))
		all = append(all, res.Items...)
	}

	out, dropped := Dedupe(all)
	a.metrics.AddDuplicatesFiltered(dropped)
	a.log.Info("fetch finished", "term", term, "sources", visited, "items", len(out), "duplicates", dropped, "duration", time.Since(start))
	return out
}

// Search is FetchAll followed by the relevance filter.
func (a *Aggregator) Search(ctx context.Context, term string) []*news.News {
	return news.FilterRelevant(a.FetchAll(ctx, term), a.keywords)
}

// Latest fetches the configured query and returns the newest limit items.
func (a *Aggregator) Latest(ctx context.Context, limit int) []*news.News {
	if limit <= 0 {
		limit = defaultLatestLimit
	}
	items := a.FetchAll(ctx, a.query)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// extract runs one source, retrying failed results up to the source's
// retry_attempts. Empty results are final.
func (a *Aggregator) extract(ctx context.Context, client *http.Client, ex news.Extractor, term string) news.Result {
	src := ex.Source()
	var res news.Result
	err := retry.WithRetry(ctx, retry.RetryConfig{MaxAttempts: src.RetryAttempts(), Delay: a.delay}, func() error {
		res = safeExtract(ctx, client, ex, term)
		if res.Status != news.StatusFailed {
			return nil
		}
		if res.Err == nil {
			return errors.New("extraction failed")
		}
		return res.Err
	})
	if err != nil {
		a.metrics.IncrementSourcesFailed()
		a.log.Warn("source failed", "source", src.Name, "error", err)
		return news.Failure(src.Name, err)
	}
	a.log.Info("source done", "source", src.Name, "status", res.Status.String(), "items", len(res.Items))
	return res
}

// safeExtract turns a panicking extractor into a failed result.
func safeExtract(ctx context.Context, client *http.Client, ex news.Extractor, term string) (res news.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = news.Failure(ex.Source().Name, fmt.Errorf("extractor panic: %v", r))
		}
	}()
	return ex.Extract(ctx, client, term)
}

func (a *Aggregator) pause(ctx context.Context) error {
	if a.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Dedupe keeps the first item seen for each URL, in order, and reports how
// many were dropped.
func Dedupe(items []*news.News) ([]*news.News, int) {
	seen := make(map[string]struct{}, len(items))
	out := make([]*news.News, 0, len(items))
	for _, n := range items {
		if _, dup := seen[n.URL]; dup {
			continue
		}
		seen[n.URL] = struct{}{}
		out = append(out, n)
	}
	return out, len(items) - len(out)
}
