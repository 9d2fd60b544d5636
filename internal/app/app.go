// Package app wires configuration, extractors and delivery collaborators
// into the commands exposed by the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/aggregator"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/cache"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/config"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/email"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/gemini"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/guardian"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/metrics"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/publish"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/ratelimit"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/report"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/rss"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/scraper"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/telegram"
)

// Analyzer attaches an analysis to each item it is allowed to process.
// ResetBudget starts a new run's request budget.
type Analyzer interface {
	ResetBudget()
	AnalyzeAll(ctx context.Context, items []*news.News) int
	Close()
}

type Mailer interface {
	SendReport(ctx context.Context, to, subject, text string) error
	SendHTMLReport(ctx context.Context, to, subject, text, html string) error
	TestConnection(ctx context.Context) error
}

type Notifier interface {
	SendMessage(ctx context.Context, text string) error
}

type Options struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// Out receives the console output; defaults to stdout.
	Out io.Writer
	Now func() time.Time
}

type App struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	out     io.Writer
	now     func() time.Time

	articles  *cache.Cache[string]
	agg       *aggregator.Aggregator
	reports   *report.Service
	publisher *publish.Publisher

	// optional, nil when not configured
	analyzer Analyzer
	mailer   Mailer
	notifier Notifier
}

// New builds the application from cfg. Collaborators whose credentials are
// missing stay disabled; a Gemini client that cannot be created is logged
// and skipped.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &App{
		cfg:      cfg,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		out:      opts.Out,
		now:      opts.Now,
		articles: cache.New[string](cfg.ArticleCacheTTL, 5*time.Minute),
	}

	extractors, err := BuildExtractors(cfg.Sources, cfg.Keywords, a.articles, a.log)
	if err != nil {
		a.articles.Close()
		return nil, err
	}
	a.agg = aggregator.New(extractors, aggregator.Options{
		Query:         cfg.SearchQuery,
		Keywords:      cfg.Keywords,
		Delay:         cfg.SourceDelay,
		ClientTimeout: cfg.RequestTimeout,
		Metrics:       a.metrics,
		Logger:        a.log,
	})
	a.reports = report.NewService(a.agg, report.ServiceOptions{
		Subject:       cfg.Subject,
		Query:         cfg.SearchQuery,
		Keywords:      cfg.Keywords,
		SummaryLength: cfg.SummaryLength,
		Metrics:       a.metrics,
		Logger:        a.log,
		Now:           a.now,
	})
	a.publisher = publish.New(publish.Options{
		DocsDir:    cfg.DocsDir,
		Token:      cfg.GitHubToken,
		Repository: cfg.GitHubRepository,
		Logger:     a.log,
		Now:        a.now,
	})

	if cfg.EmailConfigured() {
		a.mailer = email.NewSender(email.Config{
			Server:   cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			UseTLS:   cfg.SMTPUseTLS,
			Timeout:  cfg.RequestTimeout,
		}, a.metrics, a.log)
	}
	if cfg.TelegramConfigured() {
		a.notifier = telegram.New(cfg.TelegramToken, cfg.TelegramChatID, telegram.Options{Logger: a.log})
	}
	if cfg.AnalysisConfigured() {
		limiter := ratelimit.New("gemini", cfg.MaxAnalysisRequests, 24*time.Hour, a.log)
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, gemini.Options{
			Model:   cfg.GeminiModel,
			Limiter: limiter,
			Metrics: a.metrics,
			Logger:  a.log,
		})
		if err != nil {
			a.log.Warn("analysis disabled", "error", err)
		} else {
			a.analyzer = client
		}
	}

	return a, nil
}

// Close releases the shared HTTP client and the optional collaborators.
func (a *App) Close() {
	a.agg.Close()
	a.articles.Close()
	if a.analyzer != nil {
		a.analyzer.Close()
	}
}

// BuildExtractors picks the extractor for each source by its mechanism.
// Scraping sources need a known profile.
func BuildExtractors(sources []*news.Source, keywords []string, articles *cache.Cache[string], logger *slog.Logger) ([]news.Extractor, error) {
	var out []news.Extractor
	for _, src := range sources {
		switch src.Mechanism {
		case news.MechanismScraping:
			name := src.ConfigString(news.ConfigProfile, scraper.BBC.Name)
			profile, ok := scraper.ProfileFor(name)
			if !ok {
				return nil, fmt.Errorf("source %s: unknown scraping profile %q", src.Name, name)
			}
			out = append(out, scraper.New(src, scraper.Options{
				Profile:  profile,
				Keywords: keywords,
				Articles: articles,
				Logger:   logger,
			}))
		case news.MechanismFeed:
			out = append(out, rss.New(src, keywords, logger))
		case news.MechanismAPI:
			out = append(out, guardian.New(src, keywords, logger))
		default:
			return nil, fmt.Errorf("source %s: unsupported mechanism %q", src.Name, src.Mechanism)
		}
	}
	return out, nil
}
