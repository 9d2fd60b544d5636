package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/metrics"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

// Fetcher is the part of the aggregator the service needs.
type Fetcher interface {
	FetchAll(ctx context.Context, term string) []*news.News
	Latest(ctx context.Context, limit int) []*news.News
	Sources() []*news.Source
}

type ServiceOptions struct {
	Subject       string
	Query         string
	Keywords      []string
	SummaryLength int
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Now           func() time.Time
}

// Service assembles reports from fetched news.
type Service struct {
	fetcher       Fetcher
	subject       string
	query         string
	keywords      []string
	summaryLength int
	metrics       *metrics.Metrics
	log           *slog.Logger
	now           func() time.Time
}

func NewService(f Fetcher, opts ServiceOptions) *Service {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Query == "" {
		opts.Query = opts.Subject
	}
	if opts.SummaryLength <= 0 {
		opts.SummaryLength = news.DefaultSummaryLength
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		fetcher:       f,
		subject:       opts.Subject,
		query:         opts.Query,
		keywords:      opts.Keywords,
		summaryLength: opts.SummaryLength,
		metrics:       opts.Metrics,
		log:           opts.Logger.With("component", "report"),
		now:           opts.Now,
	}
}

func (s *Service) DefaultTitle() string {
	return fmt.Sprintf("Relatório de Notícias sobre %s - %s", s.subject, s.now().Format(dateLayout))
}

func (s *Service) DailyTitle() string {
	return fmt.Sprintf("Relatório Diário - %s - %s", s.subject, s.now().Format(dateLayout))
}

func (s *Service) WeeklyTitle() string {
	return fmt.Sprintf("Relatório Semanal - %s - Semana de %s", s.subject, s.now().Format(dateLayout))
}

// Build assembles a report from items that were already fetched and
// filtered. A blank title gets the dated default.
func (s *Service) Build(items []*news.News, title string) (*Report, error) {
	return s.assemble(items, title, len(items))
}

// Generate fetches the configured query, keeps the relevant items and
// assembles them.
func (s *Service) Generate(ctx context.Context, title string) (*Report, error) {
	s.log.Info("generating report", "query", s.query)
	fetched := s.fetcher.FetchAll(ctx, s.query)
	relevant := news.FilterRelevant(fetched, s.keywords)
	s.log.Info("news filtered", "fetched", len(fetched), "relevant", len(relevant))
	return s.assemble(relevant, title, len(fetched))
}

func (s *Service) Daily(ctx context.Context) (*Report, error) {
	return s.Generate(ctx, s.DailyTitle())
}

func (s *Service) Weekly(ctx context.Context) (*Report, error) {
	return s.Generate(ctx, s.WeeklyTitle())
}

// TestReport builds a one-item report used to check delivery end to end.
func (s *Service) TestReport() (*Report, error) {
	now := s.now()
	n, err := news.New(
		fmt.Sprintf("Teste do Sistema - %s News Agent", s.subject),
		fmt.Sprintf("Este é um relatório de teste para verificar se o sistema de envio está funcionando corretamente. Gerado em %s.", now.Format(dateTimeLayout)),
		"https://example.com/test",
		"Sistema de Teste",
		now,
	)
	if err != nil {
		return nil, err
	}

	r, err := New(fmt.Sprintf("Relatório de Teste - %s", now.Format("02/01/2006 15:04")), now)
	if err != nil {
		return nil, err
	}
	r.Subject = s.subject
	r.SummaryLength = s.summaryLength
	r.Add(n)
	r.Metadata.IsTest = true
	r.Finalize(1, 1)
	return r, nil
}

func (s *Service) assemble(items []*news.News, title string, totalFound int) (*Report, error) {
	if title == "" {
		title = s.DefaultTitle()
	}
	r, err := New(title, s.now())
	if err != nil {
		return nil, err
	}
	r.Subject = s.subject
	r.SummaryLength = s.summaryLength
	r.AddMany(items)
	r.Finalize(s.activeSources(), totalFound)

	s.metrics.IncrementReportsGenerated()
	s.log.Info("report assembled", "title", r.Title, "items", r.Count())
	return r, nil
}

func (s *Service) activeSources() int {
	if s.fetcher == nil {
		return 0
	}
	count := 0
	for _, src := range s.fetcher.Sources() {
		if src.Active {
			count++
		}
	}
	return count
}

// Statistics describes the recent news landscape without building a report.
type Statistics struct {
	TotalRecentNews  int
	SourcesBreakdown []SourceCount
	AvailableSources []string
	LastUpdated      time.Time
}

func (s *Service) Statistics(ctx context.Context) Statistics {
	recent := s.fetcher.Latest(ctx, 50)
	tmp := &Report{Items: recent}

	var names []string
	for _, src := range s.fetcher.Sources() {
		names = append(names, src.Name)
	}
	return Statistics{
		TotalRecentNews:  len(recent),
		SourcesBreakdown: tmp.SourceBreakdown(),
		AvailableSources: names,
		LastUpdated:      s.now(),
	}
}
