// Package gemini asks Google Gemini for a short editorial analysis of each
// news item.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/metrics"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/ratelimit"
)

const (
	DefaultModel = "gemini-1.5-flash"
	// FailureText is shown in place of an analysis that could not be made.
	FailureText = "Erro ao analisar notícia"

	maxContentRunes = 6000
)

// generateFunc returns the model text and the total token count.
type generateFunc func(ctx context.Context, prompt string) (string, int, error)

type Options struct {
	Model   string
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type Client struct {
	client   *genai.Client
	model    string
	generate generateFunc
	limiter  *ratelimit.Limiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := newClient(opts)
	c.client = client
	c.generate = c.generateContent
	return c, nil
}

func newClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		model:   opts.Model,
		limiter: opts.Limiter,
		metrics: opts.Metrics,
		log:     opts.Logger.With("component", "gemini"),
	}
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) Model() string { return c.model }

// AnalyzeNews never fails: errors come back as a failed Analysis.
func (c *Client) AnalyzeNews(ctx context.Context, n *news.News) news.Analysis {
	text, tokens, err := c.generate(ctx, buildPrompt(n))
	if err != nil {
		c.metrics.IncrementAnalysesFailed()
		c.log.Warn("analysis failed", "title", n.Title, "error", err)
		return news.FailedAnalysis(FailureText, err)
	}
	text = cleanResponse(text)
	if text == "" {
		c.metrics.IncrementAnalysesFailed()
		return news.FailedAnalysis(FailureText, fmt.Errorf("empty response from Gemini"))
	}
	c.metrics.IncrementAnalysesSucceeded()
	return news.SuccessAnalysis(text, c.model, tokens)
}

// ResetBudget gives the next AnalyzeAll call the full request budget.
func (c *Client) ResetBudget() {
	if c.limiter != nil {
		c.limiter.Reset()
	}
}

// AnalyzeAll attaches an analysis to items in order until the limiter's
// budget runs out; the rest stay unanalyzed. It returns how many were tried.
func (c *Client) AnalyzeAll(ctx context.Context, items []*news.News) int {
	tried := 0
	for _, n := range items {
		if ctx.Err() != nil {
			break
		}
		if c.limiter != nil && !c.limiter.Allow() {
			c.log.Info("analysis budget spent", "analyzed", tried, "remaining_items", len(items)-tried)
			break
		}
		n.Analysis = c.AnalyzeNews(ctx, n)
		tried++
	}
	return tried
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, int, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(1000)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("no response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return b.String(), tokens, nil
}

func buildPrompt(n *news.News) string {
	return fmt.Sprintf(`Analise esta notícia sobre Adam Sandler e responda em português.

NOTÍCIA:
Título: %s
Fonte: %s
URL: %s
Conteúdo: %s

TAREFAS:
1. Resumo executivo em 2 ou 3 frases.
2. Relevância para a carreira de Adam Sandler.
3. Classificação: filme, série, entrevista, bastidores, negócios ou outro.

FORMATO:
Responda apenas com HTML simples usando <h3>, <p>, <ul>, <li> e <strong>.
Não use blocos de código nem markdown.`, n.Title, n.Source, n.URL, prepareContent(n.Content))
}

// prepareContent collapses whitespace and trims very long bodies, preferring
// to end at a sentence.
func prepareContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= maxContentRunes {
		return content
	}
	trimmed := string([]rune(content)[:maxContentRunes])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed + "\n[TRUNCATED]"
}

var fence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// cleanResponse removes a markdown code fence the model sometimes adds.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if m := fence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(s)
}
