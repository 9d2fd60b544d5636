// Package config builds the single configuration value passed through the
// application. Nothing reads the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

type Config struct {
	// Search settings
	Subject          string
	SearchQuery      string
	Keywords         []string
	MaxNewsPerSource int
	SummaryLength    int

	// Sources
	SourcesConfigPath string
	Sources           []*news.Source

	// HTTP settings
	RequestTimeout  time.Duration
	SourceDelay     time.Duration
	ArticleCacheTTL time.Duration

	// SMTP settings
	SMTPServer       string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPUseTLS       bool
	DefaultRecipient string

	// Gemini settings
	GeminiAPIKey        string
	GeminiModel         string
	MaxAnalysisRequests int

	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// Report & publishing
	ReportTitle      string
	ReportOutputDir  string
	DocsDir          string
	GitHubToken      string
	GitHubRepository string

	// Scheduling
	CronSpec string

	// App settings
	LogLevel          string
	Debug             bool
	MonitoringEnabled bool
	MonitoringPort    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Subject:           "Adam Sandler",
		Keywords:          append([]string(nil), news.DefaultKeywords...),
		MaxNewsPerSource:  10,
		SummaryLength:     news.DefaultSummaryLength,
		SourcesConfigPath: "configs/sources.yaml",
		RequestTimeout:    30 * time.Second,
		SourceDelay:       time.Second,
		ArticleCacheTTL:   time.Hour,
		SMTPServer:        "smtp.gmail.com",
		SMTPPort:          587,
		SMTPUseTLS:        true,
		GeminiModel:       "gemini-1.5-flash",
		ReportOutputDir:   "reports",
		DocsDir:           "docs",
		CronSpec:          "0 8 * * *",
		LogLevel:          "info",
		MonitoringPort:    "8080",
	}

	cfg.SearchQuery = getEnvOrDefault("SEARCH_QUERY", cfg.Subject)
	if v := os.Getenv("RELEVANCE_KEYWORDS"); v != "" {
		cfg.Keywords = splitList(v)
	}
	cfg.MaxNewsPerSource = getEnvIntOrDefault("MAX_NEWS_PER_SOURCE", cfg.MaxNewsPerSource)
	cfg.SummaryLength = getEnvIntOrDefault("SUMMARY_LENGTH", cfg.SummaryLength)
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)

	cfg.RequestTimeout = getEnvSecondsOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.SourceDelay = getEnvSecondsOrDefault("SOURCE_DELAY", cfg.SourceDelay)
	cfg.ArticleCacheTTL = time.Duration(getEnvIntOrDefault("ARTICLE_CACHE_TTL_MINUTES", 60)) * time.Minute

	cfg.SMTPServer = getEnvOrDefault("SMTP_SERVER", cfg.SMTPServer)
	cfg.SMTPPort = getEnvIntOrDefault("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPUseTLS = getEnvBoolOrDefault("SMTP_USE_TLS", cfg.SMTPUseTLS)
	cfg.DefaultRecipient = os.Getenv("DEFAULT_EMAIL_RECIPIENT")

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.MaxAnalysisRequests = getEnvIntOrDefault("MAX_ANALYSIS_REQUESTS", 5)

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	cfg.ReportTitle = getEnvOrDefault("REPORT_TITLE", "Relatório de Notícias sobre "+cfg.Subject)
	cfg.ReportOutputDir = getEnvOrDefault("REPORT_OUTPUT_DIR", cfg.ReportOutputDir)
	cfg.DocsDir = getEnvOrDefault("DOCS_DIR", cfg.DocsDir)
	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.GitHubRepository = os.Getenv("GITHUB_REPOSITORY")

	cfg.CronSpec = getEnvOrDefault("CRON_SPEC", cfg.CronSpec)

	cfg.LogLevel = strings.ToLower(getEnvOrDefault("LOG_LEVEL", cfg.LogLevel))
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	cfg.MonitoringEnabled = os.Getenv("ENABLE_HTTP_MONITORING") == "true"
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	sources, err := LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = DefaultSources()
	}
	cfg.Sources = applySourceDefaults(sources, cfg)

	return cfg, cfg.Validate()
}

// applySourceDefaults fills max_results and timeout from the global settings
// for sources that do not set them.
func applySourceDefaults(sources []*news.Source, cfg *Config) []*news.Source {
	for _, src := range sources {
		if _, ok := src.Config[news.ConfigMaxResults]; !ok {
			src.SetConfig(news.ConfigMaxResults, strconv.Itoa(cfg.MaxNewsPerSource))
		}
		if _, ok := src.Config[news.ConfigTimeout]; !ok {
			src.SetConfig(news.ConfigTimeout, strconv.Itoa(int(cfg.RequestTimeout/time.Second)))
		}
	}
	return sources
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
			return time.Duration(f * float64(time.Second))
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.SearchQuery) == "" {
		return fmt.Errorf("SEARCH_QUERY must not be empty")
	}
	if c.MaxNewsPerSource <= 0 {
		return fmt.Errorf("MAX_NEWS_PER_SOURCE must be positive")
	}
	if c.SummaryLength <= 0 {
		return fmt.Errorf("SUMMARY_LENGTH must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT out of range: %d", c.SMTPPort)
	}
	active := 0
	for _, src := range c.Sources {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
		if !src.Mechanism.Valid() {
			return fmt.Errorf("source %q: unknown type %q", src.Name, src.Mechanism)
		}
		if src.Active {
			active++
		}
	}
	if active == 0 {
		return fmt.Errorf("at least one active source is required")
	}
	return nil
}

// EmailConfigured reports whether SMTP credentials are present.
func (c *Config) EmailConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

func (c *Config) AnalysisConfigured() bool {
	return c.GeminiAPIKey != ""
}

func (c *Config) TelegramConfigured() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c *Config) GitHubConfigured() bool {
	return c.GitHubToken != "" && c.GitHubRepository != ""
}
