package news

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Mechanism tells how a source is fetched.
type Mechanism string

const (
	MechanismFeed     Mechanism = "rss"
	MechanismScraping Mechanism = "web_scraping"
	MechanismAPI      Mechanism = "api"
)

// Valid reports whether m is one of the known mechanisms.
func (m Mechanism) Valid() bool {
	switch m {
	case MechanismFeed, MechanismScraping, MechanismAPI:
		return true
	}
	return false
}

// Well-known keys of Source.Config.
const (
	ConfigMaxResults    = "max_results"
	ConfigTimeout       = "timeout"
	ConfigRetryAttempts = "retry_attempts"
	ConfigProfile       = "profile"
	ConfigQueryParam    = "query_param"
	ConfigAPIKey        = "api_key"
	ConfigPageSize      = "page_size"
)

const (
	defaultMaxResults = 10
	defaultTimeout    = 30 * time.Second
)

// Source describes one origin of news: where it lives and how to query it.
type Source struct {
	Name           string
	BaseURL        string
	Mechanism      Mechanism
	SearchEndpoint string
	Active         bool
	Config         map[string]string
}

// NewSource builds an active source and validates its required fields.
func NewSource(name, baseURL string, mechanism Mechanism, searchEndpoint string) (*Source, error) {
	s := &Source{
		Name:           strings.TrimSpace(name),
		BaseURL:        strings.TrimSpace(baseURL),
		Mechanism:      mechanism,
		SearchEndpoint: strings.TrimSpace(searchEndpoint),
		Active:         true,
		Config:         make(map[string]string),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return &ValidationError{Entity: "source", Field: "name"}
	case strings.TrimSpace(s.BaseURL) == "":
		return &ValidationError{Entity: "source", Field: "base_url"}
	case strings.TrimSpace(s.SearchEndpoint) == "":
		return &ValidationError{Entity: "source", Field: "search_endpoint"}
	}
	return nil
}

// SearchURL builds the request URL for a query term. Scraping sources take
// the term as ?q=; feeds and APIs only get it when query_param is configured.
func (s *Source) SearchURL(query string) string {
	u := s.BaseURL + s.SearchEndpoint
	param := "q"
	if s.Mechanism != MechanismScraping {
		param = s.ConfigString(ConfigQueryParam, "")
		if param == "" {
			return u
		}
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + param + "=" + url.QueryEscape(query)
}

// SetConfig is the only mutation allowed after construction.
func (s *Source) SetConfig(key, value string) {
	if s.Config == nil {
		s.Config = make(map[string]string)
	}
	s.Config[key] = value
}

func (s *Source) ConfigString(key, def string) string {
	if v, ok := s.Config[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (s *Source) ConfigInt(key string, def int) int {
	if v, ok := s.Config[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// ConfigDuration reads a value in seconds.
func (s *Source) ConfigDuration(key string, def time.Duration) time.Duration {
	if v, ok := s.Config[key]; ok {
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && n > 0 {
			return time.Duration(n * float64(time.Second))
		}
	}
	return def
}

func (s *Source) MaxResults() int {
	if n := s.ConfigInt(ConfigMaxResults, defaultMaxResults); n > 0 {
		return n
	}
	return defaultMaxResults
}

func (s *Source) Timeout() time.Duration {
	return s.ConfigDuration(ConfigTimeout, defaultTimeout)
}

// RetryAttempts is the total number of attempts the caller may make.
func (s *Source) RetryAttempts() int {
	if n := s.ConfigInt(ConfigRetryAttempts, 1); n > 0 {
		return n
	}
	return 1
}
