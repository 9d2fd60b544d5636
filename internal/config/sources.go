package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

// SourcesFile is the YAML layout of the sources file:
//
//	sources:
//	  - name: BBC News
//	    type: web_scraping
//	    base_url: https://www.bbc.com
//	    search_endpoint: /search
//	    config:
//	      max_results: "20"
type SourcesFile struct {
	Sources []SourceEntry `yaml:"sources"`
}

type SourceEntry struct {
	Name           string            `yaml:"name"`
	Type           string            `yaml:"type"`
	BaseURL        string            `yaml:"base_url"`
	SearchEndpoint string            `yaml:"search_endpoint"`
	Active         *bool             `yaml:"active"`
	Config         map[string]string `yaml:"config"`
}

// LoadSources reads the sources file. A missing file yields nil, nil so the
// caller can fall back to DefaultSources.
func LoadSources(path string) ([]*news.Source, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer f.Close()

	var file SourcesFile
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode sources file %s: %w", path, err)
	}

	sources := make([]*news.Source, 0, len(file.Sources))
	seen := make(map[string]struct{})
	for i, e := range file.Sources {
		src, err := e.toSource()
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, dup := seen[src.Name]; dup {
			return nil, fmt.Errorf("sources[%d]: duplicate source name %q", i, src.Name)
		}
		seen[src.Name] = struct{}{}
		sources = append(sources, src)
	}
	return sources, nil
}

func (e SourceEntry) toSource() (*news.Source, error) {
	mechanism := news.Mechanism(e.Type)
	if !mechanism.Valid() {
		return nil, fmt.Errorf("source %q: unknown type %q", e.Name, e.Type)
	}
	src, err := news.NewSource(e.Name, e.BaseURL, mechanism, e.SearchEndpoint)
	if err != nil {
		return nil, err
	}
	if e.Active != nil {
		src.Active = *e.Active
	}
	for k, v := range e.Config {
		src.SetConfig(k, v)
	}
	return src, nil
}

// DefaultSources is used when no sources file exists.
func DefaultSources() []*news.Source {
	bbc, _ := news.NewSource("BBC News", "https://www.bbc.com", news.MechanismScraping, "/search")
	bbc.SetConfig(news.ConfigProfile, "bbc")
	bbc.SetConfig(news.ConfigMaxResults, "20")
	bbc.SetConfig(news.ConfigTimeout, "30")
	bbc.SetConfig(news.ConfigRetryAttempts, "3")

	google, _ := news.NewSource("Google News", "https://news.google.com", news.MechanismFeed, "/rss/search?hl=en-US&gl=US&ceid=US:en")
	google.SetConfig(news.ConfigQueryParam, "q")
	google.SetConfig(news.ConfigRetryAttempts, "2")

	guardian, _ := news.NewSource("The Guardian", "https://content.guardianapis.com", news.MechanismAPI, "/search")
	guardian.SetConfig(news.ConfigAPIKey, "test")
	guardian.SetConfig(news.ConfigRetryAttempts, "2")

	return []*news.Source{bbc, google, guardian}
}
