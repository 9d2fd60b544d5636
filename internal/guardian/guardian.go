// Package guardian extracts news from The Guardian Content API.
package guardian

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/fetch"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

// DefaultAPIKey is the public developer key the API accepts for low volume use.
const DefaultAPIKey = "test"

var stripper = bluemonday.StrictPolicy()

type searchResponse struct {
	Response struct {
		Status  string    `json:"status"`
		Message string    `json:"message"`
		Results []content `json:"results"`
	} `json:"response"`
}

type content struct {
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	WebPublicationDate string `json:"webPublicationDate"`
	Fields             struct {
		TrailText string `json:"trailText"`
		BodyText  string `json:"bodyText"`
		Byline    string `json:"byline"`
	} `json:"fields"`
}

// Client is a news.Extractor for the Content API search endpoint.
type Client struct {
	source   *news.Source
	keywords []string
	log      *slog.Logger
	now      func() time.Time
}

var _ news.Extractor = (*Client)(nil)

func New(src *news.Source, keywords []string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		source:   src,
		keywords: keywords,
		log:      logger.With("component", "guardian", "source", src.Name),
		now:      time.Now,
	}
}

func (c *Client) Source() *news.Source { return c.source }

func (c *Client) Extract(ctx context.Context, client *http.Client, term string) news.Result {
	endpoint, err := c.searchURL(term)
	if err != nil {
		return news.Failure(c.source.Name, err)
	}

	body, err := fetch.Get(ctx, client, endpoint, c.source.Timeout(), "application/json")
	if err != nil {
		c.log.Warn("api request failed", "error", err)
		return news.Failure(c.source.Name, err)
	}
	defer body.Close()

	var payload searchResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return news.Failure(c.source.Name, fmt.Errorf("decode response: %w", err))
	}
	if payload.Response.Status != "" && payload.Response.Status != "ok" {
		return news.Failure(c.source.Name, fmt.Errorf("api status %q: %s", payload.Response.Status, payload.Response.Message))
	}

	max := c.source.MaxResults()
	out := make([]*news.News, 0, max)
	for _, r := range payload.Response.Results {
		n := c.toNews(r)
		if n == nil || !n.IsRelevant(c.keywords) {
			continue
		}
		out = append(out, n)
		if len(out) >= max {
			break
		}
	}

	c.log.Info("api results processed", "results", len(payload.Response.Results), "kept", len(out))
	return news.Collected(c.source.Name, out)
}

// searchURL adds the fields and paging parameters to the source's search URL.
// The term itself goes in q unless query_param says otherwise.
func (c *Client) searchURL(term string) (string, error) {
	u, err := url.Parse(c.source.SearchURL(term))
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	if c.source.ConfigString(news.ConfigQueryParam, "") == "" {
		q.Set("q", term)
	}
	q.Set("show-fields", "trailText,bodyText,byline")
	q.Set("page-size", strconv.Itoa(c.source.ConfigInt(news.ConfigPageSize, c.source.MaxResults())))
	q.Set("order-by", "newest")
	q.Set("api-key", c.source.ConfigString(news.ConfigAPIKey, DefaultAPIKey))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) toNews(r content) *news.News {
	title := strings.TrimSpace(r.WebTitle)
	body := strings.Join(strings.Fields(r.Fields.BodyText), " ")
	if body == "" {
		body = strings.Join(strings.Fields(html.UnescapeString(stripper.Sanitize(r.Fields.TrailText))), " ")
	}
	if body == "" {
		body = title
	}

	published, err := time.Parse(time.RFC3339, r.WebPublicationDate)
	if err != nil {
		published = c.now()
	}

	n, err := news.New(title, body, r.WebURL, c.source.Name, published)
	if err != nil {
		c.log.Debug("skipped api result", "error", err)
		return nil
	}
	n.Author = strings.TrimSpace(r.Fields.Byline)
	return n
}
