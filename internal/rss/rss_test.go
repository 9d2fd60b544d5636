package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
  <title>Search results</title>
  <item>
    <title>Adam Sandler joins &amp; leads new Netflix comedy</title>
    <link>https://example.com/sandler-netflix</link>
    <description>&lt;p&gt;The actor &lt;b&gt;returns&lt;/b&gt; to comedy.&lt;/p&gt;</description>
    <pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate>
    <dc:creator>Jane Doe</dc:creator>
  </item>
  <item>
    <title>Central bank keeps rates unchanged</title>
    <link>https://example.com/rates</link>
    <description>Economy news.</description>
  </item>
  <item>
    <title>Happy Madison slate revealed</title>
    <link>https://example.com/happy-madison</link>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled-sandler</link>
    <description>Sandler</description>
  </item>
</channel>
</rss>`

func newFeedSource(t *testing.T, baseURL, max string) *news.Source {
	t.Helper()
	src, err := news.NewSource("Google News", baseURL, news.MechanismFeed, "/rss/search?hl=en-US")
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	src.SetConfig(news.ConfigQueryParam, "q")
	src.SetConfig(news.ConfigMaxResults, max)
	return src
}

func TestExtract_ParsesAndFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Adam Sandler" || r.URL.Query().Get("hl") != "en-US" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := New(newFeedSource(t, srv.URL, "10"), nil, nil)
	res := f.Extract(context.Background(), srv.Client(), "Adam Sandler")
	if res.Status != news.StatusOK {
		t.Fatalf("expected ok, got %s (%v)", res.Status, res.Err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 relevant items, got %d", len(res.Items))
	}

	first := res.Items[0]
	if first.Title != "Adam Sandler joins & leads new Netflix comedy" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.Content != "The actor returns to comedy." {
		t.Fatalf("html not stripped: %q", first.Content)
	}
	if first.Author != "Jane Doe" {
		t.Fatalf("unexpected author %q", first.Author)
	}
	if want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC); !first.Published.Equal(want) {
		t.Fatalf("unexpected published %v", first.Published)
	}

	second := res.Items[1]
	if second.Content != second.Title {
		t.Fatalf("entry without description should use title as body, got %q", second.Content)
	}
}

func TestExtract_Cap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	res := New(newFeedSource(t, srv.URL, "1"), nil, nil).Extract(context.Background(), srv.Client(), "Adam Sandler")
	if len(res.Items) != 1 || res.Items[0].URL != "https://example.com/sandler-netflix" {
		t.Fatalf("cap should keep the first relevant entry, got %+v", res.Items)
	}
}

func TestExtract_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken/rss/search" {
			w.Write([]byte("this is not a feed"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	notFound := New(newFeedSource(t, srv.URL, "10"), nil, nil).Extract(context.Background(), srv.Client(), "x")
	if notFound.Status != news.StatusFailed {
		t.Fatalf("404 should fail, got %s", notFound.Status)
	}

	broken := New(newFeedSource(t, srv.URL+"/broken", "10"), nil, nil).Extract(context.Background(), srv.Client(), "x")
	if broken.Status != news.StatusFailed || broken.Err == nil {
		t.Fatalf("unparseable feed should fail, got %s", broken.Status)
	}
}

func TestStripHTML(t *testing.T) {
	if got := stripHTML("<p>Hello&nbsp;<i>world</i></p>\n\n"); got != "Hello world" {
		t.Fatalf("unexpected %q", got)
	}
}
