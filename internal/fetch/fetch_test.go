package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGet_SetsUserAgentAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("missing user agent: %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, err := Get(context.Background(), srv.Client(), srv.URL, time.Second, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "hello" {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestGet_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Get(context.Background(), srv.Client(), srv.URL, time.Second, "")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusForbidden {
		t.Fatalf("expected StatusError 403, got %v", err)
	}
}

func TestGet_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	if _, err := Get(context.Background(), srv.Client(), srv.URL, 50*time.Millisecond, ""); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestDocument_Parses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Title</h1></body></html>`))
	}))
	defer srv.Close()

	doc, err := Document(context.Background(), srv.Client(), srv.URL, time.Second)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "Title" {
		t.Fatalf("unexpected h1 %q", got)
	}
}
