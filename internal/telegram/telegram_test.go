package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/retry"
)

func fastRetry() retry.RetryConfig {
	return retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}
}

func TestSendMessage_PostsPayload(t *testing.T) {
	var got map[string]interface{}
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := New("TOKEN", "42", Options{BaseURL: srv.URL, Client: srv.Client(), Retry: fastRetry()})
	if err := n.SendMessage(context.Background(), "Relatório"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if path != "/botTOKEN/sendMessage" {
		t.Fatalf("unexpected path %s", path)
	}
	if got["chat_id"] != "42" || got["text"] != "Relatório" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestSendMessage_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New("T", "1", Options{BaseURL: srv.URL, Retry: fastRetry()})
	if err := n.SendMessage(context.Background(), "x"); err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, err=%v calls=%d", err, calls)
	}
}

func TestSendMessage_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := New("bad", "1", Options{BaseURL: srv.URL, Retry: fastRetry()})
	if err := n.SendMessage(context.Background(), "x"); err == nil || calls != 1 {
		t.Fatalf("expected single failed attempt, err=%v calls=%d", err, calls)
	}
}

func TestSendMessage_Truncates(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	n := New("T", "1", Options{BaseURL: srv.URL, Retry: fastRetry()})
	if err := n.SendMessage(context.Background(), strings.Repeat("é", 5000)); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	text := got["text"].(string)
	if utf8.RuneCountInString(text) != MaxMessageLength || !strings.HasSuffix(text, "...") {
		t.Fatalf("text not truncated: %d runes", utf8.RuneCountInString(text))
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("short", 10) != "short" {
		t.Fatalf("short text must be unchanged")
	}
	if got := Truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("Truncate = %q", got)
	}
}
