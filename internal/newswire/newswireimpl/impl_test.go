package newswireimpl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/reelcraft/newsreel/internal/newswire"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (l nopLogger) WithComponent(string) logger.Logger { return l }

func newTestClient(headlinesURL, extractURL string) *NewswireImpl {
	cfg := &config.Config{}
	cfg.Newswire.APIKey = "test-key"
	c := New(Opts{Config: cfg, Logger: nopLogger{}})
	if headlinesURL != "" {
		c.headlinesURL = headlinesURL
	}
	if extractURL != "" {
		c.extractURL = extractURL
	}
	return c
}

func TestFetchHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-rapidapi-key") != "test-key" {
			t.Errorf("x-rapidapi-key = %q", r.Header.Get("x-rapidapi-key"))
		}
		q := r.URL.Query()
		for param, want := range map[string]string{
			"topic": "WORLD", "country": "IT", "lang": "it", "limit": "15",
		} {
			if got := q.Get(param); got != want {
				t.Errorf("query %s = %q, want %q", param, got, want)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"OK","data":[
			{"title":"Elezioni, cosa sapere","link":"https://example.it/a","source_url":"https://example.it","published_datetime_utc":"2025-05-01T06:00:00.000Z"},
			{"title":"Borsa in rialzo","link":"https://example.it/b"}
		]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	headlines, err := c.FetchHeadlines(context.Background(), newswire.Query{
		Topic: "WORLD", Country: "IT", Lang: "it", Limit: 15,
	})
	if err != nil {
		t.Fatalf("FetchHeadlines() error = %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("got %d headlines, want 2", len(headlines))
	}
	if headlines[0].Title != "Elezioni, cosa sapere" {
		t.Errorf("Title = %q", headlines[0].Title)
	}
	if headlines[0].Link != "https://example.it/a" {
		t.Errorf("Link = %q", headlines[0].Link)
	}
}

func TestFetchHeadlinesClientErrorIsNotRetried(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, `{"message":"invalid key"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.FetchHeadlines(context.Background(), newswire.Query{Topic: "WORLD"})
	if err == nil {
		t.Fatal("FetchHeadlines() = nil, want error")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1 (4xx must not be retried)", got)
	}
}

func TestFetchHeadlinesRetriesServerError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"data":[{"title":"ok","link":"https://example.it/c"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	headlines, err := c.FetchHeadlines(context.Background(), newswire.Query{Topic: "WORLD"})
	if err != nil {
		t.Fatalf("FetchHeadlines() error = %v", err)
	}
	if len(headlines) != 1 || headlines[0].Title != "ok" {
		t.Errorf("headlines = %+v", headlines)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("server hit %d times, want 2", got)
	}
}

func TestExtractArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if payload["url"] != "https://example.it/a" {
			t.Errorf("payload url = %q", payload["url"])
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"url":"https://example.it/a",
			"title":"Elezioni, cosa sapere",
			"author":"Maria Rossi",
			"text":"Il testo completo.",
			"siteName":"Example",
			"keywords":["elezioni","politica"]
		}`)
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	article, err := c.ExtractArticle(context.Background(), "https://example.it/a")
	if err != nil {
		t.Fatalf("ExtractArticle() error = %v", err)
	}
	if article.Title != "Elezioni, cosa sapere" {
		t.Errorf("Title = %q", article.Title)
	}
	if article.Text != "Il testo completo." {
		t.Errorf("Text = %q", article.Text)
	}
	if len(article.Keywords) != 2 {
		t.Errorf("Keywords = %v", article.Keywords)
	}
}
