package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reelcraft/newsreel/internal/ratelimit"
	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (l nopLogger) WithComponent(string) logger.Logger { return l }

type fakeRenderer struct {
	mu       sync.Mutex
	err      error
	requests []renderer.Request
	missing  []string
}

func (f *fakeRenderer) CheckBinaries(context.Context) error { return nil }

func (f *fakeRenderer) Probe(context.Context, string) (renderer.AudioInfo, error) {
	return renderer.AudioInfo{Duration: 1, SampleRate: 44100}, nil
}

func (f *fakeRenderer) Render(_ context.Context, req renderer.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	for _, slide := range req.Slides {
		for _, path := range []string{slide.ImagePath, slide.AudioPath} {
			if _, err := os.Stat(path); err != nil {
				f.missing = append(f.missing, path)
			}
		}
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(req.OutputPath, []byte("mp4-bytes"), 0o644)
}

func newTestServer(t *testing.T, rend renderer.Client) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Port = 8000
	cfg.Video.PreviewMode = true
	cfg.Video.TransitionSeconds = 0.5
	cfg.Video.FPS = 30
	cfg.Video.OutputDir = t.TempDir()
	cfg.Video.UploadDir = t.TempDir()
	for _, sub := range []string{"images", "audio"} {
		if err := os.MkdirAll(filepath.Join(cfg.Video.UploadDir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	return &Server{
		config:   cfg,
		logger:   nopLogger{},
		renderer: rend,
		limiter:  ratelimit.NewInMemoryLimiter(100, time.Minute, 100),
	}
}

func multipartBody(t *testing.T, imageCount, audioCount int, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i < imageCount; i++ {
		fw, err := mw.CreateFormFile("images", fmt.Sprintf("slide%d.png", i))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("png-data")); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < audioCount; i++ {
		fw, err := mw.CreateFormFile("audios", fmt.Sprintf("voice%d.mp3", i))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("mp3-data")); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postGenerate(srv *Server, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func assertUploadsCleaned(t *testing.T, srv *Server) {
	t.Helper()
	for _, sub := range []string{"images", "audio"} {
		entries, err := os.ReadDir(filepath.Join(srv.config.Video.UploadDir, sub))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected %s upload dir to be empty, found %d entries", sub, len(entries))
		}
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestGenerateReturnsVideo(t *testing.T) {
	rend := &fakeRenderer{}
	srv := newTestServer(t, rend)

	body, contentType := multipartBody(t, 2, 2, map[string]string{"preview_mode": "false"})
	rec := postGenerate(srv, body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("expected Content-Type video/mp4, got %q", got)
	}
	if disposition := rec.Header().Get("Content-Disposition"); !strings.Contains(disposition, ".mp4") {
		t.Errorf("expected mp4 filename in Content-Disposition, got %q", disposition)
	}
	if got := rec.Body.String(); got != "mp4-bytes" {
		t.Errorf("expected rendered video bytes, got %q", got)
	}

	if len(rend.requests) != 1 {
		t.Fatalf("expected 1 render request, got %d", len(rend.requests))
	}
	req := rend.requests[0]
	if req.Resolution != renderer.FullResolution {
		t.Errorf("expected full resolution with preview_mode=false, got %v", req.Resolution)
	}
	if len(req.Slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(req.Slides))
	}
	if len(rend.missing) != 0 {
		t.Errorf("uploads missing on disk during render: %v", rend.missing)
	}

	assertUploadsCleaned(t, srv)
}

func TestGenerateDefaultsToPreview(t *testing.T) {
	rend := &fakeRenderer{}
	srv := newTestServer(t, rend)

	body, contentType := multipartBody(t, 1, 1, nil)
	rec := postGenerate(srv, body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(rend.requests) != 1 {
		t.Fatalf("expected 1 render request, got %d", len(rend.requests))
	}
	if got := rend.requests[0].Resolution; got != renderer.PreviewResolution {
		t.Errorf("expected preview resolution by default, got %v", got)
	}
}

func TestGenerateCountMismatch(t *testing.T) {
	rend := &fakeRenderer{}
	srv := newTestServer(t, rend)

	body, contentType := multipartBody(t, 2, 1, nil)
	rec := postGenerate(srv, body, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Status != "error" {
		t.Errorf("expected status error, got %q", resp.Status)
	}
	want := "number of images (2) must match number of audios (1)"
	if resp.Message != want {
		t.Errorf("expected message %q, got %q", want, resp.Message)
	}
	if len(rend.requests) != 0 {
		t.Errorf("expected no render on mismatch, got %d", len(rend.requests))
	}
}

func TestGenerateRejectsInvalidPreviewMode(t *testing.T) {
	rend := &fakeRenderer{}
	srv := newTestServer(t, rend)

	body, contentType := multipartBody(t, 1, 1, map[string]string{"preview_mode": "banana"})
	rec := postGenerate(srv, body, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeError(t, rec); !strings.Contains(resp.Message, "preview_mode") {
		t.Errorf("expected preview_mode in message, got %q", resp.Message)
	}
}

func TestGenerateRendererFailure(t *testing.T) {
	rend := &fakeRenderer{err: errors.New("ffmpeg exited with status 1")}
	srv := newTestServer(t, rend)

	body, contentType := multipartBody(t, 1, 1, nil)
	rec := postGenerate(srv, body, contentType)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Status != "error" {
		t.Errorf("expected status error, got %q", resp.Status)
	}
	if !strings.Contains(resp.Message, "ffmpeg") {
		t.Errorf("expected renderer error in message, got %q", resp.Message)
	}

	assertUploadsCleaned(t, srv)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeRenderer{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &fakeRenderer{})

	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("expected POST in allowed methods, got %q", got)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	srv := newTestServer(t, &fakeRenderer{})
	srv.limiter = ratelimit.NewInMemoryLimiter(1, time.Minute, 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		body, contentType := multipartBody(t, 2, 1, nil)
		last = postGenerate(srv, body, contentType)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last.Code)
	}
	if resp := decodeError(t, last); resp.Status != "error" {
		t.Errorf("expected status error, got %q", resp.Status)
	}
}
