package studioimpl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reelcraft/newsreel/internal/domain"
	"github.com/reelcraft/newsreel/pkg/config"
	pkgerrors "github.com/reelcraft/newsreel/pkg/errors"
	"github.com/reelcraft/newsreel/pkg/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (l nopLogger) WithComponent(string) logger.Logger { return l }

func writePrompts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prompts := map[string]string{
		"storyboard_prompt.txt":     "Turn the article below into a slides JSON.",
		"image_subtitle_prompt.txt": `Add white subtitles with black border: "{title}". Put in the upper of image.`,
	}
	for name, content := range prompts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestStudio(t *testing.T, baseURL string) *StudioImpl {
	t.Helper()
	cfg := &config.Config{}
	cfg.Prompts.Dir = writePrompts(t)
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.ChatModel = "gpt-4.1"
	cfg.OpenAI.TTSModel = "tts-1"
	cfg.OpenAI.TTSVoice = "alloy"
	cfg.OpenAI.TTSSpeed = 1.2
	cfg.OpenAI.ImageModel = "dall-e-3"
	cfg.OpenAI.ImageSize = "1024x1792"

	s, err := New(Opts{Config: cfg, Logger: nopLogger{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if baseURL != "" {
		s.baseURL = baseURL
	}
	return s
}

func TestNewFailsWithoutPrompts(t *testing.T) {
	cfg := &config.Config{}
	cfg.Prompts.Dir = t.TempDir()

	if _, err := New(Opts{Config: cfg, Logger: nopLogger{}}); err == nil {
		t.Error("New() = nil error, want failure for missing prompt files")
	}
}

func TestGenerateStoryboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4.1" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("messages = %+v", req.Messages)
		}
		content := req.Messages[0].Content
		for _, want := range []string{"Turn the article below", "---------------", "https://example.it/a", "Il testo completo."} {
			if !strings.Contains(content, want) {
				t.Errorf("prompt missing %q", want)
			}
		}

		resp := map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": "```json\n{\"slides\":[{\"title\":\"Prima\",\"voiceOver\":\"Testo uno\",\"imgPrompt\":\"scena uno\"}]}\n```",
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s := newTestStudio(t, srv.URL)
	storyboard, err := s.GenerateStoryboard(context.Background(), &domain.Article{
		URL:   "https://example.it/a",
		Title: "Elezioni",
		Text:  "Il testo completo.",
	})
	if err != nil {
		t.Fatalf("GenerateStoryboard() error = %v", err)
	}
	if len(storyboard.Slides) != 1 {
		t.Fatalf("slides = %d, want 1", len(storyboard.Slides))
	}
	slide := storyboard.Slides[0]
	if slide.Title != "Prima" || slide.VoiceOver != "Testo uno" || slide.ImagePrompt != "scena uno" {
		t.Errorf("slide = %+v", slide)
	}
}

func TestGenerateStoryboardRejectsEmptyArticle(t *testing.T) {
	s := newTestStudio(t, "")

	_, err := s.GenerateStoryboard(context.Background(), &domain.Article{URL: "https://example.it/a"})
	if !errors.Is(err, pkgerrors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"slides":[]}`, want: `{"slides":[]}`},
		{name: "json fence", in: "```json\n{\"slides\":[]}\n```", want: `{"slides":[]}`},
		{name: "bare backticks", in: "`{\"slides\":[]}`", want: `{"slides":[]}`},
		{name: "leading whitespace", in: "  \n```json\n{}\n```", want: "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		want := speechRequest{Model: "tts-1", Input: "Buongiorno", Voice: "alloy", ResponseFormat: "mp3", Speed: 1.2}
		if req != want {
			t.Errorf("request = %+v, want %+v", req, want)
		}
		io.WriteString(w, "mp3-bytes")
	}))
	defer srv.Close()

	s := newTestStudio(t, srv.URL)
	audio, err := s.GenerateSpeech(context.Background(), "Buongiorno")
	if err != nil {
		t.Fatalf("GenerateSpeech() error = %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
}

func TestGenerateSpeechRejectsEmptyText(t *testing.T) {
	s := newTestStudio(t, "")

	_, err := s.GenerateSpeech(context.Background(), "   ")
	if !errors.Is(err, pkgerrors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestGenerateImage(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "dall-e-3" || req.N != 1 || req.Size != "1024x1792" ||
			req.ResponseFormat != "b64_json" || req.Quality != "standard" {
			t.Errorf("request = %+v", req)
		}
		if !strings.Contains(req.Prompt, "una piazza affollata") {
			t.Errorf("prompt missing scene description: %q", req.Prompt)
		}
		if !strings.Contains(req.Prompt, `"Elezioni"`) {
			t.Errorf("prompt missing title subtitle: %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(pngBytes)}},
		})
	}))
	defer srv.Close()

	s := newTestStudio(t, srv.URL)
	image, err := s.GenerateImage(context.Background(), "una piazza affollata", "Elezioni")
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if string(image) != string(pngBytes) {
		t.Errorf("image = %v, want %v", image, pngBytes)
	}
}

func TestGenerateImageRejectsEmptyPrompt(t *testing.T) {
	s := newTestStudio(t, "")

	_, err := s.GenerateImage(context.Background(), "", "Elezioni")
	if !errors.Is(err, pkgerrors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestImagePrompt(t *testing.T) {
	s := newTestStudio(t, "")

	got := s.ImagePrompt("una piazza affollata", "Elezioni")
	want := `una piazza affollata. Add white subtitles with black border: "Elezioni". Put in the upper of image.`
	if got != want {
		t.Errorf("ImagePrompt() = %q, want %q", got, want)
	}
}
