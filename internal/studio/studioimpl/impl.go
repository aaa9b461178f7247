package studioimpl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelcraft/newsreel/internal/studio"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
	"github.com/reelcraft/newsreel/pkg/retry"
	"go.uber.org/fx"
)

const defaultBaseURL = "https://api.openai.com"

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type StudioImpl struct {
	apiKey     string
	chatModel  string
	ttsModel   string
	ttsVoice   string
	ttsSpeed   float64
	imageModel string
	imageSize  string

	httpClient *http.Client
	baseURL    string
	logger     logger.Logger

	storyboardPrompt    string
	imageSubtitlePrompt string
}

func New(opts Opts) (*StudioImpl, error) {
	storyboardPrompt, err := loadPrompt(opts.Config.Prompts.Dir, "storyboard_prompt.txt")
	if err != nil {
		return nil, err
	}
	imageSubtitlePrompt, err := loadPrompt(opts.Config.Prompts.Dir, "image_subtitle_prompt.txt")
	if err != nil {
		return nil, err
	}

	return &StudioImpl{
		apiKey:              opts.Config.OpenAI.APIKey,
		chatModel:           opts.Config.OpenAI.ChatModel,
		ttsModel:            opts.Config.OpenAI.TTSModel,
		ttsVoice:            opts.Config.OpenAI.TTSVoice,
		ttsSpeed:            opts.Config.OpenAI.TTSSpeed,
		imageModel:          opts.Config.OpenAI.ImageModel,
		imageSize:           opts.Config.OpenAI.ImageSize,
		httpClient:          &http.Client{Timeout: 2 * time.Minute},
		baseURL:             defaultBaseURL,
		logger:              opts.Logger.WithComponent("Studio"),
		storyboardPrompt:    storyboardPrompt,
		imageSubtitlePrompt: imageSubtitlePrompt,
	}, nil
}

var _ studio.Client = (*StudioImpl)(nil)

func loadPrompt(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// post sends an authenticated JSON request and returns the raw response
// body. Client errors are permanent, the prompt or payload has to change
// before a repeat can succeed.
func (s *StudioImpl) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request for %s: %w", path, err))
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("server error from %s: status %d", path, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, retry.Permanent(fmt.Errorf("request to %s rejected: status %d: %s", path, resp.StatusCode, truncate(body, 300)))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
