package studioimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/reelcraft/newsreel/pkg/errors"
	"github.com/reelcraft/newsreel/pkg/retry"
)

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// GenerateSpeech returns the narration for text as MP3 bytes.
func (s *StudioImpl) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text provided for speech generation", pkgerrors.ErrInvalidInput)
	}

	s.logger.Info("Generating speech", "text", truncate([]byte(text), 50))

	payload, err := json.Marshal(speechRequest{
		Model:          s.ttsModel,
		Input:          text,
		Voice:          s.ttsVoice,
		ResponseFormat: "mp3",
		Speed:          s.ttsSpeed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode speech request: %w", err)
	}

	var body []byte
	operation := func() error {
		var opErr error
		body, opErr = s.post(ctx, "/v1/audio/speech", payload)
		return opErr
	}
	if err := retry.Do(ctx, s.logger, "GenerateSpeech", operation, retry.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("could not generate speech: %w", err)
	}

	s.logger.Info("Speech generated", "bytes", len(body))
	return body, nil
}
