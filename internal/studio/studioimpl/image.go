package studioimpl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/reelcraft/newsreel/pkg/errors"
	"github.com/reelcraft/newsreel/pkg/retry"
)

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
	Quality        string `json:"quality"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage returns a portrait slide image as PNG bytes, with the slide
// title burned in as a subtitle.
func (s *StudioImpl) GenerateImage(ctx context.Context, imagePrompt, title string) ([]byte, error) {
	if strings.TrimSpace(imagePrompt) == "" {
		return nil, fmt.Errorf("%w: empty image prompt provided", pkgerrors.ErrInvalidInput)
	}

	fullPrompt := s.ImagePrompt(imagePrompt, title)
	s.logger.Info("Generating image", "prompt", truncate([]byte(imagePrompt), 100))

	payload, err := json.Marshal(imageRequest{
		Model:          s.imageModel,
		Prompt:         fullPrompt,
		N:              1,
		Size:           s.imageSize,
		ResponseFormat: "b64_json",
		Quality:        "standard",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image request: %w", err)
	}

	var body []byte
	operation := func() error {
		var opErr error
		body, opErr = s.post(ctx, "/v1/images/generations", payload)
		return opErr
	}
	if err := retry.Do(ctx, s.logger, "GenerateImage", operation, retry.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("could not generate image: %w", err)
	}

	var decoded imageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode image response: %w", err)
	}
	if len(decoded.Data) == 0 || decoded.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image response contains no data")
	}

	image, err := base64.StdEncoding.DecodeString(decoded.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	s.logger.Info("Image generated", "bytes", len(image))
	return image, nil
}

// ImagePrompt joins the scene description with the subtitle instructions
// that place the slide title inside the frame.
func (s *StudioImpl) ImagePrompt(imagePrompt, title string) string {
	return imagePrompt + ". " + strings.ReplaceAll(s.imageSubtitlePrompt, "{title}", title)
}
