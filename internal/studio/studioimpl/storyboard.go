package studioimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reelcraft/newsreel/internal/domain"
	pkgerrors "github.com/reelcraft/newsreel/pkg/errors"
	"github.com/reelcraft/newsreel/pkg/retry"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *StudioImpl) GenerateStoryboard(ctx context.Context, article *domain.Article) (*domain.Storyboard, error) {
	if article == nil || strings.TrimSpace(article.Text) == "" {
		return nil, fmt.Errorf("%w: article has no text to summarize", pkgerrors.ErrInvalidInput)
	}

	s.logger.Info("Generating storyboard", "url", article.URL, "title", article.Title)

	payload, err := json.Marshal(chatRequest{
		Model:    s.chatModel,
		Messages: []chatMessage{{Role: "user", Content: s.storyboardPromptFor(article)}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	var body []byte
	operation := func() error {
		var opErr error
		body, opErr = s.post(ctx, "/v1/chat/completions", payload)
		return opErr
	}
	if err := retry.Do(ctx, s.logger, "GenerateStoryboard", operation, retry.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("could not generate storyboard: %w", err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("chat response contains no choices")
	}

	content := stripCodeFence(decoded.Choices[0].Message.Content)

	var storyboard domain.Storyboard
	if err := json.Unmarshal([]byte(content), &storyboard); err != nil {
		return nil, fmt.Errorf("failed to parse storyboard JSON: %w", err)
	}
	if len(storyboard.Slides) == 0 {
		return nil, fmt.Errorf("storyboard contains no slides")
	}

	s.logger.Info("Storyboard generated", "slides", len(storyboard.Slides))
	return &storyboard, nil
}

// storyboardPromptFor appends the article fields to the prompt template, one
// field per line under a separator, matching what the template instructs the
// model to read.
func (s *StudioImpl) storyboardPromptFor(article *domain.Article) string {
	block := strings.Join([]string{
		"",
		"---------------",
		article.URL,
		article.Title,
		article.Author,
		article.Text,
		article.Description,
		article.SiteName,
		article.Date,
		strings.Join(article.Keywords, ","),
		article.Summary,
		"",
	}, "\n")
	return s.storyboardPrompt + "\n\n" + block
}

// stripCodeFence removes the markdown fences models wrap JSON in despite
// instructions not to.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "```json"):
		trimmed = strings.ReplaceAll(trimmed, "```json", "")
		trimmed = strings.ReplaceAll(trimmed, "```", "")
	case strings.HasPrefix(trimmed, "`"):
		trimmed = strings.Trim(trimmed, "`")
	}
	return strings.TrimSpace(trimmed)
}
