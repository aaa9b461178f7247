package studio

import (
	"context"

	"github.com/reelcraft/newsreel/internal/domain"
)

// Client generates the creative assets of a video: the storyboard plan, the
// narration audio and the slide images.
type Client interface {
	GenerateStoryboard(ctx context.Context, article *domain.Article) (*domain.Storyboard, error)
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
	GenerateImage(ctx context.Context, imagePrompt, title string) ([]byte, error)

	// ImagePrompt returns the full prompt sent for a slide image, including
	// the subtitle instructions. Callers key caches on it so a hit always
	// matches what would have been requested.
	ImagePrompt(imagePrompt, title string) string
}
