package pipelineimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/reelcraft/newsreel/internal/domain"
)

// generateAssets produces the narration clip and slide image for every
// storyboard slide, fanned out over a worker pool. Submissions are staggered
// to stay under the generation API rate limits.
func (p *PipelineImpl) generateAssets(ctx context.Context, article *domain.Article, storyboard *domain.Storyboard) ([]domain.Slide, error) {
	slides := make([]domain.Slide, len(storyboard.Slides))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	imageFailed := false

	pool, err := ants.NewPool(p.Config.Pipeline.Workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	p.Logger.Info("Starting parallel speech and image generation", "slides", len(storyboard.Slides), "workers", p.Config.Pipeline.Workers)

	submit := func(task func()) {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			task()
		}); err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("failed to submit job to ants pool: %w", err))
			mu.Unlock()
		}
	}

	for i, slide := range storyboard.Slides {
		idx, s := i, slide

		submit(func() {
			select {
			case <-ctx.Done():
				p.Logger.Info("Skipping speech job due to context cancellation", "slide", idx)
			default:
				path, err := p.getOrGenerateSpeech(ctx, s.VoiceOver, idx)
				mu.Lock()
				if err != nil {
					errs = append(errs, fmt.Errorf("speech for slide %d: %w", idx, err))
				} else {
					slides[idx].AudioPath = path
				}
				mu.Unlock()
			}
		})
		time.Sleep(500 * time.Millisecond)

		submit(func() {
			select {
			case <-ctx.Done():
				p.Logger.Info("Skipping image job due to context cancellation", "slide", idx)
			default:
				path, err := p.getOrGenerateImage(ctx, s.ImagePrompt, s.Title, idx)
				mu.Lock()
				if err != nil {
					errs = append(errs, fmt.Errorf("image for slide %d: %w", idx, err))
					imageFailed = true
				} else {
					slides[idx].ImagePath = path
				}
				mu.Unlock()
			}
		})
		time.Sleep(500 * time.Millisecond)
	}

	wg.Wait()

	// A failed image usually means the storyboard asked for something the
	// image API rejects. Drop the cached storyboard so the next run plans
	// the article from scratch instead of replaying the same failure.
	if imageFailed {
		p.Logger.Warn("At least one image generation failed, invalidating cached storyboard", "url", article.URL)
		if err := p.Cache.DeleteStoryboard(article.URL); err != nil {
			p.Logger.Error("Failed to invalidate storyboard cache", "url", article.URL, "error", err)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("encountered %d errors during asset generation, first error: %w", len(errs), errs[0])
	}

	for i, s := range slides {
		if s.ImagePath == "" || s.AudioPath == "" {
			return nil, fmt.Errorf("missing assets for slide %d", i)
		}
	}

	return slides, nil
}

func (p *PipelineImpl) getOrGenerateSpeech(ctx context.Context, text string, idx int) (string, error) {
	if path, ok := p.Cache.Speech(text); ok {
		p.Logger.Info("Using cached speech", "slide", idx)
		return path, nil
	}

	audio, err := p.Studio.GenerateSpeech(ctx, text)
	if err != nil {
		return "", err
	}
	return p.Cache.SaveSpeech(text, audio)
}

func (p *PipelineImpl) getOrGenerateImage(ctx context.Context, imagePrompt, title string, idx int) (string, error) {
	fullPrompt := p.Studio.ImagePrompt(imagePrompt, title)

	if path, ok := p.Cache.Image(fullPrompt); ok {
		p.Logger.Info("Using cached image", "slide", idx)
		return path, nil
	}

	image, err := p.Studio.GenerateImage(ctx, imagePrompt, title)
	if err != nil {
		if delErr := p.Cache.DeleteImage(fullPrompt); delErr != nil {
			p.Logger.Warn("Failed to drop image cache entry", "slide", idx, "error", delErr)
		}
		return "", err
	}
	return p.Cache.SaveImage(fullPrompt, image)
}
