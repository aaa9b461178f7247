package pipelineimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelcraft/newsreel/internal/domain"
	"github.com/reelcraft/newsreel/internal/newswire"
	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/internal/repositories/render"
	"github.com/reelcraft/newsreel/pkg/formatter"
)

// RunOnce walks the current headlines, picks the first one without an
// existing video and carries it through extraction, storyboard, assets and
// rendering. One run produces at most one video.
func (p *PipelineImpl) RunOnce(ctx context.Context) error {
	p.Logger.Info("Starting pipeline run")

	headlines, err := p.getOrFetchHeadlines(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch headlines: %w", err)
	}
	if len(headlines) == 0 {
		return fmt.Errorf("no headlines available")
	}

	if err := os.MkdirAll(p.Config.Video.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	attempted := 0
	for i, headline := range headlines {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.Logger.Info("Checking headline", "index", i+1, "total", len(headlines), "title", headline.Title)

		slug := formatter.HeadlineSlug(headline.Title)
		if slug == "" {
			p.Logger.Warn("Headline has no usable title, skipping", "index", i+1)
			continue
		}

		rendered, err := p.alreadyRendered(ctx, slug)
		if err != nil {
			return fmt.Errorf("failed to check existing renders: %w", err)
		}
		if rendered {
			p.Logger.Info("Video already exists for headline", "slug", slug)
			continue
		}

		p.Logger.Info("Selected headline for processing", "title", headline.Title)
		attempted++

		outputPath, slideCount, err := p.produceVideo(ctx, headline, slug)
		if err != nil {
			p.Logger.Error("Failed to produce video, trying next headline", "title", headline.Title, "error", err)
			continue
		}

		p.recordRender(ctx, headline, slug, outputPath, slideCount)
		p.publish(headline, outputPath)

		p.Logger.Info("Pipeline run completed", "output", outputPath)
		return nil
	}

	if attempted == 0 {
		p.Logger.Info("All headlines already have videos")
		return nil
	}
	return fmt.Errorf("no video produced after %d attempted headlines", attempted)
}

func (p *PipelineImpl) alreadyRendered(ctx context.Context, slug string) (bool, error) {
	_, err := p.RenderRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, render.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *PipelineImpl) produceVideo(ctx context.Context, headline domain.Headline, slug string) (string, int, error) {
	article, err := p.getOrExtractArticle(ctx, headline.Link)
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract article: %w", err)
	}
	if strings.TrimSpace(article.Text) == "" {
		return "", 0, fmt.Errorf("extracted article has no text")
	}

	storyboard, err := p.getOrGenerateStoryboard(ctx, article)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate storyboard: %w", err)
	}
	p.Logger.Info("Storyboard ready", "slides", len(storyboard.Slides))

	slides, err := p.generateAssets(ctx, article, storyboard)
	if err != nil {
		return "", 0, err
	}

	outputPath := filepath.Join(p.Config.Video.OutputDir, formatter.OutputName(time.Now(), slug))

	p.Logger.Info("All assets ready, starting final video assembly", "output", outputPath)
	err = p.Renderer.Render(ctx, renderer.Request{
		Slides:            slides,
		Resolution:        renderer.FullResolution,
		TransitionSeconds: p.Config.Video.TransitionSeconds,
		FPS:               p.Config.Video.FPS,
		OutputPath:        outputPath,
	})
	if err != nil {
		return "", 0, fmt.Errorf("video assembly failed: %w", err)
	}

	return outputPath, len(slides), nil
}

// recordRender persists the produced video so later runs skip this headline.
// A failure here is logged, not fatal, the video itself is already on disk.
func (p *PipelineImpl) recordRender(ctx context.Context, headline domain.Headline, slug, outputPath string, slideCount int) {
	err := p.RenderRepo.Create(ctx, domain.Render{
		Slug:       slug,
		Headline:   headline.Title,
		SourceURL:  headline.Link,
		OutputPath: outputPath,
		Width:      renderer.FullResolution.Width,
		Height:     renderer.FullResolution.Height,
		SlideCount: slideCount,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		if errors.Is(err, render.ErrAlreadyExists) {
			p.Logger.Warn("Render record already exists", "slug", slug)
			return
		}
		p.Logger.Error("Failed to record render", "slug", slug, "error", err)
	}
}

func (p *PipelineImpl) publish(headline domain.Headline, outputPath string) {
	caption := fmt.Sprintf("*%s*\n\n%s",
		formatter.EscapeMarkdownV2(headline.Title),
		formatter.EscapeMarkdownV2(headline.Link),
	)
	if err := p.Publisher.PublishVideo(outputPath, caption); err != nil {
		p.Logger.Error("Failed to publish video", "output", outputPath, "error", err)
	}
}

func (p *PipelineImpl) getOrFetchHeadlines(ctx context.Context) ([]domain.Headline, error) {
	query := newswire.Query{
		Topic:   p.Config.Newswire.Topic,
		Country: p.Config.Newswire.Country,
		Lang:    p.Config.Newswire.Lang,
		Limit:   p.Config.Newswire.Limit,
	}
	cacheKey := fmt.Sprintf("%s-%s-%s-%d", query.Topic, query.Country, query.Lang, query.Limit)

	if data, ok := p.Cache.Headlines(cacheKey); ok {
		var headlines []domain.Headline
		if err := json.Unmarshal(data, &headlines); err == nil {
			p.Logger.Info("Using cached headlines", "topic", query.Topic, "country", query.Country, "lang", query.Lang)
			return headlines, nil
		}
		p.Logger.Warn("Failed to decode cached headlines, refetching", "key", cacheKey)
	}

	headlines, err := p.Newswire.FetchHeadlines(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(headlines) > 0 {
		if data, err := json.Marshal(headlines); err == nil {
			if err := p.Cache.SaveHeadlines(cacheKey, data); err != nil {
				p.Logger.Warn("Failed to cache headlines", "error", err)
			}
		}
	}
	return headlines, nil
}

func (p *PipelineImpl) getOrExtractArticle(ctx context.Context, url string) (*domain.Article, error) {
	if data, ok := p.Cache.Article(url); ok {
		var article domain.Article
		if err := json.Unmarshal(data, &article); err == nil {
			p.Logger.Info("Using cached article", "url", url)
			return &article, nil
		}
		p.Logger.Warn("Failed to decode cached article, re-extracting", "url", url)
	}

	article, err := p.Newswire.ExtractArticle(ctx, url)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(article); err == nil {
		if err := p.Cache.SaveArticle(url, data); err != nil {
			p.Logger.Warn("Failed to cache article", "url", url, "error", err)
		}
	}
	return article, nil
}

func (p *PipelineImpl) getOrGenerateStoryboard(ctx context.Context, article *domain.Article) (*domain.Storyboard, error) {
	if data, ok := p.Cache.Storyboard(article.URL); ok {
		var storyboard domain.Storyboard
		if err := json.Unmarshal(data, &storyboard); err == nil && len(storyboard.Slides) > 0 {
			p.Logger.Info("Using cached storyboard", "url", article.URL)
			return &storyboard, nil
		}
		p.Logger.Warn("Cached storyboard is unusable, regenerating", "url", article.URL)
	}

	storyboard, err := p.Studio.GenerateStoryboard(ctx, article)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(storyboard); err == nil {
		if err := p.Cache.SaveStoryboard(article.URL, data); err != nil {
			p.Logger.Warn("Failed to cache storyboard", "url", article.URL, "error", err)
		}
	}
	return storyboard, nil
}
