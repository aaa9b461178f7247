package pipelineimpl

import (
	"github.com/reelcraft/newsreel/internal/cache"
	"github.com/reelcraft/newsreel/internal/newswire"
	"github.com/reelcraft/newsreel/internal/pipeline"
	"github.com/reelcraft/newsreel/internal/publisher"
	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/internal/repositories/render"
	"github.com/reelcraft/newsreel/internal/studio"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Newswire   newswire.Client
	Studio     studio.Client
	Renderer   renderer.Client
	RenderRepo render.Repository
	Cache      *cache.Cache
	Publisher  publisher.Client
	Logger     logger.Logger
	Config     *config.Config
}

type PipelineImpl struct {
	Newswire   newswire.Client
	Studio     studio.Client
	Renderer   renderer.Client
	RenderRepo render.Repository
	Cache      *cache.Cache
	Publisher  publisher.Client
	Logger     logger.Logger
	Config     *config.Config
}

func New(opts Opts) *PipelineImpl {
	return &PipelineImpl{
		Newswire:   opts.Newswire,
		Studio:     opts.Studio,
		Renderer:   opts.Renderer,
		RenderRepo: opts.RenderRepo,
		Cache:      opts.Cache,
		Publisher:  opts.Publisher,
		Logger:     opts.Logger.WithComponent("Pipeline"),
		Config:     opts.Config,
	}
}

var _ pipeline.Client = (*PipelineImpl)(nil)
