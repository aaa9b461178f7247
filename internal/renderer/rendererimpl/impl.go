package rendererimpl

import (
	"context"
	"fmt"
	"os"

	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/internal/video"
	pkgerrors "github.com/reelcraft/newsreel/pkg/errors"
	"github.com/reelcraft/newsreel/pkg/executor"
	"github.com/reelcraft/newsreel/pkg/formatter"
	"github.com/reelcraft/newsreel/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Executor executor.Executor
	Logger   logger.Logger
}

type RendererImpl struct {
	Executor executor.Executor
	Logger   logger.Logger
}

func New(opts Opts) *RendererImpl {
	return &RendererImpl{
		Executor: opts.Executor,
		Logger:   opts.Logger.WithComponent("Renderer"),
	}
}

var _ renderer.Client = (*RendererImpl)(nil)

// CheckBinaries fails when ffmpeg or ffprobe is not on PATH. Called once at
// startup so a misconfigured host fails fast instead of on the first job.
func (r *RendererImpl) CheckBinaries(_ context.Context) error {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := r.Executor.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %s", pkgerrors.ErrMissingBinary, bin)
		}
	}
	return nil
}

func (r *RendererImpl) Render(ctx context.Context, req renderer.Request) error {
	if len(req.Slides) == 0 {
		return fmt.Errorf("%w: no slides to render", pkgerrors.ErrInvalidInput)
	}
	if req.OutputPath == "" {
		return fmt.Errorf("%w: output path is empty", pkgerrors.ErrInvalidInput)
	}

	res := req.Resolution
	if res.Width <= 0 || res.Height <= 0 {
		res = renderer.PreviewResolution
	}
	fps := req.FPS
	if fps <= 0 {
		fps = renderer.DefaultFPS
	}

	for i, s := range req.Slides {
		if _, err := os.Stat(s.ImagePath); err != nil {
			return fmt.Errorf("%w: image file for slide %d: %s", pkgerrors.ErrInvalidInput, i, s.ImagePath)
		}
		if _, err := os.Stat(s.AudioPath); err != nil {
			return fmt.Errorf("%w: audio file for slide %d: %s", pkgerrors.ErrInvalidInput, i, s.AudioPath)
		}
	}

	durations := make([]float64, len(req.Slides))
	rates := make([]int, len(req.Slides))
	for i, s := range req.Slides {
		info, err := r.Probe(ctx, s.AudioPath)
		if err != nil {
			return err
		}
		durations[i] = info.Duration
		rates[i] = info.SampleRate
	}

	tl, err := video.Build(durations, req.TransitionSeconds)
	if err != nil {
		return err
	}

	sampleRate, mixed := pickSampleRate(rates)
	if mixed {
		r.Logger.Warn("Audio inputs use varying sample rates", "rates", rates, "using", sampleRate)
	}

	args := buildRenderArgs(req.Slides, tl, res, fps, sampleRate, req.OutputPath)

	r.Logger.Info("Rendering video",
		"slides", len(req.Slides),
		"resolution", res.String(),
		"duration_seconds", formatSeconds(tl.Total),
		"output", req.OutputPath,
	)

	if _, err := r.Executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg render failed: %w", err)
	}

	size := "unknown"
	if stat, err := os.Stat(req.OutputPath); err == nil {
		size = formatter.HumanBytes(stat.Size())
	}
	r.Logger.Info("Video rendered", "output", req.OutputPath, "size", size)
	return nil
}

// pickSampleRate returns the highest input rate, and whether the inputs
// disagreed. Falls back to 44100 when probing reported nothing usable.
func pickSampleRate(rates []int) (int, bool) {
	max := 0
	mixed := false
	for _, rate := range rates {
		if rate <= 0 {
			continue
		}
		if max != 0 && rate != max {
			mixed = true
		}
		if rate > max {
			max = rate
		}
	}
	if max == 0 {
		return 44100, false
	}
	return max, mixed
}
