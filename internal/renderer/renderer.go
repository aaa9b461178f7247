package renderer

import (
	"context"
	"fmt"

	"github.com/reelcraft/newsreel/internal/domain"
)

const (
	DefaultFPS               = 30
	DefaultTransitionSeconds = 0.5
)

type Resolution struct {
	Width  int
	Height int
}

var (
	// FullResolution is the vertical 9:16 output used for published videos.
	FullResolution = Resolution{Width: 1080, Height: 1920}
	// PreviewResolution trades quality for encode speed.
	PreviewResolution = Resolution{Width: 360, Height: 640}
)

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// AudioInfo is what Probe reports about a narration file.
type AudioInfo struct {
	Duration   float64
	SampleRate int
}

// Request describes one composition job. Slides play in slice order; each
// stays on screen for the length of its audio and the next one slides in
// from the right over the transition window.
type Request struct {
	Slides            []domain.Slide
	Resolution        Resolution
	TransitionSeconds float64
	FPS               int
	OutputPath        string
}

type Client interface {
	// CheckBinaries verifies ffmpeg and ffprobe are installed.
	CheckBinaries(ctx context.Context) error
	// Probe reads duration and sample rate from an audio file.
	Probe(ctx context.Context, path string) (AudioInfo, error)
	// Render composes the slides into an MP4 at req.OutputPath.
	Render(ctx context.Context, req Request) error
}
