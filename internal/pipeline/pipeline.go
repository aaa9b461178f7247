package pipeline

import "context"

// Client runs the automated news-to-video workflow: pick an unrendered
// headline, plan its slides, generate the assets and render the video.
type Client interface {
	RunOnce(ctx context.Context) error
	ScheduleRuns(ctx context.Context) error
	ScheduleCleanup(ctx context.Context) error
}
