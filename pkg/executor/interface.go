package executor

import "context"

// Executor runs external commands. The renderer depends on this interface so
// command construction can be tested without ffmpeg installed.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	LookPath(name string) (string, error)
}
