package rendererimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/reelcraft/newsreel/internal/renderer"
)

type probeOutput struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (r *RendererImpl) Probe(ctx context.Context, path string) (renderer.AudioInfo, error) {
	out, err := r.Executor.Execute(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate:format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return renderer.AudioInfo{}, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var probed probeOutput
	if err := json.Unmarshal([]byte(out), &probed); err != nil {
		return renderer.AudioInfo{}, fmt.Errorf("failed to parse ffprobe output for %s: %w", path, err)
	}

	if len(probed.Streams) == 0 {
		return renderer.AudioInfo{}, fmt.Errorf("no audio stream in %s", path)
	}

	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return renderer.AudioInfo{}, fmt.Errorf("failed to parse duration %q for %s: %w", probed.Format.Duration, path, err)
	}
	if duration <= 0 {
		return renderer.AudioInfo{}, fmt.Errorf("audio file %s has non-positive duration %v", path, duration)
	}

	// sample_rate is optional in some containers; the renderer falls back to
	// 44100 when no input reports one.
	sampleRate := 0
	if sr := probed.Streams[0].SampleRate; sr != "" {
		sampleRate, err = strconv.Atoi(sr)
		if err != nil {
			return renderer.AudioInfo{}, fmt.Errorf("failed to parse sample rate %q for %s: %w", sr, path, err)
		}
	}

	return renderer.AudioInfo{Duration: duration, SampleRate: sampleRate}, nil
}
