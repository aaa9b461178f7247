package rendererimpl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/reelcraft/newsreel/internal/domain"
	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/internal/video"
)

// buildRenderArgs assembles the single ffmpeg invocation that composes the
// whole video: a black canvas for the full duration, every image scaled to
// the canvas height and overlaid at its timeline slot, and all narration
// tracks delayed to their start times and mixed together.
func buildRenderArgs(slides []domain.Slide, tl *video.Timeline, res renderer.Resolution, fps, sampleRate int, outputPath string) []string {
	n := len(slides)
	args := []string{"-y"}

	// Inputs 0..n-1: looped stills, each alive exactly as long as its slot.
	for i, s := range slides {
		args = append(args, "-loop", "1", "-t", formatSeconds(tl.Items[i].Duration), "-i", s.ImagePath)
	}
	// Inputs n..2n-1: narration audio.
	for _, s := range slides {
		args = append(args, "-i", s.AudioPath)
	}

	var fc []string
	fc = append(fc, fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s[base]",
		res.Width, res.Height, fps, formatSeconds(tl.Total)))

	// Scale each image to the canvas height (aspect preserved, even width)
	// and shift its frames to the slide's start time.
	for i := range slides {
		fc = append(fc, fmt.Sprintf("[%d:v]scale=-2:%d,setsar=1,setpts=PTS-STARTPTS+%s/TB[img%d]",
			i, res.Height, formatSeconds(tl.Items[i].Start), i))
	}

	// Overlay chain. Later slides stack on top of earlier ones, so a slide
	// entering the frame covers the one still finishing underneath it.
	prev := "[base]"
	for i := range slides {
		item := tl.Items[i]
		x := "(W-w)/2"
		if i > 0 {
			x = slideInX(item.Start, item.Duration, tl.Transition)
		}
		out := fmt.Sprintf("[v%d]", i)
		fc = append(fc, fmt.Sprintf("%s[img%d]overlay=x=%s:y=(H-h)/2:eof_action=pass:enable='between(t,%s,%s)'%s",
			prev, i, x, formatSeconds(item.Start), formatSeconds(tl.End(i)), out))
		prev = out
	}

	// Delay each narration track to its slide's start, then mix. normalize=0
	// keeps original volumes; tracks only overlap during transitions.
	for i := range slides {
		delay := int(math.Round(tl.Items[i].Start * 1000))
		fc = append(fc, fmt.Sprintf("[%d:a]adelay=%d|%d[a%d]", n+i, delay, delay, i))
	}
	var mixInputs strings.Builder
	for i := range slides {
		mixInputs.WriteString(fmt.Sprintf("[a%d]", i))
	}
	fc = append(fc, fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[aout]",
		mixInputs.String(), n))

	args = append(args, "-filter_complex", strings.Join(fc, ";"))
	args = append(args,
		"-map", prev,
		"-map", "[aout]",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(fps),
		"-c:a", "aac",
		"-ar", strconv.Itoa(sampleRate),
		"-movflags", "+faststart",
		"-t", formatSeconds(tl.Total),
		outputPath,
	)
	return args
}

// slideInX builds the overlay x expression: the image starts off-screen at
// the right edge and reaches the horizontal center after the transition
// window, then holds. The window never outlives the slide itself.
func slideInX(start, duration, transition float64) string {
	td := transition
	if td > duration {
		td = duration
	}
	if td <= 0 {
		return "(W-w)/2"
	}
	s := formatSeconds(start)
	t := formatSeconds(td)
	return fmt.Sprintf("'if(lt(t-%s,%s),W-(t-%s)/%s*(W-(W-w)/2),(W-w)/2)'", s, t, s, t)
}

// formatSeconds renders a time with fixed precision so identical requests
// produce identical command lines.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
