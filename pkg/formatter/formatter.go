package formatter

import (
	"fmt"
	"strings"
	"time"
)

const slugMaxLen = 20

// HeadlineSlug reduces a headline to ASCII letters only, truncated to 20
// characters. The slug keys the render history, so two runs of the same
// story map to the same record.
func HeadlineSlug(headline string) string {
	var sb strings.Builder
	for _, r := range headline {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			sb.WriteRune(r)
			if sb.Len() == slugMaxLen {
				break
			}
		}
	}
	return sb.String()
}

// OutputName builds the output video filename: a timestamp plus the headline
// slug, or "video" when the slug comes out empty.
func OutputName(t time.Time, slug string) string {
	timestamp := t.Format("20060102_150405")
	if slug == "" {
		return timestamp + "_video.mp4"
	}
	return fmt.Sprintf("%s_%s.mp4", timestamp, slug)
}

// HumanBytes renders a byte count for log lines. Example: 1536 -> "1.5 KB"
func HumanBytes(n int64) string {
	const unit = int64(1024)
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// EscapeMarkdownV2 escapes special characters in Markdown V2 format
func EscapeMarkdownV2(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			sb.WriteRune('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
