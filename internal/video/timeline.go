package video

import "fmt"

// Item is one slide's slot on the output timeline. Start is the moment the
// slide begins entering the frame; it stays visible for Duration seconds,
// which equals the length of its narration audio.
type Item struct {
	Start    float64
	Duration float64
}

// Timeline is the computed layout of all slides. Consecutive slides overlap:
// each one starts Transition seconds before the previous one's audio ends
// and slides in over that window.
type Timeline struct {
	Items      []Item
	Total      float64
	Transition float64
}

// Build lays out one item per duration. The first item starts at zero and
// each following item starts transition seconds before the previous item
// ends. The transition is clamped to the previous item's duration so start
// times never move backwards, however short the audio.
func Build(durations []float64, transition float64) (*Timeline, error) {
	if len(durations) == 0 {
		return nil, fmt.Errorf("no slides to lay out")
	}
	if transition < 0 {
		return nil, fmt.Errorf("transition must not be negative, got %v", transition)
	}

	items := make([]Item, len(durations))
	for i, d := range durations {
		if d <= 0 {
			return nil, fmt.Errorf("slide %d has non-positive duration %v", i, d)
		}
		items[i].Duration = d
	}

	for i := 1; i < len(items); i++ {
		overlap := transition
		if prev := items[i-1].Duration; overlap > prev {
			overlap = prev
		}
		items[i].Start = items[i-1].Start + items[i-1].Duration - overlap
	}

	last := items[len(items)-1]
	return &Timeline{
		Items:      items,
		Total:      last.Start + last.Duration,
		Transition: transition,
	}, nil
}

// End returns the moment item i leaves the frame.
func (t *Timeline) End(i int) float64 {
	return t.Items[i].Start + t.Items[i].Duration
}
