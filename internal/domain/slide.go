package domain

// Slide pairs a still image with the narration audio that plays while the
// image is on screen. Slice order is playback order.
type Slide struct {
	ImagePath string
	AudioPath string
}
