package domain

import "time"

// Render is the persisted record of a produced video. Slug is the
// letters-only form of the headline and is what the pipeline checks to avoid
// rendering the same story twice.
type Render struct {
	ID         int
	Slug       string
	Headline   string
	SourceURL  string
	OutputPath string
	Width      int
	Height     int
	SlideCount int
	CreatedAt  time.Time
}
