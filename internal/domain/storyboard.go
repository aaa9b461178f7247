package domain

// StoryboardSlide is one planned scene: what the narrator says, what the
// image should show and the caption burned into it.
type StoryboardSlide struct {
	Title       string `json:"title"`
	VoiceOver   string `json:"voiceOver"`
	ImagePrompt string `json:"imgPrompt"`
}

// Storyboard is the generated plan for one article's video.
type Storyboard struct {
	Slides []StoryboardSlide `json:"slides"`
}
