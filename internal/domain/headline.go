package domain

type Headline struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	PhotoURL    string `json:"photo_url"`
	SourceURL   string `json:"source_url"`
	PublishedAt string `json:"published_datetime_utc"`
}
