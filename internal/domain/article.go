package domain

// Article is the extracted content of a news page as returned by the
// extraction API.
type Article struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Text        string   `json:"text"`
	Description string   `json:"description"`
	SiteName    string   `json:"siteName"`
	Date        string   `json:"date"`
	Keywords    []string `json:"keywords"`
	Summary     string   `json:"summary"`
}
