package newswire

import (
	"context"

	"github.com/reelcraft/newsreel/internal/domain"
)

// Query narrows a headline fetch to one topic feed.
type Query struct {
	Topic   string
	Country string
	Lang    string
	Limit   int
}

type Client interface {
	FetchHeadlines(ctx context.Context, query Query) ([]domain.Headline, error)
	ExtractArticle(ctx context.Context, url string) (*domain.Article, error)
}
