package newswireimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/reelcraft/newsreel/internal/domain"
	"github.com/reelcraft/newsreel/internal/newswire"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
	"github.com/reelcraft/newsreel/pkg/retry"
	"go.uber.org/fx"
)

const (
	headlinesURL  = "https://real-time-news-data.p.rapidapi.com/topic-headlines"
	headlinesHost = "real-time-news-data.p.rapidapi.com"
	extractURL    = "https://news-article-data-extract-and-summarization1.p.rapidapi.com/extract"
	extractHost   = "news-article-data-extract-and-summarization1.p.rapidapi.com"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type NewswireImpl struct {
	apiKey       string
	httpClient   *http.Client
	headlinesURL string
	extractURL   string
	logger       logger.Logger
}

func New(opts Opts) *NewswireImpl {
	return &NewswireImpl{
		apiKey:       opts.Config.Newswire.APIKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		headlinesURL: headlinesURL,
		extractURL:   extractURL,
		logger:       opts.Logger.WithComponent("Newswire"),
	}
}

var _ newswire.Client = (*NewswireImpl)(nil)

func (n *NewswireImpl) FetchHeadlines(ctx context.Context, query newswire.Query) ([]domain.Headline, error) {
	n.logger.Info("Fetching headlines", "topic", query.Topic, "country", query.Country, "lang", query.Lang)

	var envelope struct {
		Data []domain.Headline `json:"data"`
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.headlinesURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to build headlines request: %w", err))
		}
		q := req.URL.Query()
		q.Set("topic", query.Topic)
		q.Set("limit", strconv.Itoa(query.Limit))
		q.Set("country", query.Country)
		q.Set("lang", query.Lang)
		req.URL.RawQuery = q.Encode()
		req.Header.Set("x-rapidapi-host", headlinesHost)
		req.Header.Set("x-rapidapi-key", n.apiKey)

		body, err := n.do(req)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode headlines response: %w", err))
		}
		return nil
	}

	if err := retry.Do(ctx, n.logger, "FetchHeadlines", operation, retry.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("could not fetch headlines: %w", err)
	}

	n.logger.Info("Retrieved headlines", "count", len(envelope.Data))
	return envelope.Data, nil
}

func (n *NewswireImpl) ExtractArticle(ctx context.Context, url string) (*domain.Article, error) {
	n.logger.Info("Extracting article", "url", url)

	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, fmt.Errorf("failed to encode extract payload: %w", err)
	}

	var article domain.Article
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.extractURL, bytes.NewReader(payload))
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to build extract request: %w", err))
		}
		req.Header.Set("x-rapidapi-host", extractHost)
		req.Header.Set("x-rapidapi-key", n.apiKey)
		req.Header.Set("Content-Type", "application/json")

		body, err := n.do(req)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &article); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode extract response: %w", err))
		}
		return nil
	}

	if err := retry.Do(ctx, n.logger, "ExtractArticle", operation, retry.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("could not extract article: %w", err)
	}

	n.logger.Info("Article extraction completed", "url", url, "title", article.Title)
	return &article, nil
}

// do runs the request and returns the response body. Client errors are
// permanent because repeating the same rejected request cannot succeed.
func (n *NewswireImpl) do(req *http.Request) ([]byte, error) {
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, retry.Permanent(fmt.Errorf("request rejected: status %d: %s", resp.StatusCode, truncate(body, 200)))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
