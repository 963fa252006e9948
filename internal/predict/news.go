package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hybrid-trader/internal/errors"
)

const newsEndpoint = "https://newsapi.org/v2/everything"

// Keyword hit weight on the [-1, 1] score scale.
const keywordWeight = 0.06

var positiveWords = []string{
	"gain", "bullish", "up", "high", "profit", "good", "strong",
	"growth", "rise", "positive", "success",
}

var negativeWords = []string{
	"loss", "bearish", "down", "low", "bad", "risk", "weak",
	"decline", "fall", "negative", "failure",
}

// NewsScorer derives a sentiment score from recent headlines via keyword
// counting. Calls are rate limited; NewsAPI's free tier allows well under
// one request per second.
type NewsScorer struct {
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	pageSize int
}

// NewNewsScorer creates a NewsAPI-backed sentiment provider.
func NewNewsScorer(apiKey string) *NewsScorer {
	return &NewsScorer{
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 1),
		pageSize: 20,
	}
}

type newsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type newsResponse struct {
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Articles []newsArticle `json:"articles"`
}

// Sentiment fetches recent articles for the query and scores them by
// keyword balance, clamped to [-1, 1]. A missing API key degrades to a
// neutral score instead of failing the cycle.
func (s *NewsScorer) Sentiment(ctx context.Context, query string) (float64, error) {
	if s.apiKey == "" {
		return NeutralScore, nil
	}
	if query == "" {
		query = "finance OR stock OR market"
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	articles, err := s.fetch(ctx, query)
	if err != nil {
		return 0, err
	}

	score := 0.0
	for _, a := range articles {
		content := strings.ToLower(a.Title + " " + a.Description)
		for _, w := range positiveWords {
			if strings.Contains(content, w) {
				score += keywordWeight
			}
		}
		for _, w := range negativeWords {
			if strings.Contains(content, w) {
				score -= keywordWeight
			}
		}
	}
	return ClampScore(score), nil
}

func (s *NewsScorer) fetch(ctx context.Context, query string) ([]newsArticle, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprintf("%d", s.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.NewProviderError("newsapi", "build request", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderError("newsapi", "fetch articles", err)
	}
	defer resp.Body.Close()

	var body newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.NewProviderError("newsapi", "decode response", err)
	}
	if body.Status != "ok" {
		return nil, errors.NewProviderError("newsapi", "fetch articles",
			fmt.Errorf("status %s: %s", body.Status, body.Message))
	}
	return body.Articles, nil
}
