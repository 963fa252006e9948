package predict

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/models"
)

// Direction scores assigned to the model's verdict. An uncertain answer is
// treated as neutral rather than an error.
const (
	bullishScore = 0.6
	bearishScore = -0.6
)

const llmSystemPrompt = `You are a market direction classifier. Given recent OHLCV data,
answer with exactly one word: bullish, bearish, or neutral.`

// LLMScorer asks a chat completion model for a directional call on recent
// market data and maps the verdict onto the score range.
type LLMScorer struct {
	client *openai.Client
	model  string
	window int
}

// NewLLMScorer creates an LLM-backed score provider.
func NewLLMScorer(apiKey, model string) *LLMScorer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &LLMScorer{
		client: openai.NewClient(apiKey),
		model:  model,
		window: 20,
	}
}

// Score asks the model whether the short-term outlook is bullish or bearish.
func (s *LLMScorer) Score(ctx context.Context, candles []models.Candle) (float64, error) {
	if len(candles) == 0 {
		return 0, errors.NewInvalidInputError("candles", 0, "no history to score")
	}
	if len(candles) > s.window {
		candles = candles[len(candles)-s.window:]
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.1,
		MaxTokens:   5,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: formatCandles(candles)},
		},
	})
	if err != nil {
		return 0, errors.NewProviderError("openai", "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return 0, errors.NewProviderError("openai", "chat completion",
			fmt.Errorf("empty response"))
	}

	answer := strings.ToLower(resp.Choices[0].Message.Content)
	switch {
	case strings.Contains(answer, "bullish"):
		return bullishScore, nil
	case strings.Contains(answer, "bearish"):
		return bearishScore, nil
	default:
		return NeutralScore, nil
	}
}

func formatCandles(candles []models.Candle) string {
	var sb strings.Builder
	sb.WriteString("time,open,high,low,close,volume\n")
	for _, c := range candles {
		sb.WriteString(fmt.Sprintf("%s,%.4f,%.4f,%.4f,%.4f,%.0f\n",
			c.Timestamp.Format("2006-01-02T15:04"), c.Open, c.High, c.Low, c.Close, c.Volume))
	}
	sb.WriteString("\nIs the short-term outlook bullish or bearish?")
	return sb.String()
}
