package insights

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Summarizer asks an external text-generation service for a short digest of
// the aggregate state. Implementations must treat a missing credential the
// same as any other failure.
type Summarizer interface {
	Summarize(ctx context.Context, contextText, model string) (string, error)
}

const summarizeTimeout = 10 * time.Second

var _ Summarizer = (*GeminiSummarizer)(nil)

// GeminiSummarizer generates the narrative digest through the Gemini API.
type GeminiSummarizer struct{}

func NewGeminiSummarizer() *GeminiSummarizer {
	return &GeminiSummarizer{}
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, contextText, model string) (string, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GOOGLE_GEMINI_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}

	prompt := buildSummaryPrompt(contextText)
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	}
	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("summary response contained no text")
	}
	return text, nil
}

// buildSummaryPrompt wraps the aggregate context in the fixed instruction
// template. The response shape is pinned so the frontend can render it.
func buildSummaryPrompt(contextText string) string {
	return strings.Join([]string{
		"You are a concise weather assistant. Always follow the requested format.",
		"Generate a short, actionable summary about the weather and comfort of the monitored cities.",
		"Use the aggregated information: " + contextText,
		"ALWAYS answer in markdown, following exactly this standard format:",
		"## Quick overview",
		"- bullet 1 with an objective insight",
		"- bullet 2 with an objective insight",
		"- bullet 3 with an objective insight",
		"## Practical recommendations",
		"- 3 short bullets, imperative verbs (hydrate, avoid the sun, dress warmly etc.)",
		"## Alerts and notes",
		`- list risks/alerts; if there are none, write: "No critical alerts in the latest readings."`,
		"Clear and direct tone.",
	}, " ")
}
