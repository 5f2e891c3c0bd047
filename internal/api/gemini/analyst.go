// Package gemini asks a Gemini model for a week's picks.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/omarshaarawi/poolpicks/internal/config"
)

var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not set")

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Analyst struct {
	models generator
	model  string
}

func NewAnalyst(ctx context.Context, cfg config.GenAI) (*Analyst, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Analyst{models: client.Models, model: cfg.Model}, nil
}

func (a *Analyst) Name() string {
	return a.model
}

// Analyze sends the research prompt and returns the raw JSON text of the
// answer. Parsing happens at the pool boundary, not here.
func (a *Analyst) Analyze(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generating analysis: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generating analysis: empty response from %s", a.model)
	}

	slog.Info("Analysis received", "model", a.model, "bytes", len(text), "elapsed", time.Since(start).Round(time.Millisecond))
	return text, nil
}
