// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gen

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/pdiddy/websight/pkg/types"
)

// Gemini generates text through the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed generator from the AI configuration.
func NewGemini(ctx context.Context, cfg types.AIConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating generation client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &Gemini{client: client, model: model}, nil
}

// Generate sends the prompt and returns the concatenated response text.
// A low temperature keeps structured-extraction output stable.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.1),
		},
	)
	if err != nil {
		return "", &ProviderError{Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &ProviderError{Err: fmt.Errorf("empty response from model")}
	}
	return text, nil
}
