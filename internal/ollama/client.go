package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/seolens/seolens/internal/models"
)

const (
	DefaultModel   = "llama3.2"
	DefaultTimeout = 360 * time.Second
)

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// New creates a new Ollama client
func New(ollamaURL, model string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(baseURL, http.DefaultClient)

	return &Client{
		client:  client,
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// GenerateResponse generates a response from the LLM
func (c *Client) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	log.Printf("Ollama: Sending request to model %s (timeout: %v)", c.model, c.timeout)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
	}

	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})

	if err != nil {
		log.Printf("Ollama: Generation failed: %v", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	log.Printf("Ollama: Response received (%d chars)", len(result))
	return result, nil
}

// RewriteText rewrites the content in a more natural register while
// preserving meaning, structure, and the target keyword.
func (c *Client) RewriteText(ctx context.Context, text, keyword string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite the following article so it reads like it was written by an experienced human editor.

Requirements:
- Preserve ALL facts, numbers, headings, and markdown structure exactly
- Keep the phrase "%s" present where it already appears
- Vary sentence length; avoid formulaic transitions
- Remove filler phrases and hedging language
- Do NOT add new claims or sections
- Do NOT add any commentary before or after the rewrite

Article:
%s

Rewritten article:`, keyword, text)

	return c.GenerateResponse(ctx, prompt)
}

// FactCheckClaims extracts factual claims, statistics, and quotes from the
// text that should be verified before publishing.
func (c *Client) FactCheckClaims(ctx context.Context, text string) ([]models.FactCheck, error) {
	prompt := fmt.Sprintf(`Analyze the following text and extract factual claims, statistics, quotes, and assertions that would benefit from verification or citation before publishing.

For each item, identify:
- claim: the exact text of the claim/statistic/quote
- type: one of "statistic", "quote", "claim", "citation"
- verdict: "needs_source" if no source is given, "sourced" if the text cites one, "questionable" if it looks wrong
- context: brief surrounding text
- confidence: how confident you are in the verdict (high, medium, low)

Return ONLY a JSON array of objects with fields: claim, type, verdict, context, confidence. Limit to the 10 most significant items.

Text:
%s

Claims (JSON array):`, text)

	response, err := c.GenerateResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var claims []models.FactCheck

	// Try to find JSON array in response
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start >= 0 && end > start {
		jsonStr := response[start : end+1]
		if err := json.Unmarshal([]byte(jsonStr), &claims); err != nil {
			return nil, fmt.Errorf("failed to parse claims JSON: %w", err)
		}
	} else {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	return claims, nil
}

// SuggestMeta proposes a title and meta description tuned for the keyword.
func (c *Client) SuggestMeta(ctx context.Context, text, keyword string) (*models.MetaSuggestion, error) {
	prompt := fmt.Sprintf(`You write search snippets. Based on the article below, propose a page title and meta description targeting the keyword "%s".

Rules:
- Title between 30 and 60 characters, keyword near the front
- Meta description between 120 and 160 characters, includes the keyword once
- Active voice, concrete benefit, no clickbait
- Return ONLY a JSON object with fields: title, meta_description, reason

Article:
%s

JSON object:`, keyword, text)

	response, err := c.GenerateResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result models.MetaSuggestion

	// Try to find JSON object in response
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		jsonStr := response[start : end+1]
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			return nil, fmt.Errorf("failed to parse suggestion JSON: %w", err)
		}
	} else {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	return &result, nil
}
