package ollama

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/seolens/seolens/internal/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		ollamaURL     string
		model         string
		expectError   bool
		expectedModel string
	}{
		{
			name:          "default values",
			ollamaURL:     "",
			model:         "",
			expectError:   false,
			expectedModel: DefaultModel,
		},
		{
			name:          "custom URL and model",
			ollamaURL:     "http://custom-ollama:11434",
			model:         "mistral",
			expectError:   false,
			expectedModel: "mistral",
		},
		{
			name:          "custom URL, default model",
			ollamaURL:     "http://localhost:11434",
			model:         "",
			expectError:   false,
			expectedModel: DefaultModel,
		},
		{
			name:        "invalid URL",
			ollamaURL:   "://invalid-url",
			model:       "test",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.ollamaURL, tt.model)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if client == nil {
					t.Fatal("Expected client but got nil")
				}
				if client.model != tt.expectedModel {
					t.Errorf("Expected model %s, got %s", tt.expectedModel, client.model)
				}
				if client.timeout != DefaultTimeout {
					t.Errorf("Expected timeout %v, got %v", DefaultTimeout, client.timeout)
				}
			}
		})
	}
}

func TestParseClaimsFromJSON(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		expectedLen int
		expectError bool
	}{
		{
			name: "valid claims",
			response: `[
				{"claim": "The population is 1 million", "type": "statistic", "verdict": "needs_source", "context": "Demographics", "confidence": "high"},
				{"claim": "According to Smith", "type": "citation", "verdict": "sourced", "context": "Introduction", "confidence": "medium"}
			]`,
			expectedLen: 2,
			expectError: false,
		},
		{
			name:        "empty array",
			response:    `[]`,
			expectedLen: 0,
			expectError: false,
		},
		{
			name:        "no JSON array",
			response:    "No claims found",
			expectError: true,
		},
		{
			name: "with surrounding text",
			response: `Here are the claims:
			[{"claim": "Test claim", "type": "claim", "verdict": "questionable", "context": "Body", "confidence": "low"}]
			End of claims`,
			expectedLen: 1,
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var claims []models.FactCheck
			var err error

			// Simulate the parsing logic from FactCheckClaims
			start := strings.Index(tt.response, "[")
			end := strings.LastIndex(tt.response, "]")
			if start >= 0 && end > start {
				jsonStr := tt.response[start : end+1]
				err = json.Unmarshal([]byte(jsonStr), &claims)
			} else {
				err = &jsonParseError{}
			}

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if len(claims) != tt.expectedLen {
					t.Errorf("Expected %d claims, got %d", tt.expectedLen, len(claims))
				}
			}
		})
	}
}

type jsonParseError struct{}

func (e *jsonParseError) Error() string {
	return "no JSON array found in response"
}

func TestParseMetaSuggestionFromJSON(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		expectError bool
		checkFields bool
	}{
		{
			name: "valid suggestion",
			response: `{
				"title": "Keyword Research Guide for Beginners",
				"meta_description": "Learn how to find and prioritize keywords that drive traffic, with a step-by-step keyword research workflow you can run in an afternoon.",
				"reason": "Keyword leads the title and appears once in the description"
			}`,
			expectError: false,
			checkFields: true,
		},
		{
			name: "with surrounding text",
			response: `Here is my suggestion:
			{"title": "On-Page SEO Checklist", "meta_description": "A practical on-page SEO checklist covering titles, headers, internal links, and meta descriptions, with examples for each item on the list.", "reason": "fits length limits"}
			Done`,
			expectError: false,
			checkFields: true,
		},
		{
			name:        "no JSON object",
			response:    "No JSON here",
			expectError: true,
		},
		{
			name:        "invalid JSON",
			response:    `{"title": "broken"`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result models.MetaSuggestion
			var err error

			// Simulate the parsing logic from SuggestMeta
			start := strings.Index(tt.response, "{")
			end := strings.LastIndex(tt.response, "}")
			if start >= 0 && end > start {
				jsonStr := tt.response[start : end+1]
				err = json.Unmarshal([]byte(jsonStr), &result)
			} else {
				err = &jsonParseError{}
			}

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if tt.checkFields {
					if result.Title == "" {
						t.Error("Expected title to be set")
					}
					if result.MetaDescription == "" {
						t.Error("Expected meta description to be set")
					}
				}
			}
		})
	}
}

func TestContextHandling(t *testing.T) {
	client, err := New("http://localhost:11434", "test-model")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if client.timeout != DefaultTimeout {
		t.Errorf("Expected timeout %v, got %v", DefaultTimeout, client.timeout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	// We're mainly testing that the methods accept context properly
	_, err = client.RewriteText(ctx, "test", "test keyword")
	if err == nil {
		t.Log("Note: RewriteText didn't fail with canceled context (likely no Ollama server)")
	}
}
