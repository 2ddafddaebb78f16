package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultDataForSEOBaseURL = "https://api.dataforseo.com/v3"

// DataForSEOClient wraps the two DataForSEO endpoints the aggregator uses:
// live Google organic SERPs and keyword search volume. Auth is HTTP basic.
type DataForSEOClient struct {
	baseURL    string
	login      string
	password   string
	httpClient *http.Client
}

// NewDataForSEO creates a DataForSEO client.
func NewDataForSEO(login, password string) *DataForSEOClient {
	return &DataForSEOClient{
		baseURL:    defaultDataForSEOBaseURL,
		login:      login,
		password:   password,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *DataForSEOClient) SetBaseURL(u string) { c.baseURL = u }

// SERPResult is one organic result for a query.
type SERPResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Domain   string `json:"domain"`
}

// KeywordVolume is monthly search volume for one keyword.
type KeywordVolume struct {
	Keyword      string `json:"keyword"`
	SearchVolume int    `json:"search_volume"`
	Competition  string `json:"competition"`
}

// dataforseoEnvelope is the common task/result wrapper every DataForSEO
// response uses.
type dataforseoEnvelope struct {
	StatusCode int `json:"status_code"`
	Tasks      []struct {
		StatusCode int               `json:"status_code"`
		Result     []json.RawMessage `json:"result"`
	} `json:"tasks"`
}

// OrganicSERP fetches the live Google organic results for a keyword.
func (c *DataForSEOClient) OrganicSERP(ctx context.Context, kw string, limit int) ([]SERPResult, error) {
	if limit <= 0 {
		limit = 10
	}
	payload := []map[string]interface{}{{
		"keyword":       kw,
		"language_code": "en",
		"location_code": 2840, // United States
		"depth":         limit,
	}}

	results, err := c.post(ctx, "/serp/google/organic/live/advanced", payload)
	if err != nil {
		return nil, err
	}
	raw := results[0]

	var result struct {
		Items []struct {
			Type         string `json:"type"`
			RankAbsolute int    `json:"rank_absolute"`
			Title        string `json:"title"`
			URL          string `json:"url"`
			Domain       string `json:"domain"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode SERP result: %w", err)
	}

	organic := make([]SERPResult, 0, limit)
	for _, item := range result.Items {
		if item.Type != "organic" {
			continue
		}
		organic = append(organic, SERPResult{
			Position: item.RankAbsolute,
			Title:    item.Title,
			URL:      item.URL,
			Domain:   item.Domain,
		})
		if len(organic) >= limit {
			break
		}
	}
	return organic, nil
}

// SearchVolume fetches Google Ads monthly volume for a set of keywords.
func (c *DataForSEOClient) SearchVolume(ctx context.Context, keywords []string) ([]KeywordVolume, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	payload := []map[string]interface{}{{
		"keywords":      keywords,
		"language_code": "en",
		"location_code": 2840,
	}}

	results, err := c.post(ctx, "/keywords_data/google_ads/search_volume/live", payload)
	if err != nil {
		return nil, err
	}

	volumes := make([]KeywordVolume, 0, len(results))
	for _, raw := range results {
		var row struct {
			Keyword      string  `json:"keyword"`
			SearchVolume int     `json:"search_volume"`
			Competition  float64 `json:"competition_index"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("failed to decode volume result: %w", err)
		}
		volumes = append(volumes, KeywordVolume{
			Keyword:      row.Keyword,
			SearchVolume: row.SearchVolume,
			Competition:  competitionLabel(row.Competition),
		})
	}
	return volumes, nil
}

// post sends a task array and unwraps the first task's result list.
func (c *DataForSEOClient) post(ctx context.Context, path string, payload interface{}) ([]json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal DataForSEO request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build DataForSEO request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.login, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DataForSEO request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DataForSEO returned status %d", resp.StatusCode)
	}

	var envelope dataforseoEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode DataForSEO envelope: %w", err)
	}
	if envelope.StatusCode != 20000 {
		return nil, fmt.Errorf("DataForSEO API status %d", envelope.StatusCode)
	}
	if len(envelope.Tasks) == 0 || len(envelope.Tasks[0].Result) == 0 {
		return nil, fmt.Errorf("DataForSEO returned no results")
	}
	if envelope.Tasks[0].StatusCode != 20000 {
		return nil, fmt.Errorf("DataForSEO task status %d", envelope.Tasks[0].StatusCode)
	}
	return envelope.Tasks[0].Result, nil
}

func competitionLabel(index float64) string {
	switch {
	case index >= 67:
		return "high"
	case index >= 34:
		return "medium"
	default:
		return "low"
	}
}
