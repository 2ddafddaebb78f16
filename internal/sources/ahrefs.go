package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultAhrefsBaseURL = "https://api.ahrefs.com/v3"

// AhrefsClient wraps the Ahrefs v3 API for backlink metrics.
type AhrefsClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAhrefs creates an Ahrefs client.
func NewAhrefs(token string) *AhrefsClient {
	return &AhrefsClient{
		baseURL:    defaultAhrefsBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *AhrefsClient) SetBaseURL(u string) { c.baseURL = u }

// DomainMetrics is the summary backlink profile for a domain.
type DomainMetrics struct {
	DomainRating     float64 `json:"domain_rating"`
	Backlinks        int     `json:"backlinks"`
	ReferringDomains int     `json:"referring_domains"`
	Dofollow         int     `json:"dofollow"`
}

// DomainRating fetches the domain rating and backlink counts for a target.
func (c *AhrefsClient) DomainRating(ctx context.Context, target string) (*DomainMetrics, error) {
	q := url.Values{}
	q.Set("target", target)
	q.Set("date", time.Now().UTC().Format("2006-01-02"))

	var drBody struct {
		DomainRating struct {
			DomainRating float64 `json:"domain_rating"`
		} `json:"domain_rating"`
	}
	if err := c.get(ctx, "/site-explorer/domain-rating", q, &drBody); err != nil {
		return nil, err
	}

	var statsBody struct {
		Metrics struct {
			LiveBacklinks    int `json:"live"`
			LiveRefdomains   int `json:"live_refdomains"`
			DofollowBacklink int `json:"dofollow"`
		} `json:"metrics"`
	}
	if err := c.get(ctx, "/site-explorer/backlinks-stats", q, &statsBody); err != nil {
		return nil, err
	}

	return &DomainMetrics{
		DomainRating:     drBody.DomainRating.DomainRating,
		Backlinks:        statsBody.Metrics.LiveBacklinks,
		ReferringDomains: statsBody.Metrics.LiveRefdomains,
		Dofollow:         statsBody.Metrics.DofollowBacklink,
	}, nil
}

func (c *AhrefsClient) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build Ahrefs request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Ahrefs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ahrefs returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Ahrefs response: %w", err)
	}
	return nil
}
