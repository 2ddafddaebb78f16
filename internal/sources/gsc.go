package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultGSCBaseURL = "https://www.googleapis.com/webmasters/v3"

// GSCClient wraps the Search Console Search Analytics API.
type GSCClient struct {
	baseURL    string
	siteURL    string
	token      string
	httpClient *http.Client
}

// NewGSC creates a Search Console client for one verified site.
func NewGSC(siteURL, token string) *GSCClient {
	return &GSCClient{
		baseURL:    defaultGSCBaseURL,
		siteURL:    siteURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *GSCClient) SetBaseURL(u string) { c.baseURL = u }

// GSCRow is one query or page row from search analytics.
type GSCRow struct {
	Keys        []string `json:"keys"`
	Clicks      int      `json:"clicks"`
	Impressions int      `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

type gscQueryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
}

type gscQueryResponse struct {
	Rows []struct {
		Keys        []string `json:"keys"`
		Clicks      float64  `json:"clicks"`
		Impressions float64  `json:"impressions"`
		CTR         float64  `json:"ctr"`
		Position    float64  `json:"position"`
	} `json:"rows"`
}

// TopQueries returns search performance by query for the last `days` days.
func (c *GSCClient) TopQueries(ctx context.Context, days, limit int) ([]GSCRow, error) {
	return c.query(ctx, days, limit, "query")
}

// TopPages returns search performance by page for the last `days` days.
func (c *GSCClient) TopPages(ctx context.Context, days, limit int) ([]GSCRow, error) {
	return c.query(ctx, days, limit, "page")
}

// query runs the fixed searchAnalytics shape with one dimension.
func (c *GSCClient) query(ctx context.Context, days, limit int, dimension string) ([]GSCRow, error) {
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()
	reqBody := gscQueryRequest{
		StartDate:  now.AddDate(0, 0, -days).Format("2006-01-02"),
		EndDate:    now.Format("2006-01-02"),
		Dimensions: []string{dimension},
		RowLimit:   limit,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GSC request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/sites/%s/searchAnalytics/query", c.baseURL, url.PathEscape(c.siteURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build GSC request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GSC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GSC returned status %d", resp.StatusCode)
	}

	var body gscQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode GSC response: %w", err)
	}

	rows := make([]GSCRow, 0, len(body.Rows))
	for _, r := range body.Rows {
		rows = append(rows, GSCRow{
			Keys:        r.Keys,
			Clicks:      int(r.Clicks),
			Impressions: int(r.Impressions),
			CTR:         r.CTR,
			Position:    r.Position,
		})
	}
	return rows, nil
}
