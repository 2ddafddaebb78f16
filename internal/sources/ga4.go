package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultGA4BaseURL = "https://analyticsdata.googleapis.com/v1beta"

// GA4Client wraps the Google Analytics Data API with the one query shape
// the aggregator needs: page traffic over a date range.
type GA4Client struct {
	baseURL    string
	propertyID string
	token      string
	httpClient *http.Client
}

// NewGA4 creates a GA4 client for one property.
func NewGA4(propertyID, token string) *GA4Client {
	return &GA4Client{
		baseURL:    defaultGA4BaseURL,
		propertyID: propertyID,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *GA4Client) SetBaseURL(u string) { c.baseURL = u }

// GA4PageRow is one page's traffic for the requested range.
type GA4PageRow struct {
	Path           string  `json:"path"`
	Sessions       int     `json:"sessions"`
	Pageviews      int     `json:"pageviews"`
	EngagementRate float64 `json:"engagement_rate"`
}

// runReport mirrors the GA4 runReport request body. The dimension and
// metric set is fixed; only the date range varies.
type ga4RunReportRequest struct {
	DateRanges []ga4DateRange `json:"dateRanges"`
	Dimensions []ga4Name      `json:"dimensions"`
	Metrics    []ga4Name      `json:"metrics"`
	Limit      int            `json:"limit"`
}

type ga4DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type ga4Name struct {
	Name string `json:"name"`
}

type ga4RunReportResponse struct {
	Rows []struct {
		DimensionValues []struct {
			Value string `json:"value"`
		} `json:"dimensionValues"`
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

// PageTraffic returns per-page sessions, pageviews, and engagement rate for
// the last `days` days, most-visited first.
func (c *GA4Client) PageTraffic(ctx context.Context, days, limit int) ([]GA4PageRow, error) {
	if limit <= 0 {
		limit = 50
	}
	reqBody := ga4RunReportRequest{
		DateRanges: []ga4DateRange{{
			StartDate: fmt.Sprintf("%ddaysAgo", days),
			EndDate:   "today",
		}},
		Dimensions: []ga4Name{{Name: "pagePath"}},
		Metrics: []ga4Name{
			{Name: "sessions"},
			{Name: "screenPageViews"},
			{Name: "engagementRate"},
		},
		Limit: limit,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GA4 request: %w", err)
	}

	url := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, c.propertyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build GA4 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GA4 request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GA4 returned status %d", resp.StatusCode)
	}

	var body ga4RunReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode GA4 response: %w", err)
	}

	rows := make([]GA4PageRow, 0, len(body.Rows))
	for _, r := range body.Rows {
		if len(r.DimensionValues) < 1 || len(r.MetricValues) < 3 {
			continue
		}
		sessions, _ := strconv.Atoi(r.MetricValues[0].Value)
		views, _ := strconv.Atoi(r.MetricValues[1].Value)
		engagement, _ := strconv.ParseFloat(r.MetricValues[2].Value, 64)
		rows = append(rows, GA4PageRow{
			Path:           r.DimensionValues[0].Value,
			Sessions:       sessions,
			Pageviews:      views,
			EngagementRate: engagement,
		})
	}
	return rows, nil
}
