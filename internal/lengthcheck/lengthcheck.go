package lengthcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/sources"
	"github.com/seolens/seolens/internal/textutil"
)

// ErrNoSERPSource is returned by CompareKeyword when no SERP source is
// configured.
var ErrNoSERPSource = errors.New("no SERP source configured")

const (
	// maxBodySize caps competitor page reads; article pages rarely exceed
	// a few hundred KB of HTML.
	maxBodySize = 5 * 1024 * 1024

	defaultConcurrency = 5
	defaultTimeout     = 20 * time.Second
	userAgent          = "seolens/1.0 (+https://github.com/seolens/seolens)"

	// serpCompetitorLimit caps how many SERP results feed a keyword
	// comparison.
	serpCompetitorLimit = 10
)

// SERPSource supplies organic result URLs for a keyword (DataForSEO).
type SERPSource interface {
	OrganicSERP(ctx context.Context, kw string, limit int) ([]sources.SERPResult, error)
}

// Comparator fetches competitor pages and compares word counts.
type Comparator struct {
	client      *http.Client
	concurrency int
	serp        SERPSource
	siteHost    string
	logger      *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cmp *Comparator) {
		cmp.client = c
	}
}

// WithConcurrency sets the maximum number of concurrent fetches.
func WithConcurrency(n int) Option {
	return func(cmp *Comparator) {
		if n > 0 {
			cmp.concurrency = n
		}
	}
}

// WithSERPSource enables keyword-driven comparisons.
func WithSERPSource(s SERPSource) Option {
	return func(cmp *Comparator) {
		cmp.serp = s
	}
}

// WithSiteHost sets the site's own domain so its pages are skipped in
// SERP results.
func WithSiteHost(host string) Option {
	return func(cmp *Comparator) {
		cmp.siteHost = host
	}
}

// New creates a Comparator.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		client:      &http.Client{Timeout: defaultTimeout},
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare fetches each competitor URL concurrently, counts visible words,
// and derives percentile targets against the caller's own content.
// Individual fetch failures are recorded per page, never fatal.
func (c *Comparator) Compare(ctx context.Context, ownContent string, competitorURLs []string) (*models.LengthComparison, error) {
	if len(competitorURLs) == 0 {
		return nil, fmt.Errorf("no competitor URLs provided")
	}

	result := &models.LengthComparison{
		OwnWordCount: len(textutil.Words(textutil.StripMarkdown(ownContent))),
		Competitors:  make([]models.CompetitorPage, len(competitorURLs)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, u := range competitorURLs {
		g.Go(func() error {
			page := c.fetchPage(ctx, u)
			result.Competitors[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make([]int, 0, len(result.Competitors))
	for _, p := range result.Competitors {
		if p.Error == "" && p.WordCount > 0 {
			counts = append(counts, p.WordCount)
		}
	}
	if len(counts) == 0 {
		return result, fmt.Errorf("all competitor fetches failed")
	}

	sort.Ints(counts)
	result.Min = counts[0]
	result.Max = counts[len(counts)-1]
	result.Median = percentile(counts, 50)
	result.P25 = percentile(counts, 25)
	result.P75 = percentile(counts, 75)

	// Target the 75th percentile: enough depth to compete without chasing
	// the longest outlier.
	result.TargetWordCount = result.P75
	result.Recommendation = buildRecommendation(result)

	return result, nil
}

// CompareKeyword pulls the top organic results for the keyword and
// compares against them, skipping the site's own pages.
func (c *Comparator) CompareKeyword(ctx context.Context, ownContent, kw string) (*models.LengthComparison, error) {
	if c.serp == nil {
		return nil, ErrNoSERPSource
	}

	results, err := c.serp.OrganicSERP(ctx, kw, serpCompetitorLimit+2)
	if err != nil {
		return nil, fmt.Errorf("SERP lookup failed: %w", err)
	}

	urls := make([]string, 0, serpCompetitorLimit)
	for _, res := range results {
		if c.siteHost != "" && strings.EqualFold(res.Domain, c.siteHost) {
			continue
		}
		urls = append(urls, res.URL)
		if len(urls) == serpCompetitorLimit {
			break
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no competitor results for %q", kw)
	}

	return c.Compare(ctx, ownContent, urls)
}

// fetchPage downloads one competitor URL and counts its visible words.
func (c *Comparator) fetchPage(ctx context.Context, pageURL string) models.CompetitorPage {
	page := models.CompetitorPage{URL: pageURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		page.Error = fmt.Sprintf("invalid URL: %v", err)
		return page
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		page.Error = err.Error()
		return page
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		page.Error = fmt.Sprintf("status %d", resp.StatusCode)
		return page
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		page.Error = fmt.Sprintf("read body: %v", err)
		return page
	}

	title, text, err := extractVisibleText(strings.NewReader(string(body)))
	if err != nil {
		page.Error = fmt.Sprintf("parse HTML: %v", err)
		return page
	}

	page.Title = title
	page.WordCount = len(textutil.Words(text))
	c.logger.Debug("fetched competitor page", "url", pageURL, "words", page.WordCount)
	return page
}

// extractVisibleText walks the HTML tree collecting text nodes, skipping
// script, style, and other non-content elements.
func extractVisibleText(r io.Reader) (title, text string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	skip := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"nav":      true,
		"footer":   true,
		"iframe":   true,
		"svg":      true,
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "head" {
				title = findTitle(n)
				return
			}
			if skip[n.Data] {
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return title, b.String(), nil
}

// findTitle locates the <title> text inside a head subtree.
func findTitle(head *html.Node) string {
	for n := head.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	return ""
}

// percentile returns the p-th percentile of sorted counts using
// nearest-rank.
func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func buildRecommendation(r *models.LengthComparison) string {
	switch {
	case r.OwnWordCount == 0:
		return fmt.Sprintf("Competitors range %d-%d words; target around %d", r.Min, r.Max, r.TargetWordCount)
	case r.OwnWordCount < r.P25:
		return fmt.Sprintf("Content is %d words, below the competitor 25th percentile (%d); expand toward %d", r.OwnWordCount, r.P25, r.TargetWordCount)
	case r.OwnWordCount < r.Median:
		return fmt.Sprintf("Content is %d words, under the competitor median (%d); adding depth toward %d should help", r.OwnWordCount, r.Median, r.TargetWordCount)
	case r.OwnWordCount > 2*r.P75:
		return fmt.Sprintf("Content is %d words, more than double the competitor 75th percentile (%d); consider splitting it", r.OwnWordCount, r.P75)
	default:
		return fmt.Sprintf("Content length (%d words) is competitive against the %d-%d range", r.OwnWordCount, r.Min, r.Max)
	}
}
