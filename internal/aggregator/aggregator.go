package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seolens/seolens/internal/metrics"
	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/sources"
)

// TrafficSource provides page traffic rows (GA4).
type TrafficSource interface {
	PageTraffic(ctx context.Context, days, limit int) ([]sources.GA4PageRow, error)
}

// SearchSource provides search analytics rows (Search Console).
type SearchSource interface {
	TopQueries(ctx context.Context, days, limit int) ([]sources.GSCRow, error)
	TopPages(ctx context.Context, days, limit int) ([]sources.GSCRow, error)
}

// VolumeSource provides keyword search volume (DataForSEO).
type VolumeSource interface {
	SearchVolume(ctx context.Context, keywords []string) ([]sources.KeywordVolume, error)
}

// BacklinkSource provides domain backlink metrics (Ahrefs).
type BacklinkSource interface {
	DomainRating(ctx context.Context, target string) (*sources.DomainMetrics, error)
}

// Aggregator pulls from the configured sources concurrently and merges the
// results into one insights report. Any source may be nil, and a failing
// source degrades to an entry in SourceErrors rather than failing the pull.
type Aggregator struct {
	traffic   TrafficSource
	search    SearchSource
	volume    VolumeSource
	backlinks BacklinkSource
	siteHost  string
	logger    *slog.Logger
	business  *metrics.BusinessMetrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTraffic sets the page-traffic source.
func WithTraffic(s TrafficSource) Option { return func(a *Aggregator) { a.traffic = s } }

// WithSearch sets the search-analytics source.
func WithSearch(s SearchSource) Option { return func(a *Aggregator) { a.search = s } }

// WithVolume sets the keyword-volume source.
func WithVolume(s VolumeSource) Option { return func(a *Aggregator) { a.volume = s } }

// WithBacklinks sets the backlink-metrics source.
func WithBacklinks(s BacklinkSource) Option { return func(a *Aggregator) { a.backlinks = s } }

// WithMetrics enables per-source pull counters.
func WithMetrics(m *metrics.BusinessMetrics) Option { return func(a *Aggregator) { a.business = m } }

// New creates an aggregator for a site. siteHost is the bare domain used
// for backlink lookups.
func New(siteHost string, logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		siteHost: siteHost,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Thresholds for opportunity and gap detection.
const (
	opportunityMinImpressions = 100
	opportunityMaxCTR         = 0.02
	opportunityMinPosition    = 4.0
	opportunityMaxPosition    = 20.0
	gapMinImpressions         = 200
	decliningChangePct        = -20.0
)

// Insights pulls all configured sources over the last `days` days and
// merges them. Source failures are reported in SourceErrors; the call
// itself fails only when the context is cancelled.
func (a *Aggregator) Insights(ctx context.Context, days int) (*models.PerformanceInsights, error) {
	if days <= 0 {
		days = 28
	}

	var (
		mu          sync.Mutex
		currentRows []sources.GA4PageRow
		longRows    []sources.GA4PageRow
		queryRows   []sources.GSCRow
		pageRows    []sources.GSCRow
		domain      *sources.DomainMetrics
		srcErrors   []string
	)

	recordPull := func(source, status string) {
		if a.business != nil {
			a.business.InsightsPullsTotal.WithLabelValues(source, status).Inc()
		}
	}

	recordErr := func(source string, err error) {
		a.logger.Warn("source pull failed", "source", source, "error", err)
		recordPull(source, "failed")
		mu.Lock()
		srcErrors = append(srcErrors, fmt.Sprintf("%s: %v", source, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.traffic != nil {
		g.Go(func() error {
			rows, err := a.traffic.PageTraffic(gctx, days, 50)
			if err != nil {
				recordErr("ga4", err)
				return nil
			}
			recordPull("ga4", "success")
			mu.Lock()
			currentRows = rows
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			// The doubled window gives a prior period to compare
			// against for trend detection.
			rows, err := a.traffic.PageTraffic(gctx, 2*days, 50)
			if err != nil {
				return nil
			}
			mu.Lock()
			longRows = rows
			mu.Unlock()
			return nil
		})
	}

	if a.search != nil {
		g.Go(func() error {
			rows, err := a.search.TopQueries(gctx, days, 100)
			if err != nil {
				recordErr("gsc", err)
				return nil
			}
			recordPull("gsc", "success")
			mu.Lock()
			queryRows = rows
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			rows, err := a.search.TopPages(gctx, days, 100)
			if err != nil {
				return nil
			}
			mu.Lock()
			pageRows = rows
			mu.Unlock()
			return nil
		})
	}

	if a.backlinks != nil && a.siteHost != "" {
		g.Go(func() error {
			dm, err := a.backlinks.DomainRating(gctx, a.siteHost)
			if err != nil {
				recordErr("ahrefs", err)
				return nil
			}
			recordPull("ahrefs", "success")
			mu.Lock()
			domain = dm
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	insights := &models.PerformanceInsights{
		GeneratedAt:  time.Now().UTC(),
		SourceErrors: srcErrors,
	}

	topPages := mergePages(currentRows, pageRows)
	insights.TopPages = topPages
	insights.DecliningPages = findDeclining(currentRows, longRows, pageRows)
	insights.Opportunities = a.findOpportunities(ctx, queryRows, &insights.SourceErrors)
	insights.ContentGaps = findGaps(queryRows)

	if domain != nil {
		insights.Backlinks = &models.BacklinkSummary{
			DomainRating:     domain.DomainRating,
			Backlinks:        domain.Backlinks,
			ReferringDomains: domain.ReferringDomains,
			Dofollow:         domain.Dofollow,
		}
	}

	insights.Recommendations = buildRecommendations(insights)
	return insights, nil
}

// mergePages joins GA4 traffic with GSC search rows on URL path, keeping
// GA4's traffic ordering.
func mergePages(traffic []sources.GA4PageRow, search []sources.GSCRow) []models.PageMetrics {
	byPath := make(map[string]sources.GSCRow, len(search))
	for _, row := range search {
		if len(row.Keys) == 0 {
			continue
		}
		byPath[pathOf(row.Keys[0])] = row
	}

	pages := make([]models.PageMetrics, 0, len(traffic))
	for _, row := range traffic {
		page := models.PageMetrics{
			Path:       row.Path,
			Sessions:   row.Sessions,
			Pageviews:  row.Pageviews,
			Engagement: row.EngagementRate,
		}
		if sr, ok := byPath[row.Path]; ok {
			page.Clicks = sr.Clicks
			page.Impressions = sr.Impressions
			page.CTR = sr.CTR
			page.Position = sr.Position
		}
		pages = append(pages, page)
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Sessions > pages[j].Sessions
	})
	if len(pages) > 20 {
		pages = pages[:20]
	}
	return pages
}

// findDeclining compares the current window against the prior one. The
// prior period's sessions are the doubled window minus the current one.
func findDeclining(current, doubled []sources.GA4PageRow, search []sources.GSCRow) []models.PageMetrics {
	if len(current) == 0 || len(doubled) == 0 {
		return nil
	}

	currentByPath := make(map[string]sources.GA4PageRow, len(current))
	for _, row := range current {
		currentByPath[row.Path] = row
	}
	searchByPath := make(map[string]sources.GSCRow, len(search))
	for _, row := range search {
		if len(row.Keys) > 0 {
			searchByPath[pathOf(row.Keys[0])] = row
		}
	}

	var declining []models.PageMetrics
	for _, long := range doubled {
		cur, ok := currentByPath[long.Path]
		if !ok {
			cur = sources.GA4PageRow{Path: long.Path}
		}
		prior := long.Sessions - cur.Sessions
		if prior < 10 {
			continue
		}
		changePct := float64(cur.Sessions-prior) / float64(prior) * 100
		if changePct > decliningChangePct {
			continue
		}
		page := models.PageMetrics{
			Path:       cur.Path,
			Sessions:   cur.Sessions,
			Pageviews:  cur.Pageviews,
			Engagement: cur.EngagementRate,
			Change:     round1(changePct),
		}
		if sr, ok := searchByPath[cur.Path]; ok {
			page.Clicks = sr.Clicks
			page.Impressions = sr.Impressions
			page.CTR = sr.CTR
			page.Position = sr.Position
		}
		declining = append(declining, page)
	}

	sort.SliceStable(declining, func(i, j int) bool {
		return declining[i].Change < declining[j].Change
	})
	if len(declining) > 10 {
		declining = declining[:10]
	}
	return declining
}

// findOpportunities selects queries that already rank but are under-clicked,
// then enriches them with search volume when a volume source is configured.
func (a *Aggregator) findOpportunities(ctx context.Context, queries []sources.GSCRow, srcErrors *[]string) []models.KeywordOpportunity {
	var opps []models.KeywordOpportunity
	for _, row := range queries {
		if len(row.Keys) == 0 {
			continue
		}
		if row.Impressions < opportunityMinImpressions {
			continue
		}
		if row.Position < opportunityMinPosition || row.Position > opportunityMaxPosition {
			continue
		}
		if row.CTR > opportunityMaxCTR {
			continue
		}
		opps = append(opps, models.KeywordOpportunity{
			Query:       row.Keys[0],
			Impressions: row.Impressions,
			Clicks:      row.Clicks,
			CTR:         row.CTR,
			Position:    row.Position,
			Reason: fmt.Sprintf("ranking at position %.1f with %.1f%% CTR",
				row.Position, row.CTR*100),
		})
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Impressions > opps[j].Impressions
	})
	if len(opps) > 15 {
		opps = opps[:15]
	}

	if a.volume != nil && len(opps) > 0 {
		keywords := make([]string, len(opps))
		for i, o := range opps {
			keywords[i] = o.Query
		}
		volumes, err := a.volume.SearchVolume(ctx, keywords)
		if err != nil {
			a.logger.Warn("source pull failed", "source", "dataforseo", "error", err)
			if a.business != nil {
				a.business.InsightsPullsTotal.WithLabelValues("dataforseo", "failed").Inc()
			}
			*srcErrors = append(*srcErrors, fmt.Sprintf("dataforseo: %v", err))
		} else {
			if a.business != nil {
				a.business.InsightsPullsTotal.WithLabelValues("dataforseo", "success").Inc()
			}
			byKeyword := make(map[string]int, len(volumes))
			for _, v := range volumes {
				byKeyword[strings.ToLower(v.Keyword)] = v.SearchVolume
			}
			for i := range opps {
				opps[i].SearchVolume = byKeyword[strings.ToLower(opps[i].Query)]
			}
		}
	}
	return opps
}

// findGaps returns queries the site is seen for but does not effectively
// rank on, meaning real impressions beyond the second results page.
func findGaps(queries []sources.GSCRow) []string {
	var gaps []string
	for _, row := range queries {
		if len(row.Keys) == 0 {
			continue
		}
		if row.Impressions >= gapMinImpressions && row.Position > opportunityMaxPosition {
			gaps = append(gaps, row.Keys[0])
		}
	}
	if len(gaps) > 10 {
		gaps = gaps[:10]
	}
	return gaps
}

func buildRecommendations(in *models.PerformanceInsights) []string {
	var recs []string
	if len(in.DecliningPages) > 0 {
		recs = append(recs, fmt.Sprintf("%d pages lost more than 20%% of their traffic; refresh their content first", len(in.DecliningPages)))
	}
	if len(in.Opportunities) > 0 {
		recs = append(recs, fmt.Sprintf("%d queries rank on page one or two but earn under 2%% CTR; improve their titles and meta descriptions", len(in.Opportunities)))
	}
	if len(in.ContentGaps) > 0 {
		recs = append(recs, fmt.Sprintf("%d queries show demand without a ranking page; consider new content targeting them", len(in.ContentGaps)))
	}
	if in.Backlinks != nil && in.Backlinks.DomainRating < 30 {
		recs = append(recs, "domain rating is low; pursue links from referring domains in your niche")
	}
	if len(recs) == 0 {
		recs = append(recs, "no urgent issues detected in the current window")
	}
	return recs
}

// pathOf reduces a full page URL to its path for joining across sources.
func pathOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return u.Path
	}
	return raw
}

func round1(v float64) float64 {
	if v < 0 {
		return float64(int(v*10-0.5)) / 10
	}
	return float64(int(v*10+0.5)) / 10
}
