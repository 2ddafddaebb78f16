package models

import "time"

// AuditReport represents a stored content audit with its results
type AuditReport struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Keyword   string    `json:"keyword"`
	Title     string    `json:"title,omitempty"`
	MetaDesc  string    `json:"meta_description,omitempty"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result contains everything computed for a single audit
type Result struct {
	// Basic statistics over the scrubbed content
	CharacterCount int     `json:"character_count"`
	WordCount      int     `json:"word_count"`
	SentenceCount  int     `json:"sentence_count"`
	ParagraphCount int     `json:"paragraph_count"`
	AvgWordLength  float64 `json:"average_word_length"`

	Keyword     *KeywordAnalysis   `json:"keyword_analysis,omitempty"`
	Readability *ReadabilityReport `json:"readability,omitempty"`
	Quality     *QualityReport     `json:"quality,omitempty"`
	Scrub       *ScrubResult       `json:"scrub,omitempty"`
	Humanize    *HumanizeResult    `json:"humanize,omitempty"`

	// Stage-2 AI enrichment (optional)
	RewrittenText  string          `json:"rewritten_text,omitempty"`
	FactChecks     []FactCheck     `json:"fact_checks,omitempty"`
	MetaSuggestion *MetaSuggestion `json:"meta_suggestion,omitempty"`
	AIUsed         bool            `json:"ai_used"`
}

// MetaSuggestion proposes a page title and meta description for the
// target keyword.
type MetaSuggestion struct {
	MetaDescription string `json:"meta_description"`
	Title           string `json:"title"`
	Reason          string `json:"reason"`
}

// KeywordAnalysis holds density, placement, and stuffing-risk findings
// for one target keyword over one document.
type KeywordAnalysis struct {
	Keyword         string   `json:"keyword"`
	Occurrences     int      `json:"occurrences"`
	TotalWords      int      `json:"total_words"`
	Density         float64  `json:"density"`        // percent
	DensityStatus   string   `json:"density_status"` // too_low, slightly_low, optimal, slightly_high, too_high
	InTitle         bool     `json:"in_title"`
	InFirstHundred  bool     `json:"in_first_100_words"`
	InHeaders       int      `json:"in_headers"` // number of headers containing the keyword
	InMetaDesc      bool     `json:"in_meta_description"`
	Variations      []string `json:"variations,omitempty"`
	StuffingRisk    string   `json:"stuffing_risk"` // low, medium, high
	MaxConsecutive  int      `json:"max_consecutive"`
	Recommendations []string `json:"recommendations"`
}

// ReadabilityReport holds the classic readability formula outputs.
type ReadabilityReport struct {
	WordCount        int     `json:"word_count"`
	SentenceCount    int     `json:"sentence_count"`
	SyllableCount    int     `json:"syllable_count"`
	ComplexWordCount int     `json:"complex_word_count"`
	FleschEase       float64 `json:"flesch_reading_ease"`
	FleschLevel      string  `json:"flesch_level"`
	FleschKincaid    float64 `json:"flesch_kincaid_grade"`
	GunningFog       float64 `json:"gunning_fog"`
	SMOG             float64 `json:"smog"`
	ARI              float64 `json:"ari"`
	AvgGradeLevel    float64 `json:"average_grade_level"`
}

// QualityReport is a weighted aggregation of SEO sub-scores.
// All scores stay in [0,100].
type QualityReport struct {
	Structure       float64  `json:"structure_score"`
	Keyword         float64  `json:"keyword_score"`
	Meta            float64  `json:"meta_score"`
	Links           float64  `json:"link_score"`
	Readability     float64  `json:"readability_score"`
	Total           float64  `json:"total_score"`
	Grade           string   `json:"grade"`
	Recommendations []string `json:"recommendations"`
}

// ScrubResult reports what the scrubber removed or replaced.
type ScrubResult struct {
	Text             string         `json:"text"`
	Changed          bool           `json:"changed"`
	InvisibleRemoved int            `json:"invisible_removed"`
	EmDashesReplaced int            `json:"em_dashes_replaced"`
	CharsByCodepoint map[string]int `json:"chars_by_codepoint,omitempty"`
}

// HumanizeResult reports rule-table rewrites of AI-sounding prose.
type HumanizeResult struct {
	Text         string    `json:"text"`
	Replacements int       `json:"replacements"`
	RuleHits     []RuleHit `json:"rule_hits,omitempty"`
}

// RuleHit records one humanize rule firing.
type RuleHit struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Count       int    `json:"count"`
}

// FactCheck represents a claim extracted for verification.
type FactCheck struct {
	Claim      string `json:"claim"`
	Type       string `json:"type"` // statistic, quote, claim, citation
	Verdict    string `json:"verdict,omitempty"`
	Context    string `json:"context,omitempty"`
	Confidence string `json:"confidence"` // high, medium, low
}

// LengthComparison summarises competitor word counts against own content.
type LengthComparison struct {
	OwnWordCount    int              `json:"own_word_count"`
	Competitors     []CompetitorPage `json:"competitors"`
	Min             int              `json:"min"`
	Max             int              `json:"max"`
	Median          int              `json:"median"`
	P25             int              `json:"p25"`
	P75             int              `json:"p75"`
	TargetWordCount int              `json:"target_word_count"`
	Recommendation  string           `json:"recommendation"`
}

// CompetitorPage is one fetched competitor result.
type CompetitorPage struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	WordCount int    `json:"word_count"`
	Error     string `json:"error,omitempty"`
}

// PerformanceInsights merges the four data-source pulls.
type PerformanceInsights struct {
	TopPages        []PageMetrics        `json:"top_pages,omitempty"`
	DecliningPages  []PageMetrics        `json:"declining_pages,omitempty"`
	Opportunities   []KeywordOpportunity `json:"keyword_opportunities,omitempty"`
	ContentGaps     []string             `json:"content_gaps,omitempty"`
	Backlinks       *BacklinkSummary     `json:"backlinks,omitempty"`
	Recommendations []string             `json:"recommendations"`
	SourceErrors    []string             `json:"source_errors,omitempty"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// PageMetrics is a per-page traffic row merged from GA4 and GSC.
type PageMetrics struct {
	Path        string  `json:"path"`
	Sessions    int     `json:"sessions"`
	Pageviews   int     `json:"pageviews"`
	Engagement  float64 `json:"engagement_rate"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
	Change      float64 `json:"change_percent,omitempty"`
}

// KeywordOpportunity is a query worth targeting: already ranking but
// under-clicked.
type KeywordOpportunity struct {
	Query        string  `json:"query"`
	Impressions  int     `json:"impressions"`
	Clicks       int     `json:"clicks"`
	CTR          float64 `json:"ctr"`
	Position     float64 `json:"position"`
	SearchVolume int     `json:"search_volume,omitempty"`
	Reason       string  `json:"reason"`
}

// BacklinkSummary is the Ahrefs view of a domain.
type BacklinkSummary struct {
	DomainRating     float64 `json:"domain_rating"`
	Backlinks        int     `json:"backlinks"`
	ReferringDomains int     `json:"referring_domains"`
	Dofollow         int     `json:"dofollow"`
}
