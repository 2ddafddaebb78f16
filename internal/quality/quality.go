package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/textutil"
)

// Sub-score weights. They sum to 1.0 so the total stays in [0,100].
const (
	weightStructure   = 0.25
	weightKeyword     = 0.25
	weightMeta        = 0.15
	weightLinks       = 0.15
	weightReadability = 0.20
)

var markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)]+)\)`)

// Input bundles everything the rater needs. Keyword and Readability come
// from their own analyzers so the rater never recomputes them.
type Input struct {
	Content     string
	Title       string
	MetaDesc    string
	SiteHost    string // used to split internal vs external links; may be empty
	Keyword     *models.KeywordAnalysis
	Readability *models.ReadabilityReport
}

// Rate aggregates the weighted sub-scores into a quality report.
func Rate(in Input) *models.QualityReport {
	report := &models.QualityReport{Recommendations: []string{}}

	var recs []string
	report.Structure, recs = scoreStructure(in.Content)
	report.Recommendations = append(report.Recommendations, recs...)

	report.Keyword, recs = scoreKeyword(in.Keyword)
	report.Recommendations = append(report.Recommendations, recs...)

	report.Meta, recs = scoreMeta(in.Title, in.MetaDesc)
	report.Recommendations = append(report.Recommendations, recs...)

	report.Links, recs = scoreLinks(in.Content, in.SiteHost)
	report.Recommendations = append(report.Recommendations, recs...)

	report.Readability, recs = scoreReadability(in.Readability)
	report.Recommendations = append(report.Recommendations, recs...)

	total := report.Structure*weightStructure +
		report.Keyword*weightKeyword +
		report.Meta*weightMeta +
		report.Links*weightLinks +
		report.Readability*weightReadability
	report.Total = textutil.Clamp(math.Round(total*100) / 100)
	report.Grade = textutil.LetterGrade(report.Total)

	return report
}

// scoreStructure checks heading hierarchy, word count, and paragraph size.
func scoreStructure(content string) (float64, []string) {
	score := 100.0
	recs := []string{}

	headers := textutil.Headers(content)
	h1Count := 0
	h2Count := 0
	for _, h := range headers {
		switch h.Level {
		case 1:
			h1Count++
		case 2:
			h2Count++
		}
	}

	if h1Count == 0 {
		score -= 20
		recs = append(recs, "Add a single H1 heading")
	} else if h1Count > 1 {
		score -= 15
		recs = append(recs, fmt.Sprintf("Use one H1 heading, found %d", h1Count))
	}

	words := textutil.Words(textutil.StripMarkdown(content))
	wordCount := len(words)

	if h2Count == 0 && wordCount > 300 {
		score -= 20
		recs = append(recs, "Break long content into sections with H2 subheadings")
	}

	switch {
	case wordCount < 300:
		score -= 30
		recs = append(recs, fmt.Sprintf("Content is thin at %d words; aim for at least 600", wordCount))
	case wordCount < 600:
		score -= 10
		recs = append(recs, fmt.Sprintf("Content is short at %d words; competitive topics usually need more depth", wordCount))
	}

	// Wall-of-text check: any paragraph over 150 words
	for _, para := range strings.Split(content, "\n\n") {
		if len(textutil.Words(para)) > 150 {
			score -= 10
			recs = append(recs, "Split paragraphs over 150 words for scannability")
			break
		}
	}

	return textutil.Clamp(score), recs
}

// scoreKeyword converts a keyword analysis into a 0-100 sub-score.
func scoreKeyword(ka *models.KeywordAnalysis) (float64, []string) {
	if ka == nil || ka.Keyword == "" {
		return 50, []string{"No target keyword supplied; keyword placement was not evaluated"}
	}

	score := 0.0
	switch ka.DensityStatus {
	case "optimal":
		score += 40
	case "slightly_low", "slightly_high":
		score += 25
	case "too_low":
		score += 5
	case "too_high":
		score += 0
	}

	if ka.InTitle {
		score += 20
	}
	if ka.InFirstHundred {
		score += 15
	}
	if ka.InHeaders > 0 {
		score += 15
	}
	if ka.InMetaDesc {
		score += 10
	}

	switch ka.StuffingRisk {
	case "high":
		score -= 30
	case "medium":
		score -= 10
	}

	// Placement recommendations already live on the keyword analysis, so
	// the rater does not duplicate them.
	return textutil.Clamp(score), nil
}

// scoreMeta checks title and meta description lengths against SERP limits.
func scoreMeta(title, metaDesc string) (float64, []string) {
	score := 100.0
	recs := []string{}

	titleLen := len(title)
	switch {
	case titleLen == 0:
		score -= 50
		recs = append(recs, "Add a title tag")
	case titleLen < 30:
		score -= 20
		recs = append(recs, fmt.Sprintf("Title is %d characters; 30-60 performs best in SERPs", titleLen))
	case titleLen > 60:
		score -= 15
		recs = append(recs, fmt.Sprintf("Title is %d characters and will be truncated; keep it under 60", titleLen))
	}

	metaLen := len(metaDesc)
	switch {
	case metaLen == 0:
		score -= 40
		recs = append(recs, "Add a meta description")
	case metaLen < 120:
		score -= 15
		recs = append(recs, fmt.Sprintf("Meta description is %d characters; 120-160 uses the SERP snippet fully", metaLen))
	case metaLen > 160:
		score -= 10
		recs = append(recs, fmt.Sprintf("Meta description is %d characters and will be truncated; keep it under 160", metaLen))
	}

	return textutil.Clamp(score), recs
}

// scoreLinks checks for internal and external markdown links.
func scoreLinks(content, siteHost string) (float64, []string) {
	score := 100.0
	recs := []string{}

	matches := markdownLinkRe.FindAllStringSubmatch(content, -1)
	internal := 0
	external := 0
	for _, m := range matches {
		target := m[1]
		switch {
		case strings.HasPrefix(target, "/") || strings.HasPrefix(target, "#"):
			internal++
		case siteHost != "" && strings.Contains(target, siteHost):
			internal++
		default:
			external++
		}
	}

	wordCount := len(textutil.Words(textutil.StripMarkdown(content)))
	if internal == 0 && wordCount > 300 {
		score -= 40
		recs = append(recs, "Add internal links to related pages")
	}
	if external == 0 && wordCount > 300 {
		score -= 25
		recs = append(recs, "Cite at least one authoritative external source")
	}
	if total := internal + external; wordCount > 0 && total > wordCount/50 && total > 5 {
		score -= 20
		recs = append(recs, "Link density is high; trim links that don't add value")
	}

	return textutil.Clamp(score), recs
}

// scoreReadability maps the Flesch band onto 0-100. Standard-to-fairly-easy
// prose is the target for general web content.
func scoreReadability(r *models.ReadabilityReport) (float64, []string) {
	if r == nil || r.WordCount == 0 {
		return 0, []string{"Content too short to score readability"}
	}

	switch {
	case r.FleschEase >= 60 && r.FleschEase <= 80:
		return 100, nil
	case r.FleschEase >= 50 && r.FleschEase < 60:
		return 80, []string{"Slightly dense prose; shorten sentences where possible"}
	case r.FleschEase > 80:
		return 85, nil
	case r.FleschEase >= 30:
		return 50, []string{"Content is difficult to read; simplify vocabulary and sentence structure"}
	default:
		return 20, []string{"Content is very difficult to read for a general audience"}
	}
}
