package keyword

import (
	"fmt"
	"strings"

	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/textutil"
)

// Density bands, expressed as percentages of total words.
// 1-2.5% is the generally accepted target range for a primary keyword.
const (
	tooLowBound       = 0.5
	optimalLowBound   = 1.0
	optimalHighBound  = 2.5
	slightlyHighBound = 3.5
)

// Analyzer scores a single keyword against one markdown document.
type Analyzer struct{}

// New creates a new keyword Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze computes density, placement, and stuffing risk for the keyword.
// Title and metaDesc may be empty; placement checks degrade accordingly.
func (a *Analyzer) Analyze(content, kw, title, metaDesc string) *models.KeywordAnalysis {
	result := &models.KeywordAnalysis{
		Keyword:         strings.ToLower(strings.TrimSpace(kw)),
		Recommendations: []string{},
	}
	if result.Keyword == "" {
		return result
	}

	prose := textutil.StripMarkdown(content)
	words := textutil.Words(prose)
	kwWords := textutil.Words(result.Keyword)

	result.TotalWords = len(words)
	result.Occurrences, result.MaxConsecutive = countPhrase(words, kwWords)

	if result.TotalWords > 0 {
		result.Density = round2(float64(result.Occurrences*len(kwWords)) / float64(result.TotalWords) * 100)
	}
	result.DensityStatus = classifyDensity(result.Density, result.Occurrences)

	// Placement
	result.InTitle = containsKeyword(title, result.Keyword)
	result.InMetaDesc = containsKeyword(metaDesc, result.Keyword)
	result.InFirstHundred = inFirstN(words, kwWords, 100)
	for _, h := range textutil.Headers(content) {
		if containsKeyword(h.Text, result.Keyword) {
			result.InHeaders++
		}
	}

	result.Variations = findVariations(words, kwWords)
	result.StuffingRisk = classifyStuffingRisk(content, result)
	result.Recommendations = buildRecommendations(result, title, metaDesc)

	return result
}

// countPhrase counts non-overlapping keyword phrase matches over the word
// stream and the longest run of back-to-back matches.
func countPhrase(words, kwWords []string) (count, maxConsecutive int) {
	if len(kwWords) == 0 || len(words) < len(kwWords) {
		return 0, 0
	}

	consecutive := 0
	i := 0
	for i+len(kwWords) <= len(words) {
		if matchAt(words, kwWords, i) {
			count++
			consecutive++
			if consecutive > maxConsecutive {
				maxConsecutive = consecutive
			}
			i += len(kwWords)
		} else {
			consecutive = 0
			i++
		}
	}
	return count, maxConsecutive
}

func matchAt(words, kwWords []string, i int) bool {
	for j, kw := range kwWords {
		if words[i+j] != kw {
			return false
		}
	}
	return true
}

func inFirstN(words, kwWords []string, n int) bool {
	if n > len(words) {
		n = len(words)
	}
	count, _ := countPhrase(words[:n], kwWords)
	return count > 0
}

func containsKeyword(text, kw string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), kw)
}

// classifyDensity maps a density percentage to a status. Zero occurrences
// is always too_low regardless of band arithmetic.
func classifyDensity(density float64, occurrences int) string {
	switch {
	case occurrences == 0 || density < tooLowBound:
		return "too_low"
	case density < optimalLowBound:
		return "slightly_low"
	case density <= optimalHighBound:
		return "optimal"
	case density <= slightlyHighBound:
		return "slightly_high"
	default:
		return "too_high"
	}
}

// findVariations returns distinct tokens that share the keyword's stem but
// are not exact matches (plurals, -ing/-ed forms).
func findVariations(words, kwWords []string) []string {
	if len(kwWords) == 0 {
		return nil
	}
	stem := kwWords[len(kwWords)-1]
	if len(stem) < 4 {
		return nil
	}

	seen := make(map[string]bool)
	var variations []string
	for _, w := range words {
		if w == stem || !strings.HasPrefix(w, stem) {
			continue
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		variations = append(variations, w)
	}
	return variations
}

// classifyStuffingRisk flags repetitive keyword use: back-to-back repeats,
// over-dense paragraphs, or overall density past the acceptable band.
func classifyStuffingRisk(content string, r *models.KeywordAnalysis) string {
	if r.Occurrences == 0 {
		return "low"
	}
	if r.MaxConsecutive >= 3 || r.Density > slightlyHighBound {
		return "high"
	}

	// A single paragraph carrying well over the optimal band is a medium
	// signal even when the document-level density looks fine.
	kwWords := textutil.Words(r.Keyword)
	for _, para := range strings.Split(content, "\n\n") {
		words := textutil.Words(textutil.StripMarkdown(para))
		if len(words) < 20 {
			continue
		}
		count, _ := countPhrase(words, kwWords)
		paraDensity := float64(count*len(kwWords)) / float64(len(words)) * 100
		if paraDensity > 2*optimalHighBound {
			return "medium"
		}
	}

	if r.MaxConsecutive == 2 || r.Density > optimalHighBound {
		return "medium"
	}
	return "low"
}

func buildRecommendations(r *models.KeywordAnalysis, title, metaDesc string) []string {
	recs := []string{}

	switch r.DensityStatus {
	case "too_low":
		recs = append(recs, fmt.Sprintf("Keyword density is %.2f%%; add natural mentions of %q to reach 1-2.5%%", r.Density, r.Keyword))
	case "slightly_low":
		recs = append(recs, fmt.Sprintf("Keyword density is %.2f%%, just under the target band; one or two more mentions would help", r.Density))
	case "slightly_high":
		recs = append(recs, fmt.Sprintf("Keyword density is %.2f%%; replace a few mentions with synonyms or pronouns", r.Density))
	case "too_high":
		recs = append(recs, fmt.Sprintf("Keyword density is %.2f%%, well above the safe band; this risks a stuffing penalty", r.Density))
	}

	if title != "" && !r.InTitle {
		recs = append(recs, "Include the keyword in the title")
	}
	if !r.InFirstHundred && r.TotalWords >= 100 {
		recs = append(recs, "Mention the keyword within the first 100 words")
	}
	if r.InHeaders == 0 && r.Occurrences > 0 {
		recs = append(recs, "Use the keyword in at least one subheading")
	}
	if metaDesc != "" && !r.InMetaDesc {
		recs = append(recs, "Include the keyword in the meta description")
	}
	if r.StuffingRisk == "high" {
		recs = append(recs, "Keyword stuffing risk is high; vary phrasing and spread mentions across sections")
	}

	return recs
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
