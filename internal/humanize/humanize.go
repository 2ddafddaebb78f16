package humanize

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/seolens/seolens/internal/models"
)

var (
	compileOnce   sync.Once
	compiledRules []compiledRule
)

type compiledRule struct {
	re          *regexp.Regexp
	pattern     string
	replacement string
}

func compiled() []compiledRule {
	compileOnce.Do(func() {
		compiledRules = make([]compiledRule, 0, len(rules))
		for _, r := range rules {
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(r.pattern))
			compiledRules = append(compiledRules, compiledRule{
				re:          re,
				pattern:     r.pattern,
				replacement: r.replacement,
			})
		}
	})
	return compiledRules
}

// Apply rewrites AI-sounding phrases using the static rule table and
// reports every rule that fired. Text with no tells passes through
// unchanged.
func Apply(text string) *models.HumanizeResult {
	result := &models.HumanizeResult{Text: text}

	for _, cr := range compiled() {
		matches := cr.re.FindAllString(result.Text, -1)
		if len(matches) == 0 {
			continue
		}

		result.Text = cr.re.ReplaceAllStringFunc(result.Text, func(m string) string {
			return matchCase(m, cr.replacement)
		})
		result.Replacements += len(matches)
		result.RuleHits = append(result.RuleHits, models.RuleHit{
			Pattern:     cr.pattern,
			Replacement: cr.replacement,
			Count:       len(matches),
		})
	}

	if result.Replacements > 0 {
		result.Text = tidy(result.Text)
	}
	return result
}

// matchCase carries the capitalization of the matched phrase over to the
// replacement so sentence starts stay capitalized.
func matchCase(matched, replacement string) string {
	if replacement == "" {
		return ""
	}
	r := []rune(matched)
	if len(r) > 0 && unicode.IsUpper(r[0]) {
		rep := []rune(replacement)
		rep[0] = unicode.ToUpper(rep[0])
		return string(rep)
	}
	return replacement
}

var (
	multiSpaceRe    = regexp.MustCompile(`[^\S\n]{2,}`)
	spacePunctRe    = regexp.MustCompile(`\s+([,.;:!?])`)
	orphanCommaRe   = regexp.MustCompile(`(?m)^[,.;:]\s*`)
	lowerStartRe    = regexp.MustCompile(`(?m)(^|[.!?]\s+)([a-z])`)
	leadingSpaceRe  = regexp.MustCompile(`(?m)^[ \t]+`)
	trailingSpaceRe = regexp.MustCompile(`(?m)[ \t]+$`)
)

// tidy repairs the seams left by phrase deletion: doubled spaces, commas
// stranded at line starts, and lowercase letters opening a sentence.
func tidy(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = spacePunctRe.ReplaceAllString(text, "$1")
	text = orphanCommaRe.ReplaceAllString(text, "")
	text = leadingSpaceRe.ReplaceAllString(text, "")
	text = trailingSpaceRe.ReplaceAllString(text, "")
	text = lowerStartRe.ReplaceAllStringFunc(text, strings.ToUpper)
	return text
}
