package scrubber

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/seolens/seolens/internal/models"
)

// invisibleRunes are the zero-width and formatting codepoints that LLM
// output and copy-paste pipelines commonly leak into prose. They are
// removed outright.
var invisibleRunes = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\u2060': true, // word joiner
	'\ufeff': true, // BOM / zero width no-break space
	'\u00ad': true, // soft hyphen
	'\u200e': true, // left-to-right mark
	'\u200f': true, // right-to-left mark
	'\u202a': true, // LTR embedding
	'\u202b': true, // RTL embedding
	'\u202c': true, // pop directional formatting
	'\u2061': true, // function application
	'\u2062': true, // invisible times
	'\u2063': true, // invisible separator
	'\u2064': true, // invisible plus
}

// spaceLikeRunes normalize to a plain ASCII space.
var spaceLikeRunes = map[rune]bool{
	'\u00a0': true, // no-break space
	'\u2009': true, // thin space
	'\u202f': true, // narrow no-break space
}

// Scrub removes invisible Unicode, normalizes exotic spaces, and replaces
// em-dashes with a comma pause. It is idempotent: running Scrub on
// already-clean text returns the input unchanged.
func Scrub(text string) *models.ScrubResult {
	result := &models.ScrubResult{
		CharsByCodepoint: map[string]int{},
	}

	var b strings.Builder
	b.Grow(len(text))

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if invisibleRunes[r] {
			result.InvisibleRemoved++
			result.CharsByCodepoint[fmt.Sprintf("U+%04X", r)]++
			continue
		}

		if spaceLikeRunes[r] {
			result.InvisibleRemoved++
			result.CharsByCodepoint[fmt.Sprintf("U+%04X", r)]++
			b.WriteRune(' ')
			continue
		}

		if r == '—' || r == '―' { // em dash, horizontal bar
			result.EmDashesReplaced++
			// "word — word" and "word—word" both become "word, word".
			// A clause already closed by punctuation gets only the space.
			trimmed := strings.TrimRight(b.String(), " ")
			b.Reset()
			b.WriteString(trimmed)
			switch {
			case trimmed == "":
			case strings.ContainsRune(",.!?;:", lastRune(trimmed)):
				b.WriteString(" ")
			default:
				b.WriteString(", ")
			}
			for i+1 < len(runes) && runes[i+1] == ' ' {
				i++
			}
			continue
		}

		b.WriteRune(r)
	}

	result.Text = b.String()
	result.Changed = result.Text != text
	if len(result.CharsByCodepoint) == 0 {
		result.CharsByCodepoint = nil
	}
	return result
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
