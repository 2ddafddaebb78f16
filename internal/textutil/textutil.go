package textutil

import (
	"regexp"
	"strings"
)

var (
	nonWordRe   = regexp.MustCompile(`[^\w\s]`)
	sentenceRe  = regexp.MustCompile(`[^.!?]+[.!?]+`)
	terminalRe  = regexp.MustCompile(`[.!?]+`)
	headerRe    = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	codeFenceRe = regexp.MustCompile("(?s)```.*?```")
	inlineMdRe  = regexp.MustCompile(`[*_\x60~]+`)
)

// Words extracts all words from text, lowercased with punctuation stripped.
func Words(text string) []string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	return strings.Fields(text)
}

// SplitSentences splits text into sentences on terminal punctuation.
// Text without terminal punctuation is treated as a single sentence.
func SplitSentences(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// CountSentences counts sentences by terminal punctuation runs.
func CountSentences(text string) int {
	matches := terminalRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return 1
	}
	return len(matches)
}

// CountParagraphs counts non-empty blocks separated by blank lines.
func CountParagraphs(text string) int {
	count := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// AverageWordLength returns the mean character length of words.
func AverageWordLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, word := range words {
		total += len(word)
	}
	return float64(total) / float64(len(words))
}

// SyllablesInWord counts syllables in a single word using vowel groups,
// with an adjustment for silent trailing e.
func SyllablesInWord(word string) int {
	word = strings.ToLower(word)
	if len(word) == 0 {
		return 0
	}

	count := 0
	vowels := "aeiouy"
	prevWasVowel := false

	for _, char := range word {
		isVowel := strings.ContainsRune(vowels, char)
		if isVowel && !prevWasVowel {
			count++
		}
		prevWasVowel = isVowel
	}

	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}

	if count == 0 {
		count = 1
	}

	return count
}

// CountSyllables counts syllables across all words in text.
func CountSyllables(text string) int {
	count := 0
	for _, word := range Words(text) {
		count += SyllablesInWord(word)
	}
	return count
}

// IsComplexWord reports whether a word has three or more syllables.
func IsComplexWord(word string) bool {
	return SyllablesInWord(word) >= 3
}

// CountComplexWords counts words with 3+ syllables.
func CountComplexWords(words []string) int {
	count := 0
	for _, word := range words {
		if IsComplexWord(word) {
			count++
		}
	}
	return count
}

// Header is one markdown heading.
type Header struct {
	Level int
	Text  string
}

// Headers extracts ATX-style markdown headings, skipping fenced code blocks.
func Headers(markdown string) []Header {
	markdown = codeFenceRe.ReplaceAllString(markdown, "")

	matches := headerRe.FindAllStringSubmatch(markdown, -1)
	headers := make([]Header, 0, len(matches))
	for _, m := range matches {
		headers = append(headers, Header{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headers
}

// StripMarkdown removes headings markers, emphasis, links, and code fences
// so scoring functions see prose rather than markup.
func StripMarkdown(markdown string) string {
	text := codeFenceRe.ReplaceAllString(markdown, "")
	text = regexp.MustCompile(`(?m)^#{1,6}\s+`).ReplaceAllString(text, "")
	// [label](url) -> label
	text = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`).ReplaceAllString(text, "$1")
	text = inlineMdRe.ReplaceAllString(text, "")
	return text
}

// LetterGrade maps a 0-100 score to a letter grade. Lower boundaries are
// inclusive: 90 is an A, 59 is an F.
func LetterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Clamp bounds a score to [0,100].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
