package readability

import (
	"math"

	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/textutil"
)

// Score computes the classic readability formulas over markdown content.
// Markup is stripped first so headings and link URLs don't skew the counts.
func Score(content string) *models.ReadabilityReport {
	prose := textutil.StripMarkdown(content)
	words := textutil.Words(prose)
	sentences := textutil.SplitSentences(prose)

	report := &models.ReadabilityReport{
		WordCount:     len(words),
		SentenceCount: len(sentences),
	}
	if report.WordCount == 0 || report.SentenceCount == 0 {
		return report
	}

	characters := 0
	for _, w := range words {
		report.SyllableCount += textutil.SyllablesInWord(w)
		characters += len(w)
	}
	report.ComplexWordCount = textutil.CountComplexWords(words)

	wordsPerSentence := float64(report.WordCount) / float64(report.SentenceCount)
	syllablesPerWord := float64(report.SyllableCount) / float64(report.WordCount)
	complexRatio := float64(report.ComplexWordCount) / float64(report.WordCount)
	charsPerWord := float64(characters) / float64(report.WordCount)

	report.FleschEase = round2(206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord)
	report.FleschLevel = fleschLevel(report.FleschEase)
	report.FleschKincaid = round2(0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59)
	report.GunningFog = round2(0.4 * (wordsPerSentence + 100*complexRatio))

	// SMOG is defined over 30-sentence samples; the polysyllable count is
	// scaled when the document is shorter.
	polysyllables := float64(report.ComplexWordCount) * 30 / float64(report.SentenceCount)
	report.SMOG = round2(1.0430*math.Sqrt(polysyllables) + 3.1291)

	report.ARI = round2(4.71*charsPerWord + 0.5*wordsPerSentence - 21.43)

	grades := []float64{report.FleschKincaid, report.GunningFog, report.SMOG, report.ARI}
	sum := 0.0
	for _, g := range grades {
		if g < 0 {
			g = 0
		}
		sum += g
	}
	report.AvgGradeLevel = round2(sum / float64(len(grades)))

	return report
}

// fleschLevel maps a Flesch Reading Ease score to a level label.
func fleschLevel(score float64) string {
	switch {
	case score >= 90:
		return "very_easy"
	case score >= 80:
		return "easy"
	case score >= 70:
		return "fairly_easy"
	case score >= 60:
		return "standard"
	case score >= 50:
		return "fairly_difficult"
	case score >= 30:
		return "difficult"
	default:
		return "very_difficult"
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
