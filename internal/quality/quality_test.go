package quality

import (
	"strings"
	"testing"

	"github.com/seolens/seolens/internal/keyword"
	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/readability"
)

func wellFormedArticle() string {
	var b strings.Builder
	b.WriteString("# Growing Tomatoes at Home\n\n")
	b.WriteString("Growing tomatoes is simple once you know the basics. This guide covers soil, light, and water for healthy tomatoes.\n\n")
	b.WriteString("## Soil and Light\n\n")
	for i := 0; i < 30; i++ {
		b.WriteString("Tomato plants like rich soil and six hours of direct sun each day. Water them at the base to keep leaves dry. ")
	}
	b.WriteString("\n\n## Watering\n\n")
	for i := 0; i < 10; i++ {
		b.WriteString("Deep, less frequent watering grows stronger roots than daily light watering. ")
	}
	b.WriteString("See our [soil guide](/guides/soil) and this [university study](https://extension.example.edu/tomatoes).\n")
	return b.String()
}

func rate(t *testing.T, content, kw, title, meta string) *models.QualityReport {
	t.Helper()
	ka := keyword.New().Analyze(content, kw, title, meta)
	rr := readability.Score(content)
	return Rate(Input{
		Content:     content,
		Title:       title,
		MetaDesc:    meta,
		Keyword:     ka,
		Readability: rr,
	})
}

func TestRateWellFormedArticle(t *testing.T) {
	title := "Growing Tomatoes at Home: A Practical Guide"
	meta := "Learn how to grow tomatoes at home with practical advice on soil preparation, sunlight, and watering schedules for healthy plants all season."

	report := rate(t, wellFormedArticle(), "tomatoes", title, meta)

	if report.Total < 70 {
		t.Errorf("expected a well-formed article to score at least 70, got %v (grade %s)", report.Total, report.Grade)
	}
	if report.Structure < 80 {
		t.Errorf("expected strong structure score, got %v", report.Structure)
	}
	if report.Grade == "F" {
		t.Errorf("unexpected grade F: %+v", report)
	}
}

func TestRateThinContent(t *testing.T) {
	report := rate(t, "Buy our widgets. They are great.", "widgets", "", "")

	if report.Total >= 60 {
		t.Errorf("expected thin content to score below 60, got %v", report.Total)
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected recommendations for thin content")
	}
}

func TestTotalStaysInBounds(t *testing.T) {
	inputs := []Input{
		{},
		{Content: strings.Repeat("word ", 5000)},
		{Content: "# A\n# B\n# C\nshort"},
	}
	for _, in := range inputs {
		report := Rate(in)
		if report.Total < 0 || report.Total > 100 {
			t.Errorf("total out of bounds: %v", report.Total)
		}
		for _, sub := range []float64{report.Structure, report.Keyword, report.Meta, report.Links, report.Readability} {
			if sub < 0 || sub > 100 {
				t.Errorf("sub-score out of bounds: %v", sub)
			}
		}
	}
}

func TestGradeMatchesTotal(t *testing.T) {
	// LetterGrade boundaries are covered in textutil; here we confirm Rate
	// always derives the grade from its own total.
	for _, content := range []string{"", "short text.", wellFormedArticle()} {
		r := Rate(Input{Content: content})
		if r.Grade == "" {
			t.Fatal("grade should always be populated")
		}
		want := "F"
		switch {
		case r.Total >= 90:
			want = "A"
		case r.Total >= 80:
			want = "B"
		case r.Total >= 70:
			want = "C"
		case r.Total >= 60:
			want = "D"
		}
		if r.Grade != want {
			t.Errorf("total %v got grade %q, want %q", r.Total, r.Grade, want)
		}
	}
}

func TestMetaScoring(t *testing.T) {
	score, recs := scoreMeta("", "")
	if score > 20 {
		t.Errorf("missing title and meta should score low, got %v", score)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 recommendations, got %v", recs)
	}

	goodTitle := "A Title That Sits Comfortably In The Band"
	goodMeta := strings.Repeat("A tidy meta description sentence. ", 5)[:140]
	score, recs = scoreMeta(goodTitle, goodMeta)
	if score != 100 {
		t.Errorf("expected 100 for in-band title and meta, got %v (%v)", score, recs)
	}
}

func TestLinkScoring(t *testing.T) {
	longProse := strings.Repeat("Plain prose without any links keeps going for a while. ", 40)
	score, recs := scoreLinks(longProse, "")
	if score > 50 {
		t.Errorf("linkless long content should be penalized, got %v", score)
	}
	if len(recs) != 2 {
		t.Errorf("expected internal and external link recommendations, got %v", recs)
	}

	linked := longProse + " [guide](/a) and [study](https://b.example.com)"
	score, _ = scoreLinks(linked, "")
	if score != 100 {
		t.Errorf("expected 100 with both link kinds, got %v", score)
	}
}
