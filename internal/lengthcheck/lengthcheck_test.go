package lengthcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seolens/seolens/internal/sources"
)

func competitorServer(t *testing.T, pages map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		words, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body := strings.Repeat("tomato ", words)
		fmt.Fprintf(w, `<html><head><title>Page %s</title><script>var x = "ignored words here";</script></head>
<body><nav>home about contact</nav><article>%s</article><footer>copyright words</footer></body></html>`,
			r.URL.Path, body)
	}))
}

func TestCompare(t *testing.T) {
	srv := competitorServer(t, map[string]int{
		"/a": 500,
		"/b": 1000,
		"/c": 1500,
		"/d": 2000,
	})
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()), WithConcurrency(2))

	own := strings.Repeat("word ", 800)
	result, err := c.Compare(context.Background(), own,
		[]string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/c", srv.URL + "/d"})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if result.OwnWordCount != 800 {
		t.Errorf("own word count = %d, want 800", result.OwnWordCount)
	}
	if result.Min != 500 || result.Max != 2000 {
		t.Errorf("min/max = %d/%d, want 500/2000", result.Min, result.Max)
	}
	if result.Median != 1000 {
		t.Errorf("median = %d, want 1000", result.Median)
	}
	if result.TargetWordCount != result.P75 {
		t.Errorf("target should be p75, got %d vs %d", result.TargetWordCount, result.P75)
	}
	if result.Recommendation == "" {
		t.Error("recommendation should be populated")
	}
}

func TestCompareSkipsScriptAndNav(t *testing.T) {
	srv := competitorServer(t, map[string]int{"/p": 100})
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()))
	result, err := c.Compare(context.Background(), "short own text", []string{srv.URL + "/p"})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	// script/nav/footer words must not count: exactly the 100 article words
	if got := result.Competitors[0].WordCount; got != 100 {
		t.Errorf("word count = %d, want 100 (boilerplate leaked in)", got)
	}
	if !strings.HasPrefix(result.Competitors[0].Title, "Page ") {
		t.Errorf("title not extracted: %q", result.Competitors[0].Title)
	}
}

func TestComparePartialFailure(t *testing.T) {
	srv := competitorServer(t, map[string]int{"/ok": 700})
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()))
	result, err := c.Compare(context.Background(), "own",
		[]string{srv.URL + "/ok", srv.URL + "/missing"})
	if err != nil {
		t.Fatalf("partial failure should not be fatal: %v", err)
	}

	if result.Competitors[1].Error == "" {
		t.Error("missing page should record an error")
	}
	if result.Median != 700 {
		t.Errorf("stats should use the successful fetch only, got median %d", result.Median)
	}
}

func TestCompareAllFailed(t *testing.T) {
	srv := competitorServer(t, nil)
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()))
	_, err := c.Compare(context.Background(), "own", []string{srv.URL + "/nope"})
	if err == nil {
		t.Error("expected an error when every fetch fails")
	}
}

func TestCompareNoURLs(t *testing.T) {
	c := New()
	if _, err := c.Compare(context.Background(), "own", nil); err == nil {
		t.Error("expected an error for empty URL list")
	}
}

func TestPercentile(t *testing.T) {
	sorted := []int{100, 200, 300, 400}
	if p := percentile(sorted, 50); p != 200 {
		t.Errorf("p50 = %d, want 200", p)
	}
	if p := percentile(sorted, 75); p != 300 {
		t.Errorf("p75 = %d, want 300", p)
	}
	if p := percentile(nil, 50); p != 0 {
		t.Errorf("empty percentile = %d, want 0", p)
	}
}

type stubSERP struct {
	results []sources.SERPResult
	err     error
	gotKW   string
}

func (s *stubSERP) OrganicSERP(ctx context.Context, kw string, limit int) ([]sources.SERPResult, error) {
	s.gotKW = kw
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestCompareKeyword(t *testing.T) {
	srv := competitorServer(t, map[string]int{
		"/rival-1": 600,
		"/rival-2": 1200,
	})
	defer srv.Close()

	serp := &stubSERP{results: []sources.SERPResult{
		{Position: 1, URL: "https://example.com/our-own-page", Domain: "example.com"},
		{Position: 2, URL: srv.URL + "/rival-1", Domain: "rival.test"},
		{Position: 3, URL: srv.URL + "/rival-2", Domain: "other.test"},
	}}

	c := New(
		WithHTTPClient(srv.Client()),
		WithSERPSource(serp),
		WithSiteHost("example.com"),
	)

	result, err := c.CompareKeyword(context.Background(), strings.Repeat("word ", 700), "tomato growing")
	if err != nil {
		t.Fatalf("CompareKeyword failed: %v", err)
	}
	if serp.gotKW != "tomato growing" {
		t.Errorf("keyword passed through as %q", serp.gotKW)
	}

	// The site's own page must not be fetched as a competitor.
	if len(result.Competitors) != 2 {
		t.Fatalf("expected 2 competitors, got %d", len(result.Competitors))
	}
	for _, p := range result.Competitors {
		if strings.Contains(p.URL, "our-own-page") {
			t.Errorf("own page fetched as competitor: %s", p.URL)
		}
	}
	if result.Min != 600 || result.Max != 1200 {
		t.Errorf("min/max = %d/%d, want 600/1200", result.Min, result.Max)
	}
}

func TestCompareKeywordNoSource(t *testing.T) {
	c := New()

	_, err := c.CompareKeyword(context.Background(), "text", "tomato growing")
	if !errors.Is(err, ErrNoSERPSource) {
		t.Errorf("expected ErrNoSERPSource, got %v", err)
	}
}

func TestCompareKeywordOnlyOwnResults(t *testing.T) {
	serp := &stubSERP{results: []sources.SERPResult{
		{Position: 1, URL: "https://example.com/a", Domain: "example.com"},
	}}
	c := New(WithSERPSource(serp), WithSiteHost("example.com"))

	if _, err := c.CompareKeyword(context.Background(), "text", "tomato"); err == nil {
		t.Error("expected an error when every result is the site's own")
	}
}
