package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/seolens/seolens/internal/audit"
	"github.com/seolens/seolens/internal/database"
	"github.com/seolens/seolens/internal/lengthcheck"
	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/sources"
)

type stubQueue struct {
	enqueued []string
	fail     bool
}

func (s *stubQueue) EnqueueAuditContent(ctx context.Context, reportID, content, keyword, title, metaDesc string) (string, error) {
	if s.fail {
		return "", errors.New("redis unavailable")
	}
	s.enqueued = append(s.enqueued, reportID)
	return "task-" + reportID, nil
}

type stubInsights struct {
	days int
	err  error
}

func (s *stubInsights) Insights(ctx context.Context, days int) (*models.PerformanceInsights, error) {
	s.days = days
	if s.err != nil {
		return nil, s.err
	}
	return &models.PerformanceInsights{
		Recommendations: []string{"Publish more often"},
		GeneratedAt:     time.Now(),
	}, nil
}

func setupTestHandler(t *testing.T, queue AuditEnqueuer, insights InsightsProvider) (http.Handler, *database.DB) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	engine := audit.New("example.com")
	return NewHandler(db, engine, queue, lengthcheck.New(), insights), db
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", resp["status"])
	}
}

func TestAuditEnqueues(t *testing.T) {
	queue := &stubQueue{}
	handler, _ := setupTestHandler(t, queue, nil)

	w := postJSON(t, handler, "/api/audit", map[string]string{
		"content": "Some long article about keyword research.",
		"keyword": "keyword research",
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "queued" {
		t.Errorf("Expected queued status, got %v", resp["status"])
	}
	if resp["job_id"] == "" {
		t.Error("Expected non-empty job_id")
	}
	if len(queue.enqueued) != 1 {
		t.Errorf("Expected 1 enqueued task, got %d", len(queue.enqueued))
	}
}

func TestAuditRequiresContent(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/audit", map[string]string{"keyword": "seo"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestAuditWithoutQueue(t *testing.T) {
	handler, _ := setupTestHandler(t, nil, nil)

	w := postJSON(t, handler, "/api/audit", map[string]string{"content": "text"})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestAuditEnqueueFailure(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{fail: true}, nil)

	w := postJSON(t, handler, "/api/audit", map[string]string{"content": "text"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestJobStatusNotFound(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/nonexistent", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "not_found" {
		t.Errorf("Expected not_found status, got %v", resp["status"])
	}
}

func TestJobStatusCompletedOfflineOnly(t *testing.T) {
	handler, db := setupTestHandler(t, &stubQueue{}, nil)

	engine := audit.New("example.com")
	result := engine.AuditOffline(audit.Request{Content: "Short content."})
	report := &models.AuditReport{
		ID:        "job-1",
		Content:   "Short content.",
		Result:    result,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.SaveReport(report); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)
	status, _ := resp["status"].(string)
	if status != "completed_offline_only" && status != "processing" {
		t.Errorf("Unexpected status %q", status)
	}
	if status == "completed_offline_only" && resp["report"] == nil {
		t.Error("Expected report in completed response")
	}
}

func TestAnalyzeKeywordsSync(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/analyze/keywords", map[string]string{
		"content": "Keyword research matters. Good keyword research takes time. Keyword research pays off.",
		"keyword": "keyword research",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var analysis models.KeywordAnalysis
	if err := json.NewDecoder(w.Body).Decode(&analysis); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if analysis.Occurrences < 3 {
		t.Errorf("Expected at least 3 occurrences, got %d", analysis.Occurrences)
	}
}

func TestAnalyzeKeywordsRequiresKeyword(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/analyze/keywords", map[string]string{"content": "text"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestAnalyzeReadabilitySync(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/analyze/readability", map[string]string{
		"content": "The cat sat on the mat. The dog ran fast. Birds fly high in the sky.",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var report models.ReadabilityReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if report.FleschEase <= 0 {
		t.Errorf("Expected positive reading ease for simple text, got %f", report.FleschEase)
	}
}

func TestAnalyzeQualitySync(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/analyze/quality", map[string]string{
		"content": "# Guide\n\nA full guide to content quality. It covers structure and depth.",
		"keyword": "content quality",
		"title":   "Content Quality Guide",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var result models.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Quality == nil {
		t.Fatal("Expected quality report in result")
	}
	if result.Quality.Total < 0 || result.Quality.Total > 100 {
		t.Errorf("Quality total out of range: %f", result.Quality.Total)
	}
}

func TestScrubEndpoint(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/scrub", map[string]string{
		"content": "Hello\u200bworld — clean me",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var result models.ScrubResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.InvisibleRemoved != 1 {
		t.Errorf("Expected 1 invisible character removed, got %d", result.InvisibleRemoved)
	}
}

func TestHumanizeEndpoint(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/humanize", map[string]string{
		"content": "Let's delve into the ever-evolving landscape of SEO.",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var result models.HumanizeResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Replacements == 0 {
		t.Error("Expected at least one replacement for AI-flavored text")
	}
}

func TestCompareLengthValidation(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/compare/length", map[string]interface{}{
		"content": "My article text.",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without URLs, got %d", w.Code)
	}
}

func TestCompareLength(t *testing.T) {
	competitor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>one two three four five six seven eight nine ten</p></body></html>")
	}))
	defer competitor.Close()

	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/compare/length", map[string]interface{}{
		"content":         "only three words",
		"competitor_urls": []string{competitor.URL},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var comparison models.LengthComparison
	if err := json.NewDecoder(w.Body).Decode(&comparison); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if comparison.OwnWordCount != 3 {
		t.Errorf("Expected own word count 3, got %d", comparison.OwnWordCount)
	}
	if len(comparison.Competitors) != 1 {
		t.Fatalf("Expected 1 competitor, got %d", len(comparison.Competitors))
	}
}

func TestInsightsEndpoint(t *testing.T) {
	provider := &stubInsights{}
	handler, _ := setupTestHandler(t, &stubQueue{}, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/insights?days=7", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if provider.days != 7 {
		t.Errorf("Expected days=7 passed through, got %d", provider.days)
	}
}

func TestInsightsUnconfigured(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestListReportsPagination(t *testing.T) {
	handler, db := setupTestHandler(t, &stubQueue{}, nil)

	engine := audit.New("example.com")
	for i := 0; i < 3; i++ {
		result := engine.AuditOffline(audit.Request{Content: "Some content."})
		report := &models.AuditReport{
			ID:        fmt.Sprintf("report-%d", i),
			Content:   "Some content.",
			Result:    result,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
			UpdatedAt: time.Now(),
		}
		if err := db.SaveReport(report); err != nil {
			t.Fatalf("Failed to save report: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports?limit=2", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var reports []*models.AuditReport
	if err := json.NewDecoder(w.Body).Decode(&reports); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(reports) != 2 {
		t.Errorf("Expected 2 reports, got %d", len(reports))
	}
}

func TestGetAndDeleteReport(t *testing.T) {
	handler, db := setupTestHandler(t, &stubQueue{}, nil)

	engine := audit.New("example.com")
	result := engine.AuditOffline(audit.Request{Content: "Content to delete."})
	report := &models.AuditReport{
		ID:        "doomed",
		Content:   "Content to delete.",
		Result:    result,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.SaveReport(report); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports/doomed", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on get, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/reports/doomed", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204 on delete, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/reports/doomed", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestSearchRequiresParameter(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestSearchByKeyword(t *testing.T) {
	handler, db := setupTestHandler(t, &stubQueue{}, nil)

	engine := audit.New("example.com")
	result := engine.AuditOffline(audit.Request{Content: "Content.", Keyword: "link building"})
	report := &models.AuditReport{
		ID:        "kw-1",
		Content:   "Content.",
		Keyword:   "link building",
		Result:    result,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.SaveReport(report); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search?keyword=link+building", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var reports []*models.AuditReport
	if err := json.NewDecoder(w.Body).Decode(&reports); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("Expected 1 report, got %d", len(reports))
	}
}

type stubSERP struct {
	results []sources.SERPResult
}

func (s *stubSERP) OrganicSERP(ctx context.Context, kw string, limit int) ([]sources.SERPResult, error) {
	return s.results, nil
}

func TestCompareLengthByKeyword(t *testing.T) {
	competitor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>one two three four five six seven eight</p></body></html>")
	}))
	defer competitor.Close()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	serp := &stubSERP{results: []sources.SERPResult{
		{Position: 1, URL: "https://example.com/own", Domain: "example.com"},
		{Position: 2, URL: competitor.URL + "/rival", Domain: "rival.test"},
	}}
	comparator := lengthcheck.New(
		lengthcheck.WithSERPSource(serp),
		lengthcheck.WithSiteHost("example.com"),
	)
	handler := NewHandler(db, audit.New("example.com"), &stubQueue{}, comparator, nil)

	w := postJSON(t, handler, "/api/compare/length", map[string]interface{}{
		"content": "just four little words",
		"keyword": "tomato growing",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var comparison models.LengthComparison
	if err := json.NewDecoder(w.Body).Decode(&comparison); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(comparison.Competitors) != 1 {
		t.Fatalf("Expected 1 competitor after own-domain filtering, got %d", len(comparison.Competitors))
	}
}

func TestCompareLengthByKeywordUnconfigured(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	w := postJSON(t, handler, "/api/compare/length", map[string]interface{}{
		"content": "text",
		"keyword": "tomato growing",
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 without a SERP source, got %d", w.Code)
	}
}

func TestReportRecommendations(t *testing.T) {
	handler, db := setupTestHandler(t, &stubQueue{}, nil)

	engine := audit.New("example.com")
	result := engine.AuditOffline(audit.Request{
		Content: "Short thin content.",
		Keyword: "some keyword",
	})
	report := &models.AuditReport{
		ID:        "rec-1",
		Content:   "Short thin content.",
		Keyword:   "some keyword",
		Result:    result,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.SaveReport(report); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports/rec-1/recommendations", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var recs map[string][]string
	if err := json.NewDecoder(w.Body).Decode(&recs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(recs) == 0 {
		t.Error("Expected stored recommendations for thin content")
	}
}

func TestReportRecommendationsNotFound(t *testing.T) {
	handler, _ := setupTestHandler(t, &stubQueue{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/missing/recommendations", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
