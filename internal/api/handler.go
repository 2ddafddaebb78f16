package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/seolens/seolens/internal/audit"
	"github.com/seolens/seolens/internal/database"
	"github.com/seolens/seolens/internal/humanize"
	"github.com/seolens/seolens/internal/lengthcheck"
	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/scrubber"
	"github.com/seolens/seolens/internal/tracing"
)

// AuditEnqueuer enqueues two-stage content audits.
type AuditEnqueuer interface {
	EnqueueAuditContent(ctx context.Context, reportID, content, keyword, title, metaDesc string) (string, error)
}

// InsightsProvider pulls merged performance insights.
type InsightsProvider interface {
	Insights(ctx context.Context, days int) (*models.PerformanceInsights, error)
}

// Handler handles HTTP requests
type Handler struct {
	db          *database.DB
	engine      *audit.Engine
	queueClient AuditEnqueuer
	comparator  *lengthcheck.Comparator
	insights    InsightsProvider
	mux         *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics.
// queueClient and insights may be nil; the matching endpoints then
// report the feature as unavailable.
func NewHandler(db *database.DB, engine *audit.Engine, queueClient AuditEnqueuer, comparator *lengthcheck.Comparator, insights InsightsProvider) http.Handler {
	h := &Handler{
		db:          db,
		engine:      engine,
		queueClient: queueClient,
		comparator:  comparator,
		insights:    insights,
		mux:         http.NewServeMux(),
	}

	h.setupRoutes()

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Wrap with CORS
	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler()) // Prometheus metrics endpoint
	h.mux.HandleFunc("/api/audit", h.handleAudit)
	h.mux.HandleFunc("/api/jobs/", h.handleJobStatus)
	h.mux.HandleFunc("/api/analyze/keywords", h.handleAnalyzeKeywords)
	h.mux.HandleFunc("/api/analyze/readability", h.handleAnalyzeReadability)
	h.mux.HandleFunc("/api/analyze/quality", h.handleAnalyzeQuality)
	h.mux.HandleFunc("/api/scrub", h.handleScrub)
	h.mux.HandleFunc("/api/humanize", h.handleHumanize)
	h.mux.HandleFunc("/api/compare/length", h.handleCompareLength)
	h.mux.HandleFunc("/api/insights", h.handleInsights)
	h.mux.HandleFunc("/api/reports", h.handleListReports)
	h.mux.HandleFunc("/api/reports/", h.handleReportOperations)
	h.mux.HandleFunc("/api/search", h.handleSearch)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// auditRequest is the body shared by the audit and sync analyze endpoints.
type auditRequest struct {
	Content  string `json:"content"`
	Keyword  string `json:"keyword,omitempty"`
	Title    string `json:"title,omitempty"`
	MetaDesc string `json:"meta_description,omitempty"`
}

func decodeAuditRequest(w http.ResponseWriter, r *http.Request) (*auditRequest, bool) {
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if req.Content == "" {
		respondError(w, "Content field is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleAudit queues a two-stage content audit
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.queueClient == nil {
		respondError(w, "Audit queue is not configured", http.StatusServiceUnavailable)
		return
	}

	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("content.length", len(req.Content)),
		attribute.String("keyword", req.Keyword))

	reportID := generateID()

	ctx := r.Context()
	taskID, err := h.queueClient.EnqueueAuditContent(ctx, reportID, req.Content, req.Keyword, req.Title, req.MetaDesc)
	if err != nil {
		respondError(w, fmt.Sprintf("Failed to enqueue audit: %v", err), http.StatusInternalServerError)
		return
	}

	// Return job ID immediately
	respondJSON(w, map[string]interface{}{
		"job_id":  reportID,
		"task_id": taskID,
		"status":  "queued",
		"message": "Audit queued for processing",
	}, http.StatusAccepted)
}

// handleJobStatus handles job status requests
func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract job ID from path
	jobID := r.URL.Path[len("/api/jobs/"):]
	if idx := strings.Index(jobID, "/"); idx != -1 {
		jobID = jobID[:idx]
	}

	if jobID == "" {
		respondError(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	report, err := h.db.GetReport(jobID)
	if err != nil {
		if errors.Is(err, database.ErrReportNotFound) {
			respondJSON(w, map[string]interface{}{
				"job_id":  jobID,
				"status":  "not_found",
				"message": "Report not found - it may still be queued or has expired",
			}, http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// The offline stage always lands first; the job is still processing
	// while an enrichment pass is pending.
	status := "completed"
	if !report.Result.AIUsed {
		if h.engine.ShouldEnrich(&report.Result) {
			status = "processing" // Offline complete, AI enrichment pending
		} else {
			status = "completed_offline_only"
		}
	}

	response := map[string]interface{}{
		"job_id":     jobID,
		"status":     status,
		"created_at": report.CreatedAt,
		"updated_at": report.UpdatedAt,
	}

	if status == "completed" || status == "completed_offline_only" {
		response["report"] = report
	}

	respondJSON(w, response, http.StatusOK)
}

// handleAnalyzeKeywords runs synchronous keyword density analysis
func (h *Handler) handleAnalyzeKeywords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}
	if req.Keyword == "" {
		respondError(w, "Keyword field is required", http.StatusBadRequest)
		return
	}

	result := h.engine.AuditOffline(audit.Request{
		Content:  req.Content,
		Keyword:  req.Keyword,
		Title:    req.Title,
		MetaDesc: req.MetaDesc,
	})
	respondJSON(w, result.Keyword, http.StatusOK)
}

// handleAnalyzeReadability runs synchronous readability scoring
func (h *Handler) handleAnalyzeReadability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}

	result := h.engine.AuditOffline(audit.Request{Content: req.Content})
	respondJSON(w, result.Readability, http.StatusOK)
}

// handleAnalyzeQuality runs the full synchronous offline audit
func (h *Handler) handleAnalyzeQuality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}

	result := h.engine.AuditOffline(audit.Request{
		Content:  req.Content,
		Keyword:  req.Keyword,
		Title:    req.Title,
		MetaDesc: req.MetaDesc,
	})
	respondJSON(w, result, http.StatusOK)
}

// handleScrub removes invisible characters and AI punctuation tells
func (h *Handler) handleScrub(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}

	respondJSON(w, scrubber.Scrub(req.Content), http.StatusOK)
}

// handleHumanize applies the rule-table rewrite pass
func (h *Handler) handleHumanize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}

	respondJSON(w, humanize.Apply(req.Content), http.StatusOK)
}

// handleCompareLength fetches competitor pages and compares word counts
func (h *Handler) handleCompareLength(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Content string   `json:"content"`
		Keyword string   `json:"keyword,omitempty"`
		URLs    []string `json:"competitor_urls,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		respondError(w, "Content field is required", http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 && req.Keyword == "" {
		respondError(w, "Either competitor URLs or a keyword is required", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("competitors.count", len(req.URLs)),
		attribute.String("keyword", req.Keyword))

	// Explicit URLs win; otherwise the competitor set comes from the
	// keyword's organic SERP.
	var comparison *models.LengthComparison
	var err error
	if len(req.URLs) > 0 {
		comparison, err = h.comparator.Compare(r.Context(), req.Content, req.URLs)
	} else {
		comparison, err = h.comparator.CompareKeyword(r.Context(), req.Content, req.Keyword)
	}
	if err != nil {
		if errors.Is(err, lengthcheck.ErrNoSERPSource) {
			respondError(w, "No SERP source is configured", http.StatusServiceUnavailable)
			return
		}
		respondError(w, err.Error(), http.StatusBadGateway)
		return
	}

	respondJSON(w, comparison, http.StatusOK)
}

// handleInsights pulls merged performance insights from the data sources
func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.insights == nil {
		respondError(w, "No data sources are configured", http.StatusServiceUnavailable)
		return
	}

	days := 28
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	insights, err := h.insights.Insights(r.Context(), days)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, insights, http.StatusOK)
}

// handleListReports handles listing all reports with pagination
func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	// Fetch reports in a goroutine
	resultChan := make(chan []*models.AuditReport)
	errorChan := make(chan error)

	go func() {
		reports, err := h.db.ListReports(limit, offset)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- reports
	}()

	select {
	case reports := <-resultChan:
		respondJSON(w, reports, http.StatusOK)
	case err := <-errorChan:
		respondError(w, err.Error(), http.StatusInternalServerError)
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// handleReportOperations handles GET and DELETE for specific reports,
// plus the recommendations sub-resource
func (h *Handler) handleReportOperations(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/reports/"):]
	if id == "" {
		respondError(w, "Report ID is required", http.StatusBadRequest)
		return
	}

	if rest, ok := strings.CutSuffix(id, "/recommendations"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getRecommendations(w, r, rest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getReport(w, r, id)
	case http.MethodDelete:
		h.deleteReport(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getRecommendations returns a report's stored recommendations by category
func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request, id string) {
	resultChan := make(chan map[string][]string)
	errorChan := make(chan error)

	go func() {
		if _, err := h.db.GetReport(id); err != nil {
			errorChan <- err
			return
		}
		recs, err := h.db.Recommendations(id)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- recs
	}()

	select {
	case recs := <-resultChan:
		respondJSON(w, recs, http.StatusOK)
	case err := <-errorChan:
		if errors.Is(err, database.ErrReportNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
		} else {
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// getReport retrieves a specific report
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request, id string) {
	resultChan := make(chan *models.AuditReport)
	errorChan := make(chan error)

	go func() {
		report, err := h.db.GetReport(id)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- report
	}()

	select {
	case report := <-resultChan:
		respondJSON(w, report, http.StatusOK)
	case err := <-errorChan:
		if errors.Is(err, database.ErrReportNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
		} else {
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// deleteReport deletes a specific report
func (h *Handler) deleteReport(w http.ResponseWriter, r *http.Request, id string) {
	errorChan := make(chan error)
	doneChan := make(chan bool)

	go func() {
		if err := h.db.DeleteReport(id); err != nil {
			errorChan <- err
			return
		}
		doneChan <- true
	}()

	select {
	case <-doneChan:
		w.WriteHeader(http.StatusNoContent)
	case err := <-errorChan:
		if errors.Is(err, database.ErrReportNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
		} else {
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// handleSearch searches reports by target keyword or grade
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kw := r.URL.Query().Get("keyword")
	grade := r.URL.Query().Get("grade")
	if kw == "" && grade == "" {
		respondError(w, "Either keyword or grade parameter is required", http.StatusBadRequest)
		return
	}

	// Search in a goroutine
	resultChan := make(chan []*models.AuditReport)
	errorChan := make(chan error)

	go func() {
		var reports []*models.AuditReport
		var err error
		if kw != "" {
			reports, err = h.db.SearchByKeyword(kw)
		} else {
			reports, err = h.db.SearchByGrade(grade)
		}
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- reports
	}()

	select {
	case reports := <-resultChan:
		respondJSON(w, reports, http.StatusOK)
	case err := <-errorChan:
		respondError(w, err.Error(), http.StatusInternalServerError)
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// generateID generates a UUID for a report
func generateID() string {
	return uuid.NewString()
}
