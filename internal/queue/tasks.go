package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/seolens/seolens/internal/audit"
	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/tracing"
)

// handleAuditContent runs the offline audit pipeline (Stage 1)
func (w *Worker) handleAuditContent(ctx context.Context, t *asynq.Task) error {
	var payload AuditContentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %w", err)
	}

	// Queue wait time, for the consumer span
	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		queueWaitTime = time.Since(time.Unix(0, payload.EnqueuedAt))
	}

	w.logger.Info("running offline audit",
		"report_id", payload.ReportID,
		"content_length", len(payload.Content),
		"keyword", payload.Keyword,
		"queue_wait_seconds", queueWaitTime.Seconds(),
	)

	ctx, span := w.startConsumerSpan(ctx, TypeAuditContent, &payload.TraceID, &payload.SpanID,
		attribute.String("report.id", payload.ReportID),
		attribute.Int("content.length", len(payload.Content)),
		attribute.Float64("queue.wait_time_seconds", queueWaitTime.Seconds()),
	)
	if span != nil {
		defer span.End()
	}

	start := time.Now()
	result := w.engine.AuditOffline(audit.Request{
		Content:  payload.Content,
		Keyword:  payload.Keyword,
		Title:    payload.Title,
		MetaDesc: payload.MetaDesc,
	})
	duration := time.Since(start).Seconds()

	report := &models.AuditReport{
		ID:        payload.ReportID,
		Content:   payload.Content,
		Keyword:   payload.Keyword,
		Title:     payload.Title,
		MetaDesc:  payload.MetaDesc,
		Result:    result,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := w.db.SaveReport(report); err != nil {
		w.recordAudit(ctx, duration, "error")
		return fmt.Errorf("failed to save offline audit: %w", err)
	}
	w.recordAudit(ctx, duration, "success")

	w.logger.Info("offline audit saved",
		"report_id", payload.ReportID,
		"grade", result.Quality.Grade,
		"total", result.Quality.Total,
	)

	// Enqueue AI enrichment if the quality bar is met
	if w.engine.ShouldEnrich(&result) {
		w.logger.Info("quality bar met, enqueueing AI enrichment",
			"report_id", payload.ReportID,
			"quality_total", result.Quality.Total,
		)
		if _, err := w.queueClient.EnqueueEnrichContent(ctx, payload.ReportID, payload.Content, payload.Keyword); err != nil {
			w.logger.Error("failed to enqueue enrichment", "error", err)
			// Don't fail the task if enrichment enqueue fails
		}
	}

	return nil
}

// handleEnrichContent runs AI enrichment via Ollama (Stage 2 - High Priority)
func (w *Worker) handleEnrichContent(ctx context.Context, t *asynq.Task) error {
	var payload EnrichContentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %w", err)
	}

	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		queueWaitTime = time.Since(time.Unix(0, payload.EnqueuedAt))
	}

	w.logger.Info("enriching content with AI",
		"report_id", payload.ReportID,
		"content_length", len(payload.Content),
		"retry_count", retryCount,
		"max_retries", maxRetry,
		"queue_wait_seconds", queueWaitTime.Seconds(),
	)

	ctx, span := w.startConsumerSpan(ctx, TypeEnrichContent, &payload.TraceID, &payload.SpanID,
		attribute.String("report.id", payload.ReportID),
		attribute.Int("content.length", len(payload.Content)),
		attribute.Int("retry_count", retryCount),
		attribute.Float64("queue.wait_time_seconds", queueWaitTime.Seconds()),
	)
	if span != nil {
		defer span.End()
	}

	report, err := w.db.GetReport(payload.ReportID)
	if err != nil {
		return fmt.Errorf("failed to retrieve report: %w", err)
	}

	err = w.engine.Enrich(ctx, audit.Request{
		Content: payload.Content,
		Keyword: payload.Keyword,
	}, &report.Result)
	if err != nil {
		w.recordEnrichment("error")
		if isRetriableOllamaError(err) {
			w.logger.Warn("retriable Ollama error, will retry",
				"report_id", payload.ReportID,
				"error", err,
				"retry_count", retryCount,
			)
			return err // Let Asynq retry
		}

		w.logger.Error("permanent error enriching content",
			"report_id", payload.ReportID,
			"error", err,
		)
		return fmt.Errorf("failed to enrich report: %w", err)
	}

	report.UpdatedAt = time.Now()
	if err := w.db.UpdateReport(report); err != nil {
		w.recordEnrichment("error")
		return fmt.Errorf("failed to update enriched report: %w", err)
	}

	w.recordEnrichment("success")
	if n := len(report.Result.FactChecks); n > 0 && w.businessMetrics != nil {
		w.businessMetrics.ClaimsExtractedTotal.Add(float64(n))
	}

	w.logger.Info("content enrichment completed",
		"report_id", payload.ReportID,
		"claims", len(report.Result.FactChecks),
		"retry_count", retryCount,
	)

	return nil
}

// startConsumerSpan rebuilds the producer's trace context from the payload
// and starts a consumer span. Returns a nil span when the payload carried
// no trace identity.
func (w *Worker) startConsumerSpan(ctx context.Context, taskType string, traceID, spanID *string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if *traceID == "" || *spanID == "" {
		if existing := trace.SpanFromContext(ctx); existing.SpanContext().IsValid() {
			existing.SetAttributes(attrs...)
		}
		return ctx, nil
	}

	ctx = tracing.ContextWithRemoteSpan(ctx, *traceID, *spanID)
	ctx, span := otel.Tracer("seolens").Start(ctx, "asynq.task.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(append(attrs, attribute.String("task.type", taskType))...),
	)
	return ctx, span
}

func (w *Worker) recordAudit(ctx context.Context, seconds float64, status string) {
	if w.businessMetrics == nil {
		return
	}
	w.businessMetrics.ObserveDurationWithExemplar(ctx, w.businessMetrics.AuditDuration, seconds, status)
	w.businessMetrics.AuditsTotal.WithLabelValues(status).Inc()
}

func (w *Worker) recordEnrichment(status string) {
	if w.businessMetrics == nil {
		return
	}
	w.businessMetrics.EnrichmentsTotal.WithLabelValues(status).Inc()
}

// isRetriableOllamaError determines if an error is retriable (connection/timeout)
// vs permanent (invalid input)
func isRetriableOllamaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retriablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
		"too many requests",
		"context deadline exceeded",
		"context canceled",
		"i/o timeout",
		"no such host",
		"network is unreachable",
	}

	for _, pattern := range retriablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
