package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Task type constants
const (
	TypeAuditContent  = "seolens:audit_content"
	TypeEnrichContent = "seolens:enrich_content"
)

// AuditContentPayload represents the payload for offline content auditing
type AuditContentPayload struct {
	ReportID string `json:"report_id"`
	Content  string `json:"content"`
	Keyword  string `json:"keyword"`
	Title    string `json:"title,omitempty"`
	MetaDesc string `json:"meta_description,omitempty"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// EnrichContentPayload represents the payload for AI content enrichment
type EnrichContentPayload struct {
	ReportID string `json:"report_id"`
	Content  string `json:"content"`
	Keyword  string `json:"keyword"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	client := asynq.NewClient(redisOpt)

	return &Client{
		client: client,
	}
}

// EnqueueAuditContent enqueues an offline content audit task
func (c *Client) EnqueueAuditContent(ctx context.Context, reportID, content, keyword, title, metaDesc string) (string, error) {
	payload := AuditContentPayload{
		ReportID:   reportID,
		Content:    content,
		Keyword:    keyword,
		Title:      title,
		MetaDesc:   metaDesc,
		EnqueuedAt: time.Now().UnixNano(), // Record enqueue time for queue wait metrics
	}

	// Add tracing context if available
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeAuditContent),
			attribute.String("report_id", reportID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeAuditContent, payloadBytes, asynq.TaskID(reportID))

	opts := []asynq.Option{
		asynq.MaxRetry(3),                   // Standard retry for offline auditing
		asynq.Timeout(5 * time.Minute),      // 5 minute timeout
		asynq.Queue("content-audit"),        // Offline audit queue (medium priority)
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue audit content task: %w", err)
	}

	return info.ID, nil
}

// EnqueueEnrichContent enqueues a high-priority AI enrichment task
func (c *Client) EnqueueEnrichContent(ctx context.Context, reportID, content, keyword string) (string, error) {
	payload := EnrichContentPayload{
		ReportID:   reportID,
		Content:    content,
		Keyword:    keyword,
		EnqueuedAt: time.Now().UnixNano(),
	}

	// Add tracing context if available
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeEnrichContent),
			attribute.String("report_id", reportID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	taskID := reportID + "-enrich"
	task := asynq.NewTask(TypeEnrichContent, payloadBytes, asynq.TaskID(taskID))

	opts := []asynq.Option{
		asynq.MaxRetry(10),                  // High retry tolerance for Ollama
		asynq.Timeout(10 * time.Minute),     // 10 minute timeout for AI processing
		asynq.Queue("ai-enrichment"),        // Enrichment queue (highest priority)
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue enrich content task: %w", err)
	}

	return info.ID, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}
