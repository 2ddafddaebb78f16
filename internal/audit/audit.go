// Package audit composes the offline analysis pipeline and the optional
// AI enrichment stage into full content audits.
package audit

import (
	"context"
	"log/slog"

	"github.com/seolens/seolens/internal/humanize"
	"github.com/seolens/seolens/internal/keyword"
	"github.com/seolens/seolens/internal/models"
	"github.com/seolens/seolens/internal/ollama"
	"github.com/seolens/seolens/internal/quality"
	"github.com/seolens/seolens/internal/readability"
	"github.com/seolens/seolens/internal/scrubber"
	"github.com/seolens/seolens/internal/textutil"
)

// EnrichThreshold is the minimum quality total (0-100) a document must
// reach before AI enrichment is worth the model time.
const EnrichThreshold = 35

// Engine runs content audits.
type Engine struct {
	keywords     *keyword.Analyzer
	siteHost     string
	ollamaClient *ollama.Client
	logger       *slog.Logger
}

// New creates an audit engine without AI enrichment.
func New(siteHost string) *Engine {
	return &Engine{
		keywords: keyword.New(),
		siteHost: siteHost,
		logger:   slog.Default(),
	}
}

// NewWithOllama creates an audit engine with AI enrichment.
func NewWithOllama(siteHost string, ollamaClient *ollama.Client) *Engine {
	e := New(siteHost)
	e.ollamaClient = ollamaClient
	return e
}

// Request is one document to audit.
type Request struct {
	Content  string
	Keyword  string
	Title    string
	MetaDesc string
}

// AuditOffline runs the rule-based pipeline: scrub, counts, keyword
// density, readability, quality rating, and the humanize rewrite pass.
// No network calls.
func (e *Engine) AuditOffline(req Request) models.Result {
	result := models.Result{}

	// All scoring runs on scrubbed text so hidden characters can't
	// skew counts.
	scrub := scrubber.Scrub(req.Content)
	result.Scrub = scrub
	content := scrub.Text

	plain := textutil.StripMarkdown(content)
	words := textutil.Words(plain)
	result.CharacterCount = len(content)
	result.WordCount = len(words)
	result.SentenceCount = textutil.CountSentences(plain)
	result.ParagraphCount = textutil.CountParagraphs(content)
	result.AvgWordLength = textutil.AverageWordLength(words)

	if req.Keyword != "" {
		result.Keyword = e.keywords.Analyze(content, req.Keyword, req.Title, req.MetaDesc)
	}

	result.Readability = readability.Score(content)

	result.Quality = quality.Rate(quality.Input{
		Content:     content,
		Title:       req.Title,
		MetaDesc:    req.MetaDesc,
		SiteHost:    e.siteHost,
		Keyword:     result.Keyword,
		Readability: result.Readability,
	})

	result.Humanize = humanize.Apply(content)

	return result
}

// ShouldEnrich reports whether the offline result clears the quality bar
// for AI enrichment.
func (e *Engine) ShouldEnrich(result *models.Result) bool {
	if e.ollamaClient == nil {
		return false
	}
	return result.Quality != nil && result.Quality.Total >= EnrichThreshold
}

// Enrich runs the AI stage over an offline result: a natural-register
// rewrite and fact-check claim extraction. Partial failures leave the
// offline result intact.
func (e *Engine) Enrich(ctx context.Context, req Request, result *models.Result) error {
	if e.ollamaClient == nil {
		return nil
	}

	// The humanized text is the better rewrite base when the rule pass
	// changed anything.
	base := req.Content
	if result.Humanize != nil && result.Humanize.Replacements > 0 {
		base = result.Humanize.Text
	}

	var lastErr error

	rewritten, err := e.ollamaClient.RewriteText(ctx, base, req.Keyword)
	if err != nil {
		e.logger.Warn("rewrite failed", "error", err)
		lastErr = err
	} else if rewritten != "" {
		result.RewrittenText = rewritten
		result.AIUsed = true
	}

	claims, err := e.ollamaClient.FactCheckClaims(ctx, req.Content)
	if err != nil {
		e.logger.Warn("fact check failed", "error", err)
		lastErr = err
	} else if len(claims) > 0 {
		result.FactChecks = claims
		result.AIUsed = true
	}

	// Suggest a snippet when the meta description is missing or does not
	// carry the keyword.
	if req.Keyword != "" && (req.MetaDesc == "" || (result.Keyword != nil && !result.Keyword.InMetaDesc)) {
		suggestion, serr := e.ollamaClient.SuggestMeta(ctx, req.Content, req.Keyword)
		if serr != nil {
			e.logger.Warn("meta suggestion failed", "error", serr)
			lastErr = serr
		} else if suggestion != nil {
			result.MetaSuggestion = suggestion
			result.AIUsed = true
		}
	}

	if !result.AIUsed && lastErr != nil {
		// Nothing landed; surface an error so the task can retry.
		return lastErr
	}
	return nil
}
