// Package service holds the query-generation pipeline: the orchestrator
// that turns a natural-language question into a vetted, executed SQL
// statement, or into a structured refusal.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medika-labs/medquery/internal/domain"
	"github.com/medika-labs/medquery/internal/extract"
	"github.com/medika-labs/medquery/internal/kb"
	"github.com/medika-labs/medquery/internal/llm"
	"github.com/medika-labs/medquery/internal/safety"
	"github.com/medika-labs/medquery/internal/telemetry"
)

// contextItemCount is the number of context snippets retrieved per question.
const contextItemCount = 3

// Embedder turns text into a query vector using one fixed embedding model.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// EmbeddingStore ranks stored knowledge embeddings against a query vector.
type EmbeddingStore interface {
	RankDomains(ctx context.Context, vec []float32, model string) ([]domain.DomainScore, error)
	TopItems(ctx context.Context, vec []float32, model, domainName string, k int) ([]domain.ScoredItem, error)
}

// PromptComposer assembles the role-tagged instruction for the model.
type PromptComposer interface {
	Build(schemaDescription string, items []domain.ScoredItem, question string) []llm.Message
}

// Completer sends a composed prompt and returns raw, untrusted model output.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, model string, opts llm.Options) (string, error)
}

// TenantExecutor is the scoped execute-on-tenant capability. Release must be
// called exactly once on every exit path.
type TenantExecutor interface {
	Query(ctx context.Context, sql string) ([]map[string]any, error)
	Release()
}

// ExecutorProvider acquires a tenant-scoped executor per request.
type ExecutorProvider interface {
	Acquire(ctx context.Context, tenant string) (TenantExecutor, error)
}

// PipelineConfig is the immutable generation configuration, passed in at
// construction rather than read from ambient globals.
type PipelineConfig struct {
	ChatModel       string
	Temperature     float32
	MaxTokens       int
	ReasoningEffort string
}

// Pipeline sequences validation, embedding, domain routing, retrieval,
// prompt composition, model invocation, extraction, the safety gate, and
// execution. Every request is independent and stateless; the only shared
// state is the read-only knowledge base and embedding store.
type Pipeline struct {
	cfg       PipelineConfig
	embedder  Embedder
	store     EmbeddingStore
	kbStore   kb.Store
	composer  PromptComposer
	completer Completer
	executors ExecutorProvider
	logRepo   QueryLogRepository
}

func NewPipeline(
	cfg PipelineConfig,
	embedder Embedder,
	store EmbeddingStore,
	kbStore kb.Store,
	composer PromptComposer,
	completer Completer,
	executors ExecutorProvider,
	logRepo QueryLogRepository,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		embedder:  embedder,
		store:     store,
		kbStore:   kbStore,
		composer:  composer,
		completer: completer,
		executors: executors,
		logRepo:   logRepo,
	}
}

// HandleQuestion runs one question through the pipeline. It always returns
// a structured result; no error escapes to the caller.
func (p *Pipeline) HandleQuestion(ctx context.Context, question, tenantID string) *domain.PipelineResult {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "Pipeline.HandleQuestion", telemetry.SpanAttributes{
		TenantID:  tenantID,
		Operation: "handle-question",
	})
	defer span.End()

	result := p.run(ctx, question, tenantID)
	result.Elapsed = time.Since(start)

	p.logResult(ctx, question, tenantID, result)
	return result
}

func (p *Pipeline) run(ctx context.Context, question, tenantID string) *domain.PipelineResult {
	if tenantID == "" {
		return failure(domain.StageValidate, domain.ErrMissingTenant.Message, nil)
	}
	if question == "" {
		return failure(domain.StageValidate, domain.ErrMissingQuestion.Message, nil)
	}

	vec, err := p.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return failure(domain.StageEmbed, "failed to embed the question", err)
	}

	scores, err := p.store.RankDomains(ctx, vec, p.embedder.Model())
	if err != nil {
		return failure(domain.StageRouteDomain, "failed to rank knowledge domains", err)
	}
	if len(scores) == 0 {
		return &domain.PipelineResult{
			Outcome:     domain.OutcomeNoDomainMatch,
			Message:     domain.ErrNoDomainMatch.Message,
			Diagnostics: domain.Diagnostics{Stage: domain.StageRouteDomain, Detail: "embedding store returned no candidates"},
		}
	}
	detected := scores[0]
	telemetry.AddBreadcrumb(ctx, "pipeline", fmt.Sprintf("detected domain %s (%.3f)", detected.Domain, detected.Similarity))

	doc, err := p.kbStore.Load(ctx, detected.Domain)
	if err != nil {
		if errors.Is(err, kb.ErrNotFound) {
			// routing found embeddings for a domain whose document is
			// gone: a data-consistency fault, not a routing miss
			return withDomain(detected.Domain, failure(domain.StageLoadKB,
				domain.ErrKnowledgeBaseMissing.Message,
				fmt.Errorf("no document for domain %q", detected.Domain)))
		}
		return withDomain(detected.Domain, failure(domain.StageLoadKB, "failed to load knowledge base", err))
	}

	items, err := p.store.TopItems(ctx, vec, p.embedder.Model(), detected.Domain, contextItemCount)
	if err != nil {
		return withDomain(detected.Domain, failure(domain.StageRetrieveContext, "failed to retrieve context", err))
	}

	messages := p.composer.Build(doc.SchemaDescription(), items, question)

	raw, err := p.completer.Complete(ctx, messages, p.cfg.ChatModel, llm.Options{
		Temperature:     p.cfg.Temperature,
		MaxTokens:       p.cfg.MaxTokens,
		ReasoningEffort: p.cfg.ReasoningEffort,
	})
	if err != nil {
		return withDomain(detected.Domain, failure(domain.StageInvokeModel, "model invocation failed", err))
	}

	resp := extract.Extract(raw)
	if !resp.HasSQL() {
		return &domain.PipelineResult{
			Outcome:        domain.OutcomeParseFailed,
			Message:        "could not extract SQL from the model response",
			DetectedDomain: detected.Domain,
			Reasoning:      resp.Reasoning,
			Diagnostics:    domain.Diagnostics{Stage: domain.StageExtract, Detail: "extraction chain exhausted", RawText: raw},
		}
	}

	if tokens := safety.Classify(resp.SQL); len(tokens) > 0 {
		return &domain.PipelineResult{
			Outcome:        domain.OutcomeBlockedUnsafe,
			Message:        "generated SQL could modify data and was not executed",
			SQL:            resp.SQL,
			DetectedDomain: detected.Domain,
			Reasoning:      resp.Reasoning,
			UnsafeTokens:   tokens,
			Diagnostics:    domain.Diagnostics{Stage: domain.StageSafetyCheck, Detail: fmt.Sprintf("forbidden tokens: %v", tokens)},
		}
	}

	exec, err := p.executors.Acquire(ctx, tenantID)
	if err != nil {
		res := withDomain(detected.Domain, failure(domain.StageExecute, "failed to connect to the tenant database", err))
		res.SQL = resp.SQL
		res.Reasoning = resp.Reasoning
		return res
	}
	defer exec.Release()

	rows, err := exec.Query(ctx, resp.SQL)
	if err != nil {
		// generation succeeded, execution failed; keep the SQL visible
		res := withDomain(detected.Domain, failure(domain.StageExecute, "query execution failed", err))
		res.SQL = resp.SQL
		res.Reasoning = resp.Reasoning
		return res
	}

	return &domain.PipelineResult{
		Outcome:        domain.OutcomeExecuted,
		Message:        fmt.Sprintf("query executed, %d row(s)", len(rows)),
		SQL:            resp.SQL,
		Rows:           rows,
		DetectedDomain: detected.Domain,
		Reasoning:      resp.Reasoning,
	}
}

func (p *Pipeline) logResult(ctx context.Context, question, tenantID string, result *domain.PipelineResult) {
	if p.logRepo == nil {
		return
	}
	entry := QueryLogEntry{
		TenantID:       tenantID,
		Question:       question,
		DetectedDomain: result.DetectedDomain,
		Outcome:        string(result.Outcome),
		SQL:            result.SQL,
		Message:        result.Message,
		Model:          p.cfg.ChatModel,
		DurationMs:     int(result.Elapsed.Milliseconds()),
	}
	if _, err := p.logRepo.CreateQueryLog(ctx, entry); err != nil {
		telemetry.CaptureError(ctx, fmt.Errorf("failed to record query log: %w", err))
	}
}

func failure(stage domain.Stage, message string, err error) *domain.PipelineResult {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &domain.PipelineResult{
		Outcome:     domain.OutcomeUpstreamError,
		Message:     message,
		Diagnostics: domain.Diagnostics{Stage: stage, Detail: detail},
	}
}

func withDomain(domainName string, res *domain.PipelineResult) *domain.PipelineResult {
	res.DetectedDomain = domainName
	return res
}
