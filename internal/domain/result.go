package domain

import "time"

// ModelResponse is the structured view of one LLM generation attempt.
// SQL and Reasoning are populated only by validated extraction; RawText is
// retained for diagnostics regardless of parse success.
type ModelResponse struct {
	Reasoning string
	SQL       string
	RawText   string
}

// HasSQL reports whether extraction recovered a usable SQL candidate.
func (r ModelResponse) HasSQL() bool {
	return r.SQL != ""
}

// Outcome is the terminal state of one pipeline invocation.
type Outcome string

const (
	OutcomeExecuted      Outcome = "executed"
	OutcomeBlockedUnsafe Outcome = "blocked-unsafe"
	OutcomeParseFailed   Outcome = "parse-failed"
	OutcomeNoDomainMatch Outcome = "no-domain-match"
	OutcomeUpstreamError Outcome = "upstream-error"
)

// Stage names the pipeline step a diagnostic refers to.
type Stage string

const (
	StageValidate        Stage = "validate"
	StageEmbed           Stage = "embed"
	StageRouteDomain     Stage = "route-domain"
	StageLoadKB          Stage = "load-knowledge-base"
	StageRetrieveContext Stage = "retrieve-context"
	StageComposePrompt   Stage = "compose-prompt"
	StageInvokeModel     Stage = "invoke-model"
	StageExtract         Stage = "extract-response"
	StageSafetyCheck     Stage = "safety-check"
	StageExecute         Stage = "execute"
)

// Diagnostics carries best-effort detail about how a request terminated.
// RawText may contain schema detail and is excluded from user-facing
// surfaces outside debug deployments.
type Diagnostics struct {
	Stage   Stage
	Detail  string
	RawText string
}

// PipelineResult is the terminal outcome of one question.
type PipelineResult struct {
	Outcome        Outcome
	Message        string
	SQL            string
	Rows           []map[string]any
	DetectedDomain string
	Reasoning      string
	UnsafeTokens   []string
	Diagnostics    Diagnostics
	Elapsed        time.Duration
}
