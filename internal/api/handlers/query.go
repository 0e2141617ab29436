package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/medika-labs/medquery/internal/api"
	"github.com/medika-labs/medquery/internal/domain"
)

// QueryPipeline runs one natural-language question end to end.
type QueryPipeline interface {
	HandleQuestion(ctx context.Context, question, tenantID string) *domain.PipelineResult
}

type QueryHandler struct {
	pipeline      QueryPipeline
	defaultTenant string
	debug         bool
}

func NewQueryHandler(pipeline QueryPipeline, defaultTenant string, debug bool) *QueryHandler {
	return &QueryHandler{pipeline: pipeline, defaultTenant: defaultTenant, debug: debug}
}

type RunQueryRequest struct {
	Question string `json:"question"`
	TenantID string `json:"tenant_id"`
}

type DiagnosticsResponse struct {
	Stage   string `json:"stage"`
	Detail  string `json:"detail,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

type RunQueryResponse struct {
	Outcome        string               `json:"outcome"`
	Message        string               `json:"message"`
	SQL            string               `json:"sql,omitempty"`
	Rows           []map[string]any     `json:"rows,omitempty"`
	DetectedDomain string               `json:"detected_domain,omitempty"`
	Reasoning      string               `json:"reasoning,omitempty"`
	UnsafeTokens   []string             `json:"unsafe_tokens,omitempty"`
	DurationMs     int64                `json:"duration_ms"`
	Diagnostics    *DiagnosticsResponse `json:"diagnostics,omitempty"`
}

func (h *QueryHandler) resultToResponse(result *domain.PipelineResult) *RunQueryResponse {
	resp := &RunQueryResponse{
		Outcome:        string(result.Outcome),
		Message:        result.Message,
		SQL:            result.SQL,
		Rows:           result.Rows,
		DetectedDomain: result.DetectedDomain,
		Reasoning:      result.Reasoning,
		UnsafeTokens:   result.UnsafeTokens,
		DurationMs:     result.Elapsed.Milliseconds(),
	}
	if result.Diagnostics.Stage != "" {
		d := &DiagnosticsResponse{
			Stage:  string(result.Diagnostics.Stage),
			Detail: result.Diagnostics.Detail,
		}
		// raw model output can be large and may echo schema details, so
		// it is only exposed in debug mode
		if h.debug {
			d.RawText = result.Diagnostics.RawText
		}
		resp.Diagnostics = d
	}
	return resp
}

// Run handles POST /query/run.
func (h *QueryHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = h.defaultTenant
	}
	if tenantID == "" {
		api.Error(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	result := h.pipeline.HandleQuestion(r.Context(), req.Question, tenantID)
	api.Success(w, http.StatusOK, h.resultToResponse(result))
}
