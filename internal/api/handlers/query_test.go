package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medika-labs/medquery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueryPipeline struct {
	mock.Mock
}

func (m *MockQueryPipeline) HandleQuestion(ctx context.Context, question, tenantID string) *domain.PipelineResult {
	args := m.Called(ctx, question, tenantID)
	return args.Get(0).(*domain.PipelineResult)
}

func runRequest(t *testing.T, handler *QueryHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/query/run", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler.Run(w, req)
	return w
}

func TestQueryHandler_Run_Executed(t *testing.T) {
	mockPipeline := new(MockQueryPipeline)
	handler := NewQueryHandler(mockPipeline, "", false)

	mockPipeline.On("HandleQuestion", mock.Anything, "how many patients", "rs_a_db").
		Return(&domain.PipelineResult{
			Outcome:        domain.OutcomeExecuted,
			Message:        "query executed, 1 row(s)",
			SQL:            "SELECT COUNT(*) FROM patients;",
			Rows:           []map[string]any{{"count": 42}},
			DetectedDomain: "mpasien",
			Reasoning:      "count all patients",
			Elapsed:        1200 * time.Millisecond,
		})

	w := runRequest(t, handler, RunQueryRequest{Question: "how many patients", TenantID: "rs_a_db"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "executed", data["outcome"])
	assert.Equal(t, "SELECT COUNT(*) FROM patients;", data["sql"])
	assert.Equal(t, "mpasien", data["detected_domain"])
	assert.Equal(t, float64(1200), data["duration_ms"])
	rows := data["rows"].([]interface{})
	assert.Len(t, rows, 1)
	mockPipeline.AssertExpectations(t)
}

func TestQueryHandler_Run_DefaultTenant(t *testing.T) {
	mockPipeline := new(MockQueryPipeline)
	handler := NewQueryHandler(mockPipeline, "rs_default_db", false)

	mockPipeline.On("HandleQuestion", mock.Anything, "q", "rs_default_db").
		Return(&domain.PipelineResult{Outcome: domain.OutcomeNoDomainMatch, Message: "no match"})

	w := runRequest(t, handler, RunQueryRequest{Question: "q"})

	assert.Equal(t, http.StatusOK, w.Code)
	mockPipeline.AssertExpectations(t)
}

func TestQueryHandler_Run_MissingQuestion(t *testing.T) {
	mockPipeline := new(MockQueryPipeline)
	handler := NewQueryHandler(mockPipeline, "rs_default_db", false)

	w := runRequest(t, handler, RunQueryRequest{TenantID: "rs_a_db"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "question is required")
	mockPipeline.AssertNotCalled(t, "HandleQuestion", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryHandler_Run_MissingTenant(t *testing.T) {
	mockPipeline := new(MockQueryPipeline)
	handler := NewQueryHandler(mockPipeline, "", false)

	w := runRequest(t, handler, RunQueryRequest{Question: "q"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "tenant_id is required")
}

func TestQueryHandler_Run_InvalidBody(t *testing.T) {
	mockPipeline := new(MockQueryPipeline)
	handler := NewQueryHandler(mockPipeline, "", false)

	req := httptest.NewRequest(http.MethodPost, "/query/run", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	handler.Run(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestQueryHandler_Run_RawTextOnlyInDebug(t *testing.T) {
	result := &domain.PipelineResult{
		Outcome: domain.OutcomeParseFailed,
		Message: "could not extract SQL from the model response",
		Diagnostics: domain.Diagnostics{
			Stage:   domain.StageExtract,
			Detail:  "extraction chain exhausted",
			RawText: "free-form prose without sql",
		},
	}

	mockPipeline := new(MockQueryPipeline)
	handler := NewQueryHandler(mockPipeline, "", false)
	mockPipeline.On("HandleQuestion", mock.Anything, "q", "rs_a_db").Return(result)

	w := runRequest(t, handler, RunQueryRequest{Question: "q", TenantID: "rs_a_db"})
	assert.NotContains(t, w.Body.String(), "free-form prose")

	debugPipeline := new(MockQueryPipeline)
	debugHandler := NewQueryHandler(debugPipeline, "", true)
	debugPipeline.On("HandleQuestion", mock.Anything, "q", "rs_a_db").Return(result)

	w = runRequest(t, debugHandler, RunQueryRequest{Question: "q", TenantID: "rs_a_db"})
	assert.Contains(t, w.Body.String(), "free-form prose")
}

func TestQueryHandler_Run_BlockedUnsafe(t *testing.T) {
	mockPipeline := new(MockQueryPipeline)
	handler := NewQueryHandler(mockPipeline, "", false)

	mockPipeline.On("HandleQuestion", mock.Anything, "wipe it", "rs_a_db").
		Return(&domain.PipelineResult{
			Outcome:      domain.OutcomeBlockedUnsafe,
			Message:      "generated SQL could modify data and was not executed",
			SQL:          "DROP TABLE patients;",
			UnsafeTokens: []string{"DROP"},
		})

	w := runRequest(t, handler, RunQueryRequest{Question: "wipe it", TenantID: "rs_a_db"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "blocked-unsafe", data["outcome"])
	assert.Equal(t, "DROP TABLE patients;", data["sql"])
	tokens := data["unsafe_tokens"].([]interface{})
	assert.Equal(t, []interface{}{"DROP"}, tokens)
}
