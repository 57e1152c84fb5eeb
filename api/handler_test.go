package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sicko7947/approvalflow"
	"github.com/sicko7947/approvalflow/engine"
	"github.com/sicko7947/approvalflow/registry"
	"github.com/sicko7947/approvalflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *registry.MemoryRegistry) {
	t.Helper()

	reg := registry.NewMemoryRegistry()
	reg.AddDocument(approvalflow.Document{ID: "doc-1", Title: "SOP-001"})

	promReg := prometheus.NewRegistry()
	eng := engine.NewEngine(store.NewMemoryStore(), reg,
		engine.WithLogger(zerolog.Nop()),
		engine.WithClock(func() time.Time { return testNow }),
		engine.WithMetrics(engine.NewMetrics(promReg)),
	)

	app := fiber.New()
	NewHandler(eng, WithVersion("test")).Register(app)
	RegisterMetrics(app, "/metrics", promReg)
	return app, reg
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func createBody() map[string]interface{} {
	return map[string]interface{}{
		"documentId":      "doc-1",
		"type":            "APPROVAL",
		"allowDelegation": true,
		"createdBy":       "owner",
		"stages": []map[string]interface{}{
			{"name": "Review", "stageType": "REVIEW", "assigneeIds": []string{"alice"}},
			{"name": "Approve", "stageType": "APPROVAL", "assigneeIds": []string{"bob"}},
		},
	}
}

func stageID(t *testing.T, wf map[string]interface{}, i int) string {
	t.Helper()
	stages, ok := wf["stages"].([]interface{})
	require.True(t, ok, "workflow has no stages")
	stage, ok := stages[i].(map[string]interface{})
	require.True(t, ok)
	return stage["id"].(string)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestWorkflowLifecycle(t *testing.T) {
	app, reg := newTestApp(t)

	status, wf := doJSON(t, app, http.MethodPost, "/api/v1/workflows", createBody())
	require.Equal(t, http.StatusCreated, status, "%v", wf)
	assert.Equal(t, "DRAFT", wf["status"])
	assert.Equal(t, "SOP-001", wf["title"])
	id := wf["id"].(string)
	first := stageID(t, wf, 0)

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/start", map[string]string{"userId": "owner"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "IN_PROGRESS", wf["status"])

	status, pending := doJSON(t, app, http.MethodGet, "/api/v1/users/alice/pending", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), pending["count"])

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/stages/"+first+"/delegate", map[string]string{
		"toUserId": "dave", "fromUserId": "alice", "reason": "leave",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"dave"}, wf["currentAssignees"])

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/stages/"+first+"/complete", map[string]string{
		"action": "APPROVED", "userId": "dave",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), wf["currentStage"])

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/stages/"+stageID(t, wf, 1)+"/skip", map[string]string{
		"userId": "owner", "reason": "not needed",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "COMPLETED", wf["status"])

	status, history := doJSON(t, app, http.MethodGet, "/api/v1/documents/doc-1/workflows", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), history["count"])

	status, stages := doJSON(t, app, http.MethodGet, "/api/v1/workflows/"+id+"/stages", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, stages["stages"], 2)

	assert.NotEmpty(t, reg.Activities(id))
}

func TestWorkflowControls(t *testing.T) {
	app, _ := newTestApp(t)

	_, wf := doJSON(t, app, http.MethodPost, "/api/v1/workflows", createBody())
	id := wf["id"].(string)
	doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/start", nil)

	status, wf := doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/hold", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ON_HOLD", wf["status"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/hold", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/resume", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "IN_PROGRESS", wf["status"])

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/remind", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), wf["remindersSent"])

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/escalate", map[string]int{"level": 2})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), wf["escalationLevel"])

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/workflows?view=active", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/workflows?view=overdue", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])

	status, wf = doJSON(t, app, http.MethodPost, "/api/v1/workflows/"+id+"/cancel", map[string]string{
		"userId": "owner", "reason": "superseded",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CANCELLED", wf["status"])
	assert.Equal(t, "superseded", wf["outcomeComments"])
}

func TestErrorResponses(t *testing.T) {
	app, reg := newTestApp(t)

	body := createBody()
	body["allowDelegation"] = false
	_, wf := doJSON(t, app, http.MethodPost, "/api/v1/workflows", body)
	id := wf["id"].(string)
	first := stageID(t, wf, 0)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"unknown workflow", http.MethodGet, "/api/v1/workflows/missing", nil, http.StatusNotFound, approvalflow.ErrCodeNotFound},
		{"unknown type", http.MethodPost, "/api/v1/workflows", map[string]interface{}{"documentId": "doc-1", "type": "AUDIT"},
			http.StatusBadRequest, approvalflow.ErrCodeValidation},
		{"unknown document", http.MethodPost, "/api/v1/workflows", map[string]interface{}{
			"documentId": "doc-9", "type": "REVIEW", "stages": createBody()["stages"],
		}, http.StatusNotFound, approvalflow.ErrCodeNotFound},
		{"complete draft stage", http.MethodPost, "/api/v1/stages/" + first + "/complete",
			map[string]string{"action": "APPROVED", "userId": "alice"}, http.StatusConflict, approvalflow.ErrCodeInvalidState},
		{"delegation not allowed", http.MethodPost, "/api/v1/stages/" + first + "/delegate",
			map[string]string{"toUserId": "dave", "fromUserId": "alice"}, http.StatusForbidden, approvalflow.ErrCodeForbidden},
		{"bad view", http.MethodGet, "/api/v1/workflows?view=everything", nil, http.StatusBadRequest, approvalflow.ErrCodeValidation},
		{"bad escalation level", http.MethodPost, "/api/v1/workflows/" + id + "/escalate", map[string]int{"level": 0},
			http.StatusBadRequest, approvalflow.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := doJSON(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp["code"])
			assert.NotEmpty(t, resp["error"])
		})
	}

	t.Run("registry unavailable", func(t *testing.T) {
		reg.FailDocumentLookup(errors.New("timeout"))
		defer reg.FailDocumentLookup(nil)

		status, resp := doJSON(t, app, http.MethodPost, "/api/v1/workflows", createBody())
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, approvalflow.ErrCodeCollaboratorUnavailable, resp["code"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{approvalflow.NewNotFoundError("x"), http.StatusNotFound},
		{approvalflow.NewConflictError("x"), http.StatusConflict},
		{approvalflow.NewInvalidStateError("x"), http.StatusConflict},
		{approvalflow.NewForbiddenError("x"), http.StatusForbidden},
		{approvalflow.NewValidationError("x"), http.StatusBadRequest},
		{approvalflow.NewCollaboratorUnavailableError("store", errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), "%v", tt.err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	doJSON(t, app, http.MethodGet, "/api/v1/workflows/missing", nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "approvalflow_engine_operations_total")
	assert.Contains(t, string(raw), `code="NOT_FOUND"`)
}
