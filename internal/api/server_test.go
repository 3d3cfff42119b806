// File path: internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/floatchat/floatchat/internal/gateway"
	"github.com/floatchat/floatchat/internal/llm"
	"github.com/floatchat/floatchat/internal/postgres"
	"github.com/floatchat/floatchat/internal/rag"
)

type mockProvider struct {
	chatResponse string
	chatErr      error
	chatCalls    int
}

func (m *mockProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	m.chatCalls++
	if m.chatErr != nil {
		return "", m.chatErr
	}
	if m.chatResponse == "" {
		return "mock-response", nil
	}
	return m.chatResponse, nil
}

func (m *mockProvider) Name() string { return "mock" }

type fakeExecutor struct {
	result     *postgres.ResultSet
	err        error
	statements []string
	workers    []string
	policies   []postgres.Policy
}

func (f *fakeExecutor) Execute(ctx context.Context, worker, stmt string, policy postgres.Policy) (*postgres.ResultSet, error) {
	f.statements = append(f.statements, stmt)
	f.workers = append(f.workers, worker)
	f.policies = append(f.policies, policy)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &postgres.ResultSet{Columns: []string{"count"}, Rows: []postgres.Row{{"count": int64(3)}}}, nil
}

func newTestServer(t *testing.T, provider llm.Provider, exec gateway.Executor) *Server {
	t.Helper()
	gw := gateway.New(exec)
	pipeline := rag.NewPipeline(provider, nil, gw)
	srv, err := NewServer(pipeline, gw, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

func TestHandleChatUserModeHidesSQL(t *testing.T) {
	provider := &mockProvider{chatResponse: "Here are the floats.\n\n```sql\nSELECT * FROM argo_data WHERE temp > 20\n```"}
	exec := &fakeExecutor{result: &postgres.ResultSet{
		Columns: []string{"platform_number"},
		Rows:    []postgres.Row{{"platform_number": "12345"}, {"platform_number": "67890"}},
	}}
	srv := newTestServer(t, provider, exec)

	body, _ := json.Marshal(map[string]string{"question": "show me warm floats", "mode": "user"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var out gateway.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.SQLQuery != nil {
		t.Fatalf("user mode must not expose the statement, got %q", *out.SQLQuery)
	}
	if strings.Contains(strings.ToLower(out.ResponseText), "select") {
		t.Fatalf("user mode response leaked SQL: %q", out.ResponseText)
	}
	if out.ResultCount != 2 {
		t.Fatalf("expected result_count 2, got %d", out.ResultCount)
	}
}

func TestHandleChatDeveloperModeExposesSQL(t *testing.T) {
	provider := &mockProvider{chatResponse: "```sql\nSELECT * FROM argo_data WHERE pres < 100\n```"}
	exec := &fakeExecutor{}
	srv := newTestServer(t, provider, exec)

	body, _ := json.Marshal(map[string]string{"question": "shallow measurements", "mode": "developer"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var out gateway.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.SQLQuery == nil {
		t.Fatal("developer mode should expose the executed statement")
	}
	if !strings.Contains(*out.SQLQuery, "LIMIT") {
		t.Fatalf("executed statement should be bounded, got %q", *out.SQLQuery)
	}
}

func TestHandleChatRejectsMissingQuestion(t *testing.T) {
	srv := newTestServer(t, &mockProvider{}, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"mode":"user"}`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleDataExecutesRawQuery(t *testing.T) {
	exec := &fakeExecutor{result: &postgres.ResultSet{
		Columns: []string{"temp"},
		Rows:    []postgres.Row{{"temp": 18.5}},
	}}
	srv := newTestServer(t, &mockProvider{}, exec)

	payload := `{"query":"SELECT temp FROM argo_data WHERE pres < 50","limit":10}`
	req := httptest.NewRequest(http.MethodPost, "/v1/data", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(exec.statements) != 1 {
		t.Fatalf("expected one execution, got %d", len(exec.statements))
	}
	if exec.policies[0].MaxRows != 10 {
		t.Fatalf("expected policy max rows 10, got %d", exec.policies[0].MaxRows)
	}
	var out gateway.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.SQLQuery == nil {
		t.Fatal("data endpoint defaults to developer mode and should expose the statement")
	}
	if out.ResultCount != 1 {
		t.Fatalf("expected result_count 1, got %d", out.ResultCount)
	}
}

func TestHandleDataClampsLimit(t *testing.T) {
	exec := &fakeExecutor{}
	srv := newTestServer(t, &mockProvider{}, exec)

	payload := `{"query":"SELECT * FROM argo_data","limit":100000}`
	req := httptest.NewRequest(http.MethodPost, "/v1/data", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if exec.policies[0].MaxRows != DefaultConfig().DataMaxRows {
		t.Fatalf("expected limit clamped to %d, got %d", DefaultConfig().DataMaxRows, exec.policies[0].MaxRows)
	}
}

func TestHandleDataRejectsMissingQuery(t *testing.T) {
	srv := newTestServer(t, &mockProvider{}, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodPost, "/v1/data", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleHistoryUnavailableWithoutStore(t *testing.T) {
	srv := newTestServer(t, &mockProvider{}, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestHandleSummaryUnavailableWithoutService(t *testing.T) {
	srv := newTestServer(t, &mockProvider{}, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/v1/summary", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestWorkerRotatesThroughSlots(t *testing.T) {
	exec := &fakeExecutor{}
	srv := newTestServer(t, &mockProvider{chatResponse: "```sql\nSELECT * FROM argo_data\n```"}, exec)

	for i := 0; i < 3; i++ {
		body, _ := json.Marshal(map[string]string{"question": "list floats", "mode": "developer"})
		req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	if len(exec.workers) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(exec.workers))
	}
	if exec.workers[0] == exec.workers[1] {
		t.Fatalf("consecutive requests should use distinct worker slots, both got %q", exec.workers[0])
	}
	for _, w := range exec.workers {
		if !strings.HasPrefix(w, "api-") {
			t.Fatalf("unexpected worker identity %q", w)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &mockProvider{}, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
