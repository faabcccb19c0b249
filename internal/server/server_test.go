package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-lab/internal/config"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/observability"
	"valuation-lab/internal/service"
	"valuation-lab/internal/simulation"
	"valuation-lab/internal/storage/memory"
)

const dcfJobJSON = `{
  "formula": "dcf",
  "baseInputs": {"currentRevenue": 1000000000, "currentPrice": 100, "sharesOutstanding": 100000000},
  "distributions": {
    "wacc": {"kind": "normal", "parameters": {"mean": 0.10, "stdDev": 0.01}, "enabled": true},
    "revenueGrowth": {"kind": "uniform", "parameters": {"min": 0.02, "max": 0.08}, "enabled": true}
  },
  "options": {"iterations": %d, "randomSeed": 42, "progressBatch": 100}
}`

func job(iterations int) string {
	return fmt.Sprintf(dcfJobJSON, iterations)
}

func newTestServer(t *testing.T) (*Server, *service.Service) {
	t.Helper()
	metrics := observability.NewMetrics("test", nil)
	svc := service.New(service.Options{
		Engine:       simulation.NewEngine(simulation.WithObserver(metrics)),
		RunStore:     memory.NewSimulationStore(),
		OutcomeStore: memory.NewOutcomeStore(),
		Metrics:      metrics,
		Defaults:     config.SimulationConfig{Workers: 2},
	})
	t.Cleanup(svc.Close)
	return New(svc, metrics), svc
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func submit(t *testing.T, s *Server, iterations int) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/simulations", job(iterations))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func waitCompleted(t *testing.T, s *Server, id string) service.RunView {
	t.Helper()
	var view service.RunView
	require.Eventually(t, func() bool {
		w := do(t, s, http.MethodGet, "/api/simulations/"+id, "")
		if w.Code != http.StatusOK {
			return false
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		return view.Status == domain.StatusCompleted && view.Result != nil
	}, 30*time.Second, 20*time.Millisecond)
	return view
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSubmitAndFetch(t *testing.T) {
	s, _ := newTestServer(t)

	id := submit(t, s, 1000)
	view := waitCompleted(t, s, id)
	assert.Equal(t, 1000, view.Result.Completed)
	assert.Equal(t, uint64(42), view.Result.RandomSeed)

	w := do(t, s, http.MethodGet, "/api/simulations?formula=dcf", "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []domain.SimulationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)
}

func TestSubmit_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"formula":`},
		{"unknown formula", `{"formula":"xyz","distributions":{"wacc":{"kind":"normal","parameters":{"mean":0.1,"stdDev":0.01},"enabled":true}}}`},
		{"invalid distribution", strings.Replace(job(100), `"stdDev": 0.01`, `"stdDev": -1`, 1)},
		{"invalid confidence", strings.Replace(job(100), `"randomSeed": 42`, `"randomSeed": 42, "confidenceLevel": 2`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/simulations", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestUnknownSimulation(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/simulations/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/simulations/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/simulations/nope/ws", "").Code)
}

func TestStopSimulation(t *testing.T) {
	s, _ := newTestServer(t)

	id := submit(t, s, 5_000_000)
	w := do(t, s, http.MethodDelete, "/api/simulations/"+id, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	require.Eventually(t, func() bool {
		w := do(t, s, http.MethodGet, "/api/simulations/"+id, "")
		var view service.RunView
		if json.Unmarshal(w.Body.Bytes(), &view) != nil {
			return false
		}
		return view.Status == domain.StatusCancelled
	}, 30*time.Second, 20*time.Millisecond)
}

func TestReportFormats(t *testing.T) {
	s, _ := newTestServer(t)
	waitCompleted(t, s, submit(t, s, 500))

	w := do(t, s, http.MethodGet, "/api/report?format=markdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "#")

	w = do(t, s, http.MethodGet, "/api/report?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(w.Body.String()), "\n")+1)

	w = do(t, s, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/report?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_api_reports_generated_total")
}

func TestProgressWebSocket(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := submit(t, s, 200_000)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/simulations/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var last service.Update
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		var u service.Update
		if err := conn.ReadJSON(&u); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
		assert.Equal(t, id, u.ID)
		assert.GreaterOrEqual(t, u.Fraction, last.Fraction)
		last = u
	}
	assert.Equal(t, domain.StatusCompleted, last.Status)
	assert.Equal(t, 1.0, last.Fraction)
}
