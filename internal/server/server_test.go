package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/alerting"
	"github.com/sells-group/prospect-cli/internal/cadence"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/scoring"
	"github.com/sells-group/prospect-cli/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	p := pipeline.New(
		st,
		nil,
		nil,
		scoring.NewICPClassifier(scoring.DefaultVerticalCatalog()),
		scoring.NewPropensityScorer(scoring.DefaultOfferCatalog()),
		scoring.NewMaturityCalculator(),
		scoring.NewVendorFitCalculator("TOTVS", scoring.DefaultTOTVSRules()),
		cadence.NewManager(cadence.DefaultTemplates()),
	)
	engine := alerting.NewEngine(st, nil)
	return New(st, p, engine), st
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyzeValidatesBody(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{not json`, "invalid request body"},
		{"missing cnpj", `{"offer_id":"TOTVS_Protheus"}`, "cnpj is required"},
		{"missing offer", `{"cnpj":"11222333000181"}`, "offer_id is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestAnalyzeAsyncAccepted(t *testing.T) {
	srv, st := newTestServer(t)

	body := `{"cnpj":"11222333000181","offer_id":"TOTVS_Protheus"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "accepted")

	// The run is created in the background
	assert.Eventually(t, func() bool {
		runs, err := st.ListRuns(context.Background(), store.RunFilter{CompanyID: "11222333000181"})
		return err == nil && len(runs) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAnalyzeWaitReturnsResult(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := map[string]any{
		"offer_id": "TOTVS_Protheus",
		"bundle":   map[string]any{"company_id": "11222333000181", "name": "Metalurgica Sul"},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze?wait=true", bytes.NewBuffer(raw))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	require.NotNil(t, result.Recommendation)
	assert.Equal(t, model.DecisionNoGo, result.Recommendation.Decision)
}

func TestAnalyzeWaitUnknownOffer(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"cnpj":"11222333000181","offer_id":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze?wait=true", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListRuns(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "11222333000181")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusComplete, 120, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/runs?status=complete", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs []model.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, run.ID, body.Runs[0].ID)
}

func TestListRunsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=abc", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun(t *testing.T) {
	srv, st := newTestServer(t)
	run, err := st.CreateRun(context.Background(), "11222333000181")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompanyProfile(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, st.SaveICPProfile(context.Background(), &model.ICPProfile{
		CompanyID: "11222333000181",
		Vertical:  "Manufatura",
		Score:     88,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/companies/11222333000181/profile", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Manufatura")

	req = httptest.NewRequest(http.MethodGet, "/api/companies/unknown/profile", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSweepEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, st.UpsertAlertRule(context.Background(), &model.AlertRule{
		Name:     "quota-serper",
		Kind:     model.AlertQuota,
		Severity: model.AlertMedium,
		Enabled:  true,
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/sweep", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats alerting.SweepStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.RulesEvaluated)
	assert.Equal(t, 0, stats.Fired)
}

func TestSweepWithoutEngine(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.alerts = nil

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/sweep", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListAlerts(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, st.InsertAlertEvent(context.Background(), &model.AlertEvent{
		ID:        "evt-1",
		RuleName:  "quota-serper",
		Severity:  model.AlertMedium,
		Message:   "quota exceeded for serper",
		Signature: "abc",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota-serper")
}
