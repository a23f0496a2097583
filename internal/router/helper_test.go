package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/riskcast-api/internal/handler"
	accidentHandler "github.com/jwalitptl/riskcast-api/internal/handler/accident"
	"github.com/jwalitptl/riskcast-api/internal/handler/dashboard"
	hospitalHandler "github.com/jwalitptl/riskcast-api/internal/handler/hospital"
	"github.com/jwalitptl/riskcast-api/internal/middleware"
	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/internal/router"
	hospitalService "github.com/jwalitptl/riskcast-api/internal/service/hospital"
	"github.com/jwalitptl/riskcast-api/internal/service/session"
	"github.com/jwalitptl/riskcast-api/pkg/messaging"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
	"github.com/jwalitptl/riskcast-api/pkg/scoring"
)

type Response struct {
	Success bool            `json:"success"`
	RawData json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
		TraceID string `json:"trace_id"`
	} `json:"error"`

	StatusCode int `json:"-"`
}

func (r Response) IsSuccess() bool {
	return r.Success && r.StatusCode == http.StatusOK
}

func (r Response) Into(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.RawData, v))
}

type fakeAccident struct {
	assessment *model.AccidentRiskAssessment
	err        error
	dates      []string
}

func (f *fakeAccident) Assess(_ context.Context, date string) (*model.AccidentRiskAssessment, error) {
	f.dates = append(f.dates, date)
	if f.err != nil {
		return nil, f.err
	}
	a := *f.assessment
	a.TargetDate = date
	return &a, nil
}

type testApp struct {
	server   *httptest.Server
	engine   *gin.Engine
	store    *session.Store
	accident *fakeAccident
	registry *prometheus.Registry
}

func newTestApp(t *testing.T, models scoring.Set) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry, "riskcast")
	store := session.NewStore()
	acc := &fakeAccident{assessment: &model.AccidentRiskAssessment{
		Prediction: model.AccidentPrediction{Tier: model.TierUnavailable, TierLabel: "N/A", Scale: "0-10"},
	}}

	availability := model.ModelAvailability{
		HospitalLoaded: models.HospitalLoaded(),
		AccidentLoaded: models.AccidentLoaded(),
	}
	engine := hospitalService.NewEngine(models, hospitalService.Config{}, m)

	r := router.NewRouter(
		handler.NewHandler(availability, registry),
		hospitalHandler.NewHandler(engine, store, messaging.NopBroker{}, "test", m),
		dashboard.NewHandler(store),
		accidentHandler.NewHandler(acc),
		m,
		router.RouterConfig{
			CORSConfig:   middleware.DefaultCORSConfig(),
			MaxBodyBytes: middleware.DefaultMaxBodySize,
		},
	)
	r.Setup()

	srv := httptest.NewServer(r.Engine())
	t.Cleanup(srv.Close)

	return &testApp{server: srv, engine: r.Engine(), store: store, accident: acc, registry: registry}
}

func (a *testApp) makeRequest(t *testing.T, method, path string, body interface{}) Response {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			reqBody.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	resp.StatusCode = w.Code
	return resp
}

func admission() map[string]interface{} {
	return map[string]interface{}{
		"Hospital_type":                     2,
		"Hospital_city":                     3,
		"Hospital_region":                   1,
		"Available_Extra_Rooms_in_Hospital": 1,
		"Bed_Grade":                         2.0,
		"Patient_Visitors":                  2,
		"City_Code_Patient":                 7.0,
		"Admission_Deposit":                 4911.0,
		"Department":                        "gynecology",
		"Ward_Type":                         "R",
		"Ward_Facility":                     "F",
		"Type_of_Admission":                 "Trauma",
		"Illness_Severity":                  "Severe",
		"Age":                               "41-50",
	}
}
