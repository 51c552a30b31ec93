package twin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, uuid.UUID) {
	src, p, _ := seedSource()
	h := NewHandler(newTwinService(src, &mockSink{}, nil, nil))
	e := echo.New()
	return h, e, p.ID
}

func errCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("error = %v, want *echo.HTTPError", err)
	}
	return he.Code
}

func TestHandler_GetRisk(t *testing.T) {
	h, e, pid := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.GetRisk(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var res RiskAssessment
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.ModelVersion != "v2" || res.RiskProbability <= 0 {
		t.Errorf("assessment = %+v", res)
	}
}

func TestHandler_GetRisk_VersionQuery(t *testing.T) {
	h, e, pid := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?version=v1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.GetRisk(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res RiskAssessment
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.ModelVersion != "v1" {
		t.Errorf("model version = %q, want v1", res.ModelVersion)
	}
}

func TestHandler_GetRisk_Errors(t *testing.T) {
	h, e, pid := newTestHandler()
	cases := []struct {
		name   string
		id     string
		target string
		want   int
	}{
		{"invalid id", "not-a-uuid", "/", http.StatusBadRequest},
		{"unknown patient", uuid.New().String(), "/", http.StatusNotFound},
		{"unknown version", pid.String(), "/?version=v9", http.StatusBadRequest},
		{"invalid snapshot id", pid.String(), "/?snapshot_id=zzz", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tc.id)
			err := h.GetRisk(c)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := errCode(t, err); code != tc.want {
				t.Errorf("status = %d, want %d", code, tc.want)
			}
		})
	}
}

func TestHandler_AssessRisk_WithOverrides(t *testing.T) {
	h, e, pid := newTestHandler()
	body := `{"version":"v1","overrides":{"fastingGlucoseMgDl":126}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.AssessRisk(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var res RiskAssessment
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.ModelVersion != "v1" {
		t.Errorf("model version = %q, want v1", res.ModelVersion)
	}
	if res.Explanation.ComponentStatus.Glucose.Value != 126 {
		t.Errorf("glucose = %v, want the 126 override", res.Explanation.ComponentStatus.Glucose.Value)
	}
}

func TestHandler_AssessRisk_InvalidOverride(t *testing.T) {
	h, e, pid := newTestHandler()
	body := `{"overrides":{"weightKg":-5}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	err := h.AssessRisk(c)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errCode(t, err); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestHandler_GetDeformation(t *testing.T) {
	h, e, pid := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.GetDeformation(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var res DeformationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Channels.Weight <= 0 {
		t.Errorf("channels = %+v, want a populated weight channel", res.Channels)
	}
	if res.Evidence.Mass != "manual" {
		t.Errorf("mass evidence = %q, want manual", res.Evidence.Mass)
	}
}

func TestHandler_GetTimeline(t *testing.T) {
	h, e, pid := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?at=2025.5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.GetTimeline(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res TimelineResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(res.Points) != 1 {
		t.Fatalf("points = %d, want 1", len(res.Points))
	}
	if res.Interpolated == nil || *res.Interpolated != res.Points[0].Channels {
		t.Errorf("interpolated = %+v, want the single point's channels", res.Interpolated)
	}
}

func TestHandler_GetTimeline_InvalidAt(t *testing.T) {
	h, e, pid := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?at=june", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	err := h.GetTimeline(c)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errCode(t, err); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestHandler_Simulate(t *testing.T) {
	h, e, pid := newTestHandler()
	body := `{"interventions":[{"type":"weight_loss","weightLossKg":10}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.Simulate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var res SimulationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Impact.NNT == nil || *res.Impact.NNT != 4 {
		t.Errorf("NNT = %v, want 4", res.Impact.NNT)
	}
	if res.Disclaimer == "" {
		t.Error("disclaimer missing from simulation response")
	}
}

func TestHandler_Simulate_UnknownIntervention(t *testing.T) {
	h, e, pid := newTestHandler()
	body := `{"interventions":[{"type":"surgery"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	err := h.Simulate(c)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errCode(t, err); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestHandler_ListModels(t *testing.T) {
	h, e, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListModels(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var infos []ModelInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(infos) != 2 {
		t.Errorf("models = %d, want 2", len(infos))
	}
}
