package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(repo *mockRecordRepo) (*Handler, *echo.Echo) {
	return NewHandler(NewService(repo, nil, zerolog.Nop())), echo.New()
}

func TestHandler_ListAssessments(t *testing.T) {
	repo := &mockRecordRepo{}
	h, e := newTestHandler(repo)

	patientID := uuid.New()
	for i := 0; i < 2; i++ {
		rec := sampleAssessment()
		rec.PatientID = patientID
		h.svc.Record(context.Background(), rec)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(patientID.String())

	if err := h.ListAssessments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data    []Record `json:"data"`
		Total   int      `json:"total"`
		HasMore bool     `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Errorf("total = %d, data = %d, want 2 each", resp.Total, len(resp.Data))
	}
	if resp.Data[0].ModelVersion != "v2" {
		t.Errorf("ModelVersion = %q", resp.Data[0].ModelVersion)
	}
}

func TestHandler_ListAssessments_InvalidID(t *testing.T) {
	h, e := newTestHandler(&mockRecordRepo{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.ListAssessments(c)
	if err == nil {
		t.Fatal("expected error")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListAssessments_RepoError(t *testing.T) {
	h, e := newTestHandler(&mockRecordRepo{fail: true})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.ListAssessments(c)
	if err == nil {
		t.Fatal("expected error")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
}
