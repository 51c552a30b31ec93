package twin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/twinhealth/twin/internal/domain/patient"
	"github.com/twinhealth/twin/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Twin outputs are clinical reads – admin, physician, nurse
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/patients/:id/risk", h.GetRisk)
	readGroup.POST("/patients/:id/risk", h.AssessRisk)
	readGroup.GET("/patients/:id/deformation", h.GetDeformation)
	readGroup.GET("/patients/:id/deformation/timeline", h.GetTimeline)
	readGroup.POST("/patients/:id/simulation", h.Simulate)
	readGroup.GET("/twin/models", h.ListModels)
}

// -- Risk Handlers --

func (h *Handler) GetRisk(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	snapshotID, err := optionalUUID(c.QueryParam("snapshot_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid snapshot_id")
	}
	res, err := h.svc.Assess(c.Request().Context(), AssessInput{
		PatientID:  id,
		SnapshotID: snapshotID,
		Version:    c.QueryParam("version"),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

type assessRequest struct {
	SnapshotID *uuid.UUID       `json:"snapshotId"`
	Version    string           `json:"version"`
	Overrides  FeatureOverrides `json:"overrides"`
}

// AssessRisk computes the risk with caller-supplied feature overrides layered
// over the snapshot.
func (h *Handler) AssessRisk(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Assess(c.Request().Context(), AssessInput{
		PatientID:  id,
		SnapshotID: req.SnapshotID,
		Version:    req.Version,
		Overrides:  req.Overrides,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// -- Deformation Handlers --

func (h *Handler) GetDeformation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	snapshotID, err := optionalUUID(c.QueryParam("snapshot_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid snapshot_id")
	}
	res, err := h.svc.Deformation(c.Request().Context(), id, snapshotID, c.QueryParam("version"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetTimeline(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var at *float64
	if raw := c.QueryParam("at"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid at")
		}
		at = &v
	}
	res, err := h.svc.Timeline(c.Request().Context(), id, at, c.QueryParam("version"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// -- Simulation Handlers --

type simulateRequest struct {
	SnapshotID    *uuid.UUID     `json:"snapshotId"`
	Version       string         `json:"version"`
	Interventions []Intervention `json:"interventions"`
}

func (h *Handler) Simulate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req simulateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.SimulateInterventions(c.Request().Context(), id, req.SnapshotID, req.Version, req.Interventions)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// -- Model Metadata Handlers --

func (h *Handler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Models())
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// httpError maps service errors onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnknownVersion), errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
