package twin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/twinhealth/twin/internal/domain/patient"
	"github.com/twinhealth/twin/internal/platform/ws"
)

var (
	// ErrUnknownVersion marks a request for a model version the registry
	// does not carry.
	ErrUnknownVersion = errors.New("unknown model version")
	// ErrInvalidInput marks caller-supplied values that failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// PatientSource is the slice of the patient domain the twin engine reads.
// *patient.Service satisfies it.
type PatientSource interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetSnapshot(ctx context.Context, patientID, snapshotID uuid.UUID) (*patient.ClinicalSnapshot, error)
	LatestSnapshot(ctx context.Context, patientID uuid.UUID) (*patient.ClinicalSnapshot, error)
	ListSnapshots(ctx context.Context, patientID uuid.UUID) ([]patient.ClinicalSnapshot, error)
}

// AssessmentSink receives the audit record of every computed assessment.
// Sink failures are logged and swallowed; they never invalidate the computed
// result.
type AssessmentSink interface {
	Record(ctx context.Context, rec AssessmentRecord) error
}

// AssessmentCache fronts risk computation with a read-through cache.
// Implementations must be safe for concurrent use. A nil cache disables
// caching entirely.
type AssessmentCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service computes assessments, deformations, timelines and simulations from
// stored snapshots. It holds no mutable model state; every calibration comes
// from the versioned config registry.
type Service struct {
	patients       PatientSource
	sink           AssessmentSink
	cache          AssessmentCache
	events         ws.EventPublisher
	logger         zerolog.Logger
	defaultVersion string
	cacheTTL       time.Duration
}

// NewService wires the twin engine. sink, cache and events may be nil, which
// disables auditing, caching and websocket fan-out respectively.
func NewService(patients PatientSource, sink AssessmentSink, cache AssessmentCache, events ws.EventPublisher, logger zerolog.Logger, defaultVersion string, cacheTTL time.Duration) *Service {
	if _, err := Config(defaultVersion); err != nil {
		defaultVersion = DefaultVersion
	}
	return &Service{
		patients:       patients,
		sink:           sink,
		cache:          cache,
		events:         events,
		logger:         logger,
		defaultVersion: defaultVersion,
		cacheTTL:       cacheTTL,
	}
}

func (s *Service) config(version string) (ModelConfig, error) {
	if version == "" {
		version = s.defaultVersion
	}
	cfg, err := Config(version)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
	return cfg, nil
}

// resolve loads the patient plus either the named snapshot or the latest one.
func (s *Service) resolve(ctx context.Context, patientID uuid.UUID, snapshotID *uuid.UUID) (*patient.Patient, *patient.ClinicalSnapshot, error) {
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	var snap *patient.ClinicalSnapshot
	if snapshotID != nil {
		snap, err = s.patients.GetSnapshot(ctx, patientID, *snapshotID)
	} else {
		snap, err = s.patients.LatestSnapshot(ctx, patientID)
	}
	if err != nil {
		return nil, nil, err
	}
	return p, snap, nil
}

// AssessInput names the inputs of one risk computation.
type AssessInput struct {
	PatientID  uuid.UUID
	SnapshotID *uuid.UUID
	Version    string
	Overrides  FeatureOverrides
}

// Assess computes the risk assessment for a patient snapshot. Results are
// read through the cache keyed by model version, snapshot and feature
// fingerprint; a fresh computation is recorded with the audit sink.
func (s *Service) Assess(ctx context.Context, in AssessInput) (*RiskAssessment, error) {
	cfg, err := s.config(in.Version)
	if err != nil {
		return nil, err
	}
	p, snap, err := s.resolve(ctx, in.PatientID, in.SnapshotID)
	if err != nil {
		return nil, err
	}

	fs := FeaturesFromSnapshot(p, snap)
	if !in.Overrides.Empty() {
		fs, err = fs.WithOverrides(in.Overrides)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	key := fmt.Sprintf("twin:risk:%s:%s:%s", cfg.Version, snap.ID, fs.Fingerprint())
	if s.cache != nil {
		var cached RiskAssessment
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn().Err(err).Msg("risk cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	assessment := ComputeRisk(fs, cfg)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &assessment, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("risk cache write failed")
		}
	}
	s.record(ctx, p.ID, snap.ID, assessment)

	return &assessment, nil
}

// record hands the finished assessment to the audit sink. The result has
// already been computed, so failures here are logged, never returned.
func (s *Service) record(ctx context.Context, patientID, snapshotID uuid.UUID, a RiskAssessment) {
	if s.sink == nil {
		return
	}
	rec := AssessmentRecord{
		ID:            uuid.New(),
		PatientID:     patientID,
		SnapshotID:    &snapshotID,
		ModelVersion:  a.ModelVersion,
		Probability:   a.RiskProbability,
		CriteriaCount: a.CriteriaCount,
		HasSyndrome:   a.HasSyndrome,
		Factors:       a.Explanation.TopFactors,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.sink.Record(ctx, rec); err != nil {
		s.logger.Error().Err(err).
			Str("patient_id", patientID.String()).
			Msg("assessment audit write failed")
	}
}

// EvidenceSummary reports which tier supplied each body channel.
type EvidenceSummary struct {
	Mass             string `json:"mass"`
	CentralAdiposity string `json:"centralAdiposity"`
	LeanMass         string `json:"leanMass"`
}

func summarizeEvidence(ev DeformationEvidence) EvidenceSummary {
	return EvidenceSummary{
		Mass:             ev.Mass.String(),
		CentralAdiposity: ev.CentralAdiposity.String(),
		LeanMass:         ev.LeanMass.String(),
	}
}

// DeformationResult pairs the flat channel state with its provenance.
type DeformationResult struct {
	SnapshotID   uuid.UUID        `json:"snapshotId"`
	RecordedAt   time.Time        `json:"recordedAt"`
	ModelVersion string           `json:"modelVersion"`
	Channels     DeformationState `json:"channels"`
	Evidence     EvidenceSummary  `json:"evidence"`
}

// Deformation computes the renderer channels for a patient snapshot.
func (s *Service) Deformation(ctx context.Context, patientID uuid.UUID, snapshotID *uuid.UUID, version string) (*DeformationResult, error) {
	cfg, err := s.config(version)
	if err != nil {
		return nil, err
	}
	p, snap, err := s.resolve(ctx, patientID, snapshotID)
	if err != nil {
		return nil, err
	}
	state, ev := ComputeDeformation(FeaturesFromSnapshot(p, snap), cfg)
	return &DeformationResult{
		SnapshotID:   snap.ID,
		RecordedAt:   snap.RecordedAt,
		ModelVersion: cfg.Version,
		Channels:     state,
		Evidence:     summarizeEvidence(ev),
	}, nil
}

// TimelinePoint is one snapshot's deformation pinned to the timeline axis.
type TimelinePoint struct {
	SnapshotID uuid.UUID        `json:"snapshotId"`
	RecordedAt time.Time        `json:"recordedAt"`
	Year       float64          `json:"year"`
	Channels   DeformationState `json:"channels"`
}

// TimelineResult is the per-snapshot deformation history, with an optional
// interpolated state when the caller asked for a point in time.
type TimelineResult struct {
	ModelVersion string            `json:"modelVersion"`
	Points       []TimelinePoint   `json:"points"`
	At           *float64          `json:"at,omitempty"`
	Interpolated *DeformationState `json:"interpolated,omitempty"`
}

// Timeline computes the deformation for every snapshot of the patient in
// recording order. When at is non-nil the bracketing points are blended
// linearly; instants outside the covered span clamp to the nearest endpoint.
func (s *Service) Timeline(ctx context.Context, patientID uuid.UUID, at *float64, version string) (*TimelineResult, error) {
	cfg, err := s.config(version)
	if err != nil {
		return nil, err
	}
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.patients.ListSnapshots(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("patient %s has no snapshots: %w", patientID, patient.ErrNotFound)
	}

	points := make([]TimelinePoint, 0, len(snaps))
	for i := range snaps {
		state, _ := ComputeDeformation(FeaturesFromSnapshot(p, &snaps[i]), cfg)
		points = append(points, TimelinePoint{
			SnapshotID: snaps[i].ID,
			RecordedAt: snaps[i].RecordedAt,
			Year:       FractionalYear(snaps[i].RecordedAt),
			Channels:   state,
		})
	}

	res := &TimelineResult{ModelVersion: cfg.Version, Points: points}
	if at != nil {
		state := stateAt(points, *at)
		res.At = at
		res.Interpolated = &state
	}
	return res, nil
}

// stateAt blends the two points bracketing t. Outside the covered span it
// clamps to the nearest endpoint; a single point is returned as-is.
func stateAt(points []TimelinePoint, t float64) DeformationState {
	first, last := points[0], points[len(points)-1]
	if len(points) == 1 || t <= first.Year {
		return first.Channels
	}
	if t >= last.Year {
		return last.Channels
	}
	for i := 0; i+1 < len(points); i++ {
		if t <= points[i+1].Year {
			return Interpolate(points[i].Channels, points[i+1].Channels, points[i].Year, points[i+1].Year, t)
		}
	}
	return last.Channels
}

// SimulateInterventions projects the interventions over a patient snapshot
// and returns the counterfactual comparison.
func (s *Service) SimulateInterventions(ctx context.Context, patientID uuid.UUID, snapshotID *uuid.UUID, version string, interventions []Intervention) (*SimulationResult, error) {
	cfg, err := s.config(version)
	if err != nil {
		return nil, err
	}
	p, snap, err := s.resolve(ctx, patientID, snapshotID)
	if err != nil {
		return nil, err
	}
	res, err := Simulate(FeaturesFromSnapshot(p, snap), interventions, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &res, nil
}

// ModelInfo is the published metadata of one model version.
type ModelInfo struct {
	Version           string             `json:"version"`
	Default           bool               `json:"default"`
	Strictness        string             `json:"strictness"`
	TopFactors        int                `json:"topFactors"`
	TimeHorizonMonths int                `json:"timeHorizonMonths"`
	Calibration       CalibrationMetrics `json:"calibrationMetrics"`
}

// Models lists every registered model version and its calibration metadata.
func (s *Service) Models() []ModelInfo {
	infos := make([]ModelInfo, 0, len(Versions()))
	for _, v := range Versions() {
		cfg, err := Config(v)
		if err != nil {
			continue
		}
		infos = append(infos, ModelInfo{
			Version:           cfg.Version,
			Default:           cfg.Version == s.defaultVersion,
			Strictness:        cfg.Strictness.String(),
			TopFactors:        cfg.TopFactors,
			TimeHorizonMonths: cfg.TimeHorizonMonths,
			Calibration:       cfg.Calibration,
		})
	}
	return infos
}

// SnapshotCreated implements patient.SnapshotObserver. A freshly stored
// snapshot immediately changes the rendered twin, so the new deformation is
// fanned out to websocket subscribers of the patient's topic.
func (s *Service) SnapshotCreated(ctx context.Context, p *patient.Patient, snap *patient.ClinicalSnapshot) {
	if s.events == nil {
		return
	}
	cfg, err := s.config("")
	if err != nil {
		return
	}
	state, ev := ComputeDeformation(FeaturesFromSnapshot(p, snap), cfg)
	err = s.events.Publish(ctx, ws.Event{
		Type:  ws.EventDeformationUpdated,
		Topic: ws.PatientTopic(p.ID.String()),
		Payload: DeformationResult{
			SnapshotID:   snap.ID,
			RecordedAt:   snap.RecordedAt,
			ModelVersion: cfg.Version,
			Channels:     state,
			Evidence:     summarizeEvidence(ev),
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("deformation event publish failed")
	}
}
