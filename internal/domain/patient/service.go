package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/twinhealth/twin/internal/platform/ws"
)

// SnapshotObserver is notified after a snapshot has been durably stored.
// Observers run on the request path and must be fast.
type SnapshotObserver interface {
	SnapshotCreated(ctx context.Context, p *Patient, s *ClinicalSnapshot)
}

type Service struct {
	patients  Repository
	snapshots SnapshotRepository
	events    ws.EventPublisher
	logger    zerolog.Logger
	observers []SnapshotObserver
}

// NewService wires the patient domain. events may be nil to disable realtime
// notifications.
func NewService(patients Repository, snapshots SnapshotRepository, events ws.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{patients: patients, snapshots: snapshots, events: events, logger: logger}
}

// Observe registers an observer for snapshot creation. Wire observers during
// startup; the slice is not guarded for concurrent mutation.
func (s *Service) Observe(obs SnapshotObserver) {
	s.observers = append(s.observers, obs)
}

// -- Patients --

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// -- Snapshots --

// CreateSnapshot stores a new immutable snapshot and fans the creation out to
// websocket subscribers and registered observers.
func (s *Service) CreateSnapshot(ctx context.Context, snap *ClinicalSnapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	p, err := s.patients.GetByID(ctx, snap.PatientID)
	if err != nil {
		return err
	}
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = time.Now().UTC()
	}
	if err := s.snapshots.Create(ctx, snap); err != nil {
		return err
	}

	s.publishCreated(ctx, p, snap)
	for _, obs := range s.observers {
		obs.SnapshotCreated(ctx, p, snap)
	}
	return nil
}

func (s *Service) GetSnapshot(ctx context.Context, patientID, snapshotID uuid.UUID) (*ClinicalSnapshot, error) {
	return s.snapshots.GetByID(ctx, patientID, snapshotID)
}

func (s *Service) LatestSnapshot(ctx context.Context, patientID uuid.UUID) (*ClinicalSnapshot, error) {
	return s.snapshots.Latest(ctx, patientID)
}

// ListSnapshots returns the patient's full history, oldest first.
func (s *Service) ListSnapshots(ctx context.Context, patientID uuid.UUID) ([]ClinicalSnapshot, error) {
	return s.snapshots.History(ctx, patientID)
}

// ListSnapshotsPage returns one page of the history, newest first.
func (s *Service) ListSnapshotsPage(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ClinicalSnapshot, int, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.snapshots.List(ctx, patientID, limit, offset)
}

func (s *Service) publishCreated(ctx context.Context, p *Patient, snap *ClinicalSnapshot) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, ws.Event{
		Type:  ws.EventSnapshotCreated,
		Topic: ws.PatientTopic(p.ID.String()),
		Payload: map[string]string{
			"patientId":  p.ID.String(),
			"snapshotId": snap.ID.String(),
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("snapshot event publish failed")
	}
}

// -- Validation --

var validActivityLevels = map[string]bool{
	"inactive": true,
	"low":      true,
	"moderate": true,
	"high":     true,
}

var validSmokingStatus = map[string]bool{
	SmokingNever:    true,
	SmokingPrevious: true,
	SmokingCurrent:  true,
}

func validatePatient(p *Patient) error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("full name is required")
	}
	switch strings.ToUpper(p.Sex) {
	case "M", "F":
		p.Sex = strings.ToUpper(p.Sex)
	default:
		return fmt.Errorf("sex must be M or F")
	}
	if p.BirthDate.IsZero() {
		return fmt.Errorf("birth date is required")
	}
	if p.BirthDate.After(time.Now()) {
		return fmt.Errorf("birth date cannot be in the future")
	}
	return nil
}

func validateSnapshot(snap *ClinicalSnapshot) error {
	if snap.PatientID == uuid.Nil {
		return fmt.Errorf("patient id is required")
	}
	if snap.HeightCm <= 0 {
		return fmt.Errorf("height must be positive")
	}
	if snap.WeightKg <= 0 {
		return fmt.Errorf("weight must be positive")
	}
	if snap.PhysicalActivityLevel != nil && !validActivityLevels[*snap.PhysicalActivityLevel] {
		return fmt.Errorf("unknown physical activity level %q", *snap.PhysicalActivityLevel)
	}
	if snap.SmokingStatus != nil && !validSmokingStatus[*snap.SmokingStatus] {
		return fmt.Errorf("unknown smoking status %q", *snap.SmokingStatus)
	}

	positives := []struct {
		name string
		v    *float64
	}{
		{"waist", snap.WaistCm},
		{"systolic bp", snap.SystolicBp},
		{"diastolic bp", snap.DiastolicBp},
		{"triglycerides", snap.TriglyceridesMgDl},
		{"hdl", snap.HdlMgDl},
		{"ldl", snap.LdlMgDl},
		{"total cholesterol", snap.TotalCholesterolMgDl},
		{"fasting glucose", snap.FastingGlucoseMgDl},
		{"ast", snap.AstUl},
		{"alt", snap.AltUl},
		{"ggt", snap.GgtUl},
	}
	for _, f := range positives {
		if f.v != nil && *f.v <= 0 {
			return fmt.Errorf("%s must be positive when provided", f.name)
		}
	}

	if snap.BodyFatPct != nil && (*snap.BodyFatPct <= 0 || *snap.BodyFatPct >= 100) {
		return fmt.Errorf("body fat percent must be between 0 and 100")
	}
	if snap.MusclePct != nil && (*snap.MusclePct <= 0 || *snap.MusclePct >= 100) {
		return fmt.Errorf("muscle percent must be between 0 and 100")
	}
	if snap.VisceralFatRating != nil && (*snap.VisceralFatRating < 1 || *snap.VisceralFatRating > 30) {
		return fmt.Errorf("visceral fat rating must be between 1 and 30")
	}
	if snap.AuditScore != nil && (*snap.AuditScore < 0 || *snap.AuditScore > 40) {
		return fmt.Errorf("audit score must be between 0 and 40")
	}
	if snap.BdiScore != nil && (*snap.BdiScore < 0 || *snap.BdiScore > 63) {
		return fmt.Errorf("bdi score must be between 0 and 63")
	}
	return nil
}
