package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/twinhealth/twin/internal/domain/twin"
)

// EventProducer mirrors stored records onto the event stream. *events.Producer
// satisfies it.
type EventProducer interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type Service struct {
	repo     Repository
	producer EventProducer
	logger   zerolog.Logger
}

// NewService wires the audit log. producer may be nil to disable the Kafka
// mirror.
func NewService(repo Repository, producer EventProducer, logger zerolog.Logger) *Service {
	return &Service{repo: repo, producer: producer, logger: logger}
}

// Record implements twin.AssessmentSink. Postgres is the durable log; the
// stream mirror is best-effort and its failures only warn.
func (s *Service) Record(ctx context.Context, rec twin.AssessmentRecord) error {
	stored := &Record{
		ID:            rec.ID,
		PatientID:     rec.PatientID,
		SnapshotID:    rec.SnapshotID,
		ModelVersion:  rec.ModelVersion,
		Probability:   rec.Probability,
		CriteriaCount: rec.CriteriaCount,
		HasSyndrome:   rec.HasSyndrome,
		Factors:       rec.Factors,
		CreatedAt:     rec.CreatedAt,
	}
	if err := s.repo.Create(ctx, stored); err != nil {
		return err
	}

	if s.producer != nil {
		if err := s.producer.Publish(ctx, "assessment.recorded", stored.PatientID.String(), stored); err != nil {
			s.logger.Warn().Err(err).Str("record_id", stored.ID.String()).Msg("assessment stream mirror failed")
		}
	}
	return nil
}

// ListByPatient pages a patient's assessment history, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
