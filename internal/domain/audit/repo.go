package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository is append-only; recorded assessments are never rewritten.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
}
