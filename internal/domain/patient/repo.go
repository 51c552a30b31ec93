package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a patient or snapshot does not exist.
var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}

// SnapshotRepository is append-only: snapshots are created and read, never
// updated or deleted, so stored history stays reproducible.
type SnapshotRepository interface {
	Create(ctx context.Context, s *ClinicalSnapshot) error
	GetByID(ctx context.Context, patientID, id uuid.UUID) (*ClinicalSnapshot, error)
	Latest(ctx context.Context, patientID uuid.UUID) (*ClinicalSnapshot, error)
	// History returns all snapshots of a patient ordered by recording time,
	// oldest first.
	History(ctx context.Context, patientID uuid.UUID) ([]ClinicalSnapshot, error)
	List(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ClinicalSnapshot, int, error)
}
