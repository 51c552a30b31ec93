// Package audit keeps the persistent trail of every risk assessment the
// engine computed. Assessments themselves are ephemeral; this log is what
// reviews and model recalibrations read.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/twinhealth/twin/internal/domain/twin"
)

// Record is one stored assessment. Factors are kept verbatim as computed so
// the log reflects exactly what the caller saw.
type Record struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patientId"`
	SnapshotID    *uuid.UUID    `db:"snapshot_id" json:"snapshotId,omitempty"`
	ModelVersion  string        `db:"model_version" json:"modelVersion"`
	Probability   float64       `db:"probability" json:"probability"`
	CriteriaCount int           `db:"criteria_count" json:"criteriaCount"`
	HasSyndrome   bool          `db:"has_syndrome" json:"hasSyndrome"`
	Factors       []twin.Factor `db:"factors" json:"factors"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}
