// Package patient owns the demographic records and the append-only clinical
// snapshot history the twin computations read from.
package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the demographic root record. Clinical measurements never live
// here; they are captured as immutable snapshots.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"fullName"`
	Sex       string    `db:"sex" json:"sex"`
	BirthDate time.Time `db:"birth_date" json:"birthDate"`
	Archetype *string   `db:"archetype" json:"archetype,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// AgeAt returns the patient's age in whole years at t.
func (p *Patient) AgeAt(t time.Time) int {
	age := t.Year() - p.BirthDate.Year()
	anniversary := time.Date(t.Year(), p.BirthDate.Month(), p.BirthDate.Day(), 0, 0, 0, 0, time.UTC)
	if t.Before(anniversary) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}

// ClinicalSnapshot is one visit's measurements. Snapshots are append-only:
// once written they are never updated or deleted, so every assessment is
// reproducible against the exact inputs it saw. Height and weight are always
// present; everything else is optional and nil when not collected.
type ClinicalSnapshot struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patientId"`
	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`

	HeightCm float64 `db:"height_cm" json:"heightCm"`
	WeightKg float64 `db:"weight_kg" json:"weightKg"`

	WaistCm              *float64 `db:"waist_cm" json:"waistCm,omitempty"`
	SystolicBp           *float64 `db:"systolic_bp" json:"systolicBp,omitempty"`
	DiastolicBp          *float64 `db:"diastolic_bp" json:"diastolicBp,omitempty"`
	TriglyceridesMgDl    *float64 `db:"triglycerides_mg_dl" json:"triglyceridesMgDl,omitempty"`
	HdlMgDl              *float64 `db:"hdl_mg_dl" json:"hdlMgDl,omitempty"`
	LdlMgDl              *float64 `db:"ldl_mg_dl" json:"ldlMgDl,omitempty"`
	TotalCholesterolMgDl *float64 `db:"total_cholesterol_mg_dl" json:"totalCholesterolMgDl,omitempty"`
	FastingGlucoseMgDl   *float64 `db:"fasting_glucose_mg_dl" json:"fastingGlucoseMgDl,omitempty"`
	AstUl                *float64 `db:"ast_ul" json:"astUL,omitempty"`
	AltUl                *float64 `db:"alt_ul" json:"altUL,omitempty"`
	GgtUl                *float64 `db:"ggt_ul" json:"ggtUL,omitempty"`

	PhysicalActivityLevel *string `db:"physical_activity_level" json:"physicalActivityLevel,omitempty"`
	SmokingStatus         *string `db:"smoking_status" json:"smokingStatus,omitempty"`
	AuditScore            *int    `db:"audit_score" json:"auditScore,omitempty"`
	BdiScore              *int    `db:"bdi_score" json:"bdiScore,omitempty"`

	IsOnAntihypertensive bool `db:"is_on_antihypertensive" json:"isOnAntihypertensive"`
	IsOnAntidiabetic     bool `db:"is_on_antidiabetic" json:"isOnAntidiabetic"`
	IsOnLipidLowering    bool `db:"is_on_lipid_lowering" json:"isOnLipidLowering"`

	DiseaseCodes []string `db:"disease_codes" json:"diseaseCodes"`

	BodyFatPct        *float64 `db:"body_fat_pct" json:"bodyFatPct,omitempty"`
	MusclePct         *float64 `db:"muscle_pct" json:"musclePct,omitempty"`
	VisceralFatRating *int     `db:"visceral_fat_rating" json:"visceralFatRating,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BMI derives body mass index from the stored height and weight. A
// non-positive height yields zero rather than dividing by it.
func (s *ClinicalSnapshot) BMI() float64 {
	if s.HeightCm <= 0 {
		return 0
	}
	m := s.HeightCm / 100
	return s.WeightKg / (m * m)
}

// Smoking status categories.
const (
	SmokingNever    = "never"
	SmokingPrevious = "previous"
	SmokingCurrent  = "current"
)
