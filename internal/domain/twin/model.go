// Package twin derives the three outputs of the metabolic digital twin from a
// patient's clinical measurements: a probabilistic syndrome risk score with
// ranked explanatory factors, a continuous body-deformation state consumed by
// the avatar renderer, and counterfactual projections for hypothetical
// interventions. Every computation is a pure function of a FeatureSet and an
// immutable, versioned ModelConfig.
package twin

import (
	"time"

	"github.com/google/uuid"
)

// Sex as recorded on the patient. Waist and HDL thresholds depend on it.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// ActivityLevel is the self-reported physical activity category.
type ActivityLevel string

const (
	ActivityInactive ActivityLevel = "inactive"
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// activityRank orders levels from least to most active. Used for intervention
// step scaling and for validating transitions.
var activityRank = map[ActivityLevel]int{
	ActivityInactive: 0,
	ActivityLow:      1,
	ActivityModerate: 2,
	ActivityHigh:     3,
}

// ValidActivityLevel reports whether s is one of the four known categories.
func ValidActivityLevel(s ActivityLevel) bool {
	_, ok := activityRank[s]
	return ok
}

// EvidenceTier ranks the measurement source that supplied a feature. Higher
// tiers win: a bioimpedance reading beats a manually recorded measurement,
// which beats a BMI-derived estimate.
type EvidenceTier int

const (
	TierEstimated EvidenceTier = iota
	TierManual
	TierBioimpedance
)

func (t EvidenceTier) String() string {
	switch t {
	case TierBioimpedance:
		return "bioimpedance"
	case TierManual:
		return "manual"
	case TierEstimated:
		return "estimated"
	}
	return "unknown"
}

// FieldFlags records which optional inputs were actually measured, as opposed
// to substituted with a documented default. The explanation layer surfaces
// these so a defaulted-normal value is distinguishable from a measured one.
type FieldFlags struct {
	Waist         bool
	Systolic      bool
	Diastolic     bool
	Triglycerides bool
	HDL           bool
	Glucose       bool
	Activity      bool
}

// FeatureSet is the resolved numeric input of one risk/deformation
// computation. All optional fields have been filled with defaults (see
// FeaturesFromSnapshot) so downstream code never branches on presence.
type FeatureSet struct {
	Sex           Sex
	Age           int
	HeightCm      float64
	WeightKg      float64
	BMI           float64
	WaistCm       float64
	SystolicBP    float64
	DiastolicBP   float64
	Triglycerides float64
	HDL           float64
	Glucose       float64
	ActivityLevel ActivityLevel

	OnAntihypertensive bool
	OnAntidiabetic     bool
	OnLipidLowering    bool

	DiseaseCodes []string

	// Bioimpedance readings, present only when the device supplied them.
	BodyFatPct        *float64
	MusclePct         *float64
	VisceralFatRating *int

	Measured FieldFlags
}

// CriteriaResult is the five-component diagnostic vector and its count.
type CriteriaResult struct {
	Waist         bool
	Triglycerides bool
	HDL           bool
	BloodPressure bool
	Glucose       bool
	Count         int
}

// HasSyndrome reports the composite diagnosis: three or more components.
func (c CriteriaResult) HasSyndrome() bool {
	return c.Count >= 3
}

// Factor is one ranked explanatory record for an exceeded criterion.
type Factor struct {
	Feature      string  `json:"feature"`
	Direction    string  `json:"direction"`
	Severity     string  `json:"severity"`
	Contribution float64 `json:"contribution"`
	Value        float64 `json:"value"`
	Threshold    float64 `json:"threshold"`
	Unit         string  `json:"unit"`
	Measured     bool    `json:"measured"`
}

// ComponentStatus describes one diagnostic component in the explanation
// output. Measured is false when the underlying value was defaulted.
type ComponentStatus struct {
	Exceeded  bool    `json:"exceeded"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Measured  bool    `json:"measured"`
}

// ComponentStatusSet covers all five diagnostic components.
type ComponentStatusSet struct {
	Waist         ComponentStatus `json:"waist"`
	Triglycerides ComponentStatus `json:"triglycerides"`
	HDL           ComponentStatus `json:"hdl"`
	BloodPressure ComponentStatus `json:"bloodPressure"`
	Glucose       ComponentStatus `json:"glucose"`
}

// Explanation is the ranked-factor view of a risk assessment.
type Explanation struct {
	TopFactors      []Factor           `json:"topFactors"`
	ComponentStatus ComponentStatusSet `json:"componentStatus"`
}

// RiskAssessment is the derived, ephemeral risk output. It is never mutated
// after computation; persistence happens only through the audit log.
type RiskAssessment struct {
	RiskProbability   float64            `json:"riskProbability"`
	TimeHorizonMonths int                `json:"timeHorizonMonths"`
	ModelVersion      string             `json:"modelVersion"`
	CriteriaCount     int                `json:"criteriaCount"`
	HasSyndrome       bool               `json:"hasSyndrome"`
	Calibration       CalibrationMetrics `json:"calibrationMetrics"`
	Explanation       Explanation        `json:"explanation"`
}

// Channel identifies one of the seven deformation channels. The names match
// the morph targets of the avatar models.
type Channel string

const (
	ChannelWeight             Channel = "weight"
	ChannelAbdomenGirth       Channel = "abdomenGirth"
	ChannelMuscleMass         Channel = "muscleMass"
	ChannelPosture            Channel = "posture"
	ChannelDiabetesEffect     Channel = "diabetesEffect"
	ChannelHypertensionEffect Channel = "hypertensionEffect"
	ChannelHeartDiseaseEffect Channel = "heartDiseaseEffect"
)

// DeformationState is the flat seven-channel output consumed by the renderer.
// Every channel lies in [0,1]; weight and abdomenGirth are additionally held
// under the configured safety cap.
type DeformationState struct {
	Weight             float64 `json:"weight"`
	AbdomenGirth       float64 `json:"abdomenGirth"`
	MuscleMass         float64 `json:"muscleMass"`
	Posture            float64 `json:"posture"`
	DiabetesEffect     float64 `json:"diabetesEffect"`
	HypertensionEffect float64 `json:"hypertensionEffect"`
	HeartDiseaseEffect float64 `json:"heartDiseaseEffect"`
}

func (d *DeformationState) add(ch Channel, delta float64) {
	switch ch {
	case ChannelWeight:
		d.Weight += delta
	case ChannelAbdomenGirth:
		d.AbdomenGirth += delta
	case ChannelMuscleMass:
		d.MuscleMass += delta
	case ChannelPosture:
		d.Posture += delta
	case ChannelDiabetesEffect:
		d.DiabetesEffect += delta
	case ChannelHypertensionEffect:
		d.HypertensionEffect += delta
	case ChannelHeartDiseaseEffect:
		d.HeartDiseaseEffect += delta
	}
}

func (d *DeformationState) set(ch Channel, v float64) {
	switch ch {
	case ChannelWeight:
		d.Weight = v
	case ChannelAbdomenGirth:
		d.AbdomenGirth = v
	case ChannelMuscleMass:
		d.MuscleMass = v
	case ChannelPosture:
		d.Posture = v
	case ChannelDiabetesEffect:
		d.DiabetesEffect = v
	case ChannelHypertensionEffect:
		d.HypertensionEffect = v
	case ChannelHeartDiseaseEffect:
		d.HeartDiseaseEffect = v
	}
}

// DeformationEvidence reports which evidence tier supplied each of the three
// body channels. Internal to the service and tests; the wire output stays a
// flat channel object.
type DeformationEvidence struct {
	Mass             EvidenceTier
	CentralAdiposity EvidenceTier
	LeanMass         EvidenceTier
}

// InterventionType names a supported what-if intervention.
type InterventionType string

const (
	InterventionWeightLoss      InterventionType = "weight_loss"
	InterventionActivityChange  InterventionType = "activity_change"
	InterventionStartMedication InterventionType = "start_medication"
)

// MedicationClass identifies one of the three tracked medication classes.
type MedicationClass string

const (
	MedicationAntihypertensive MedicationClass = "antihypertensive"
	MedicationAntidiabetic     MedicationClass = "antidiabetic"
	MedicationLipidLowering    MedicationClass = "lipid_lowering"
)

// Intervention is one named what-if applied to a baseline feature set.
type Intervention struct {
	Type           InterventionType `json:"type"`
	WeightLossKg   float64          `json:"weightLossKg,omitempty"`
	TargetActivity ActivityLevel    `json:"targetActivity,omitempty"`
	Medication     MedicationClass  `json:"medication,omitempty"`
}

// FeatureValues is the numeric feature snapshot reported in simulation
// output, keyed the same way the API names snapshot fields.
type FeatureValues struct {
	WeightKg      float64       `json:"weightKg"`
	BMI           float64       `json:"bmi"`
	WaistCm       float64       `json:"waistCm"`
	SystolicBp    float64       `json:"systolicBp"`
	DiastolicBp   float64       `json:"diastolicBp"`
	Triglycerides float64       `json:"triglyceridesMgDl"`
	HDL           float64       `json:"hdlMgDl"`
	Glucose       float64       `json:"fastingGlucoseMgDl"`
	ActivityLevel ActivityLevel `json:"activityLevel"`
}

// FeatureChange is one before/after pair for a feature touched by an
// intervention.
type FeatureChange struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Unit   string  `json:"unit"`
}

// SimulatedState pairs a risk probability with the feature values that
// produced it.
type SimulatedState struct {
	RiskProbability float64       `json:"riskProbability"`
	Features        FeatureValues `json:"features"`
}

// Impact summarizes the baseline-to-projected change of a simulation.
// NNT is nil when the intervention produced no positive risk reduction.
type Impact struct {
	AbsoluteReduction        float64                  `json:"absoluteReduction"`
	RelativeReductionPercent float64                  `json:"relativeReductionPercent"`
	NNT                      *int                     `json:"nnt"`
	FeatureChanges           map[string]FeatureChange `json:"featureChanges"`
}

// SimulationResult is the full counterfactual output.
type SimulationResult struct {
	Baseline             SimulatedState `json:"baseline"`
	Projected            SimulatedState `json:"projected"`
	Impact               Impact         `json:"impact"`
	AppliedInterventions []Intervention `json:"appliedInterventions"`
	Disclaimer           string         `json:"disclaimer"`
}

// AssessmentRecord is the audit-log entry handed to the assessment sink after
// each risk computation. Writing it is best-effort and never blocks the
// response carrying the assessment itself.
type AssessmentRecord struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	SnapshotID    *uuid.UUID
	ModelVersion  string
	Probability   float64
	CriteriaCount int
	HasSyndrome   bool
	Factors       []Factor
	CreatedAt     time.Time
}
