package twin

import "fmt"

// StrictnessMode controls how an active medication interacts with the
// diagnostic criteria. Under StrictnessSatisfies, being treated for a
// component counts as meeting it even when the measured value is normal.
// Under StrictnessExcluded, criteria are decided on measured values alone and
// medications only bias the continuous score.
type StrictnessMode int

const (
	StrictnessExcluded StrictnessMode = iota
	StrictnessSatisfies
)

func (m StrictnessMode) String() string {
	if m == StrictnessSatisfies {
		return "med_satisfies"
	}
	return "med_excluded"
}

// CriteriaThresholds are the sex-aware cut points of the five diagnostic
// components. Units match the stored measurements (cm, mg/dL, mmHg).
type CriteriaThresholds struct {
	WaistMale     float64
	WaistFemale   float64
	Triglycerides float64
	HDLMale       float64
	HDLFemale     float64
	SystolicBP    float64
	DiastolicBP   float64
	Glucose       float64
}

// WaistFor returns the waist cut point for the given sex.
func (t CriteriaThresholds) WaistFor(sex Sex) float64 {
	if sex == SexFemale {
		return t.WaistFemale
	}
	return t.WaistMale
}

// HDLFor returns the HDL cut point for the given sex.
func (t CriteriaThresholds) HDLFor(sex Sex) float64 {
	if sex == SexFemale {
		return t.HDLFemale
	}
	return t.HDLMale
}

// RiskWeights scale each component's proportional threshold excess in the
// continuous score.
type RiskWeights struct {
	Waist         float64
	Triglycerides float64
	HDL           float64
	BloodPressure float64
	Glucose       float64
}

// CountBonus adds a step term per number of satisfied criteria. Zero
// satisfied criteria contribute nothing.
type CountBonus struct {
	One       float64
	Two       float64
	ThreePlus float64
}

// For returns the bonus for a criteria count.
func (b CountBonus) For(count int) float64 {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return b.One
	case count == 2:
		return b.Two
	default:
		return b.ThreePlus
	}
}

// MedicationIncrements are the fixed score additions for each active
// medication class. An active prescription signals established disease, so it
// raises the score even when it normalizes the measured value.
type MedicationIncrements struct {
	Antihypertensive float64
	Antidiabetic     float64
	LipidLowering    float64
}

// ProbabilityBounds clamp the compressed score. The floor keeps the output
// from reading as a promise of zero risk; the ceiling from reading as
// certainty.
type ProbabilityBounds struct {
	Floor   float64
	Ceiling float64
}

// SeverityBreakpoints bucket a factor's proportional excess. Below Medium is
// low severity, below High is medium, at or above High is high.
type SeverityBreakpoints struct {
	Medium float64
	High   float64
}

// CalibrationMetrics are the validation statistics published with every
// assessment so consumers can judge the active model version.
type CalibrationMetrics struct {
	BrierScore float64 `json:"brierScore"`
	ROCAUC     float64 `json:"rocAuc"`
	PRAUC      float64 `json:"prAuc"`
}

// ChannelNudge is a small additive contribution a disease pushes onto a body
// channel on top of its own effect channel.
type ChannelNudge struct {
	Channel Channel
	Delta   float64
}

// DiseaseEffect maps one disease code to its dedicated effect channel
// magnitude plus secondary body-channel nudges.
type DiseaseEffect struct {
	Channel   Channel
	Magnitude float64
	Nudges    []ChannelNudge
}

// DeformationParams hold every constant of the deformation mapper.
type DeformationParams struct {
	// Mass channel from BMI (manual/estimated tier) or body-fat percent
	// (bioimpedance tier).
	MassFromBMI   TieredCurve
	BodyFatMale   Curve
	BodyFatFemale Curve
	// Central adiposity from visceral fat rating (bioimpedance) or waist
	// (manual tier; the estimated tier runs a BMI-derived waist through the
	// same curve).
	WaistMale   TieredCurve
	WaistFemale TieredCurve
	VisceralFat Curve
	// Abdomen dampening when the mass channel is already elevated, so the
	// two channels do not double-render the same obesity.
	AdiposityDampStart  float64
	AdiposityDampFactor float64
	// Lean mass from muscle percent (bioimpedance) or activity level.
	MusclePctMale   Curve
	MusclePctFemale Curve
	LeanByActivity  map[ActivityLevel]float64
	LeanAttenuation float64
	// Posture ramp across the age span.
	PostureAgeFrom float64
	PostureAgeTo   float64
	// Multiplicative cap on weight and abdomenGirth so extreme inputs stay
	// inside the renderer's validated morph range.
	SafetyCap float64

	DiseaseEffects map[string]DiseaseEffect
}

// FeatureDeltas is one row of the intervention effect table: additive changes
// applied to the numeric features, per unit of the intervention.
type FeatureDeltas struct {
	WeightKg      float64
	BMI           float64
	WaistCm       float64
	Triglycerides float64
	HDL           float64
	Systolic      float64
	Diastolic     float64
	Glucose       float64
}

// FeatureBounds are the physiological floors (and the HDL ceiling) projected
// features are clamped to after applying intervention deltas.
type FeatureBounds struct {
	WeightMin    float64
	BMIMin       float64
	WaistMin     float64
	SystolicMin  float64
	DiastolicMin float64
	TrigMin      float64
	HDLMax       float64
	GlucoseMin   float64
}

// InterventionEffects hold the documented effect tables of the simulator.
type InterventionEffects struct {
	PerFiveKgLost   FeatureDeltas
	PerActivityStep FeatureDeltas
	MedicationStart map[MedicationClass]FeatureDeltas
	Bounds          FeatureBounds
}

// ModelConfig is one immutable, versioned calibration of the whole engine.
// Behavior differences between versions live here, never in code branches.
type ModelConfig struct {
	Version           string
	Strictness        StrictnessMode
	Thresholds        CriteriaThresholds
	Weights           RiskWeights
	Bonus             CountBonus
	Medications       MedicationIncrements
	Activity          map[ActivityLevel]float64
	Bounds            ProbabilityBounds
	Severity          SeverityBreakpoints
	TopFactors        int
	TimeHorizonMonths int
	Calibration       CalibrationMetrics
	Deformation       DeformationParams
	Interventions     InterventionEffects
	Disclaimer        string
}

// DefaultVersion is the model served when no version is configured.
const DefaultVersion = "v2"

const simulationDisclaimer = "Projected values are statistical estimates for education and planning, not medical advice."

// standard intervention effect tables, shared by both calibrations. The
// per-five-kg row follows published lifestyle-trial averages.
var standardInterventions = InterventionEffects{
	PerFiveKgLost: FeatureDeltas{
		WeightKg:      -5,
		BMI:           -1.8,
		WaistCm:       -4,
		Triglycerides: -15,
		HDL:           2,
		Systolic:      -5,
		Diastolic:     -3,
		Glucose:       -5,
	},
	PerActivityStep: FeatureDeltas{
		Triglycerides: -8,
		HDL:           1.5,
		Systolic:      -2,
		Diastolic:     -1,
		Glucose:       -2,
	},
	MedicationStart: map[MedicationClass]FeatureDeltas{
		MedicationAntihypertensive: {Systolic: -10, Diastolic: -6},
		MedicationAntidiabetic:     {Glucose: -15},
		MedicationLipidLowering:    {Triglycerides: -30, HDL: 3},
	},
	Bounds: FeatureBounds{
		WeightMin:    40,
		BMIMin:       18,
		WaistMin:     60,
		SystolicMin:  90,
		DiastolicMin: 55,
		TrigMin:      30,
		HDLMax:       100,
		GlucoseMin:   70,
	},
}

// harmonized waist and HDL cut points, shared by both calibrations.
var standardThresholds = CriteriaThresholds{
	WaistMale:     94,
	WaistFemale:   80,
	Triglycerides: 150,
	HDLMale:       40,
	HDLFemale:     50,
	SystolicBP:    130,
	DiastolicBP:   85,
	Glucose:       100,
}

func diseaseEffectTable() map[string]DiseaseEffect {
	return map[string]DiseaseEffect{
		"E11": {
			Channel:   ChannelDiabetesEffect,
			Magnitude: 0.60,
			Nudges: []ChannelNudge{
				{Channel: ChannelAbdomenGirth, Delta: 0.06},
				{Channel: ChannelWeight, Delta: 0.04},
			},
		},
		"I10": {
			Channel:   ChannelHypertensionEffect,
			Magnitude: 0.50,
			Nudges: []ChannelNudge{
				{Channel: ChannelAbdomenGirth, Delta: 0.05},
				{Channel: ChannelWeight, Delta: 0.04},
			},
		},
		"I25": {
			Channel:   ChannelHeartDiseaseEffect,
			Magnitude: 0.50,
			Nudges: []ChannelNudge{
				{Channel: ChannelPosture, Delta: 0.08},
				{Channel: ChannelWeight, Delta: 0.03},
			},
		},
	}
}

var configV2 = ModelConfig{
	Version:    "v2",
	Strictness: StrictnessSatisfies,
	Thresholds: standardThresholds,
	Weights: RiskWeights{
		Waist:         0.20,
		Triglycerides: 0.15,
		HDL:           0.15,
		BloodPressure: 0.18,
		Glucose:       0.17,
	},
	Bonus: CountBonus{One: 0.15, Two: 0.35, ThreePlus: 0.80},
	Medications: MedicationIncrements{
		Antihypertensive: 0.12,
		Antidiabetic:     0.12,
		LipidLowering:    0.10,
	},
	Activity: map[ActivityLevel]float64{
		ActivityInactive: 0.25,
		ActivityLow:      0.10,
		ActivityModerate: -0.05,
		ActivityHigh:     -0.10,
	},
	Bounds:            ProbabilityBounds{Floor: 0.02, Ceiling: 0.95},
	Severity:          SeverityBreakpoints{Medium: 0.10, High: 0.30},
	TopFactors:        3,
	TimeHorizonMonths: 24,
	Calibration:       CalibrationMetrics{BrierScore: 0.081, ROCAUC: 0.889, PRAUC: 0.412},
	Deformation: DeformationParams{
		MassFromBMI: TieredCurve{
			{From: 18.5, To: 25, OutFrom: 0, OutTo: 0.30, Shape: ShapeLinear},
			{From: 25, To: 35, OutFrom: 0.30, OutTo: 0.75, Shape: ShapePower, Exponent: 0.8},
			{From: 35, To: 45, OutFrom: 0.75, OutTo: 1, Shape: ShapeLog},
		},
		BodyFatMale:   Curve{Min: 10, Max: 40, Shape: ShapePower, Exponent: 0.9},
		BodyFatFemale: Curve{Min: 18, Max: 48, Shape: ShapePower, Exponent: 0.9},
		WaistMale: TieredCurve{
			{From: 80, To: 94, OutFrom: 0, OutTo: 0.30, Shape: ShapeLinear},
			{From: 94, To: 115, OutFrom: 0.30, OutTo: 0.75, Shape: ShapePower, Exponent: 0.8},
			{From: 115, To: 135, OutFrom: 0.75, OutTo: 1, Shape: ShapeLog},
		},
		WaistFemale: TieredCurve{
			{From: 70, To: 80, OutFrom: 0, OutTo: 0.30, Shape: ShapeLinear},
			{From: 80, To: 100, OutFrom: 0.30, OutTo: 0.75, Shape: ShapePower, Exponent: 0.8},
			{From: 100, To: 120, OutFrom: 0.75, OutTo: 1, Shape: ShapeLog},
		},
		VisceralFat:         Curve{Min: 1, Max: 20, Shape: ShapePower, Exponent: 0.9},
		AdiposityDampStart:  0.55,
		AdiposityDampFactor: 0.30,
		MusclePctMale:       Curve{Min: 25, Max: 55, Shape: ShapeLinear},
		MusclePctFemale:     Curve{Min: 20, Max: 50, Shape: ShapeLinear},
		LeanByActivity: map[ActivityLevel]float64{
			ActivityInactive: 0.15,
			ActivityLow:      0.30,
			ActivityModerate: 0.55,
			ActivityHigh:     0.80,
		},
		LeanAttenuation: 0.50,
		PostureAgeFrom:  40,
		PostureAgeTo:    85,
		SafetyCap:       0.85,
		DiseaseEffects:  diseaseEffectTable(),
	},
	Interventions: standardInterventions,
	Disclaimer:    simulationDisclaimer,
}

var configV1 = ModelConfig{
	Version:    "v1",
	Strictness: StrictnessExcluded,
	Thresholds: standardThresholds,
	Weights: RiskWeights{
		Waist:         0.18,
		Triglycerides: 0.14,
		HDL:           0.14,
		BloodPressure: 0.16,
		Glucose:       0.15,
	},
	Bonus: CountBonus{One: 0.10, Two: 0.30, ThreePlus: 0.70},
	Medications: MedicationIncrements{
		Antihypertensive: 0.10,
		Antidiabetic:     0.10,
		LipidLowering:    0.08,
	},
	Activity: map[ActivityLevel]float64{
		ActivityInactive: 0.20,
		ActivityLow:      0.08,
		ActivityModerate: -0.04,
		ActivityHigh:     -0.08,
	},
	Bounds:            ProbabilityBounds{Floor: 0.02, Ceiling: 0.95},
	Severity:          SeverityBreakpoints{Medium: 0.10, High: 0.30},
	TopFactors:        5,
	TimeHorizonMonths: 24,
	Calibration:       CalibrationMetrics{BrierScore: 0.094, ROCAUC: 0.861, PRAUC: 0.355},
	Deformation: DeformationParams{
		MassFromBMI: TieredCurve{
			{From: 18.5, To: 25, OutFrom: 0, OutTo: 0.30, Shape: ShapeLinear},
			{From: 25, To: 35, OutFrom: 0.30, OutTo: 0.75, Shape: ShapePower, Exponent: 0.85},
			{From: 35, To: 45, OutFrom: 0.75, OutTo: 1, Shape: ShapeLog},
		},
		BodyFatMale:   Curve{Min: 10, Max: 40, Shape: ShapeLinear},
		BodyFatFemale: Curve{Min: 18, Max: 48, Shape: ShapeLinear},
		WaistMale: TieredCurve{
			{From: 80, To: 94, OutFrom: 0, OutTo: 0.30, Shape: ShapeLinear},
			{From: 94, To: 115, OutFrom: 0.30, OutTo: 0.75, Shape: ShapePower, Exponent: 0.85},
			{From: 115, To: 135, OutFrom: 0.75, OutTo: 1, Shape: ShapeLog},
		},
		WaistFemale: TieredCurve{
			{From: 70, To: 80, OutFrom: 0, OutTo: 0.30, Shape: ShapeLinear},
			{From: 80, To: 100, OutFrom: 0.30, OutTo: 0.75, Shape: ShapePower, Exponent: 0.85},
			{From: 100, To: 120, OutFrom: 0.75, OutTo: 1, Shape: ShapeLog},
		},
		VisceralFat:         Curve{Min: 1, Max: 20, Shape: ShapeLinear},
		AdiposityDampStart:  0.60,
		AdiposityDampFactor: 0.25,
		MusclePctMale:       Curve{Min: 25, Max: 55, Shape: ShapeLinear},
		MusclePctFemale:     Curve{Min: 20, Max: 50, Shape: ShapeLinear},
		LeanByActivity: map[ActivityLevel]float64{
			ActivityInactive: 0.15,
			ActivityLow:      0.30,
			ActivityModerate: 0.55,
			ActivityHigh:     0.80,
		},
		LeanAttenuation: 0.45,
		PostureAgeFrom:  45,
		PostureAgeTo:    85,
		SafetyCap:       0.85,
		DiseaseEffects:  diseaseEffectTable(),
	},
	Interventions: standardInterventions,
	Disclaimer:    simulationDisclaimer,
}

var configs = map[string]ModelConfig{
	"v1": configV1,
	"v2": configV2,
}

// Config returns the calibration for a model version.
func Config(version string) (ModelConfig, error) {
	cfg, ok := configs[version]
	if !ok {
		return ModelConfig{}, fmt.Errorf("unknown model version %q", version)
	}
	return cfg, nil
}

// Versions lists the known model versions.
func Versions() []string {
	return []string{"v1", "v2"}
}
