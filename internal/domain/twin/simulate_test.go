package twin

import (
	"strings"
	"testing"
)

// simBaseline is syndromeMale with body measurements, the simulator's
// reference patient: 100 kg at 175 cm, every component past its cut point.
func simBaseline() FeatureSet {
	fs := syndromeMale()
	fs.HeightCm = 175
	fs.WeightKg = 100
	fs.BMI = 100 / (1.75 * 1.75)
	return fs
}

func TestSimulate_WeightLoss(t *testing.T) {
	got, err := Simulate(simBaseline(), []Intervention{
		{Type: InterventionWeightLoss, WeightLossKg: 10},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ten kilograms is two table units: waist 92, triglycerides 130,
	// HDL 42, blood pressure 125/82, glucose 100. Only the glucose
	// criterion survives, and exactly at its threshold.
	f := got.Projected.Features
	if f.WeightKg != 90 || f.WaistCm != 92 || f.Triglycerides != 130 || f.HDL != 42 {
		t.Errorf("projected features = %+v", f)
	}
	if f.SystolicBp != 125 || f.DiastolicBp != 82 || f.Glucose != 100 {
		t.Errorf("projected features = %+v", f)
	}
	if !almostEqual(got.Projected.RiskProbability, 0.285714, 1e-6) {
		t.Errorf("projected probability = %v, want 0.285714", got.Projected.RiskProbability)
	}
	if !almostEqual(got.Baseline.RiskProbability, 0.5248, 1e-3) {
		t.Errorf("baseline probability = %v, want about 0.5248", got.Baseline.RiskProbability)
	}
	if !almostEqual(got.Impact.AbsoluteReduction, 0.2390, 1e-3) {
		t.Errorf("absolute reduction = %v, want about 0.2390", got.Impact.AbsoluteReduction)
	}
	if !almostEqual(got.Impact.RelativeReductionPercent, 45.55, 0.05) {
		t.Errorf("relative reduction = %v, want about 45.55", got.Impact.RelativeReductionPercent)
	}
	if got.Impact.NNT == nil || *got.Impact.NNT != 4 {
		t.Errorf("NNT = %v, want 4", got.Impact.NNT)
	}

	ch, ok := got.Impact.FeatureChanges["waistCm"]
	if !ok || ch.Before != 100 || ch.After != 92 || ch.Unit != "cm" {
		t.Errorf("waist change = %+v", ch)
	}
	if len(got.Impact.FeatureChanges) != 8 {
		t.Errorf("feature changes = %d entries, want 8", len(got.Impact.FeatureChanges))
	}
	if got.Disclaimer != configV2.Disclaimer {
		t.Errorf("disclaimer = %q", got.Disclaimer)
	}
}

func TestSimulate_EmptyInterventionList(t *testing.T) {
	got, err := Simulate(simBaseline(), nil, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Baseline.RiskProbability != got.Projected.RiskProbability {
		t.Errorf("baseline %v != projected %v", got.Baseline.RiskProbability, got.Projected.RiskProbability)
	}
	if got.Impact.AbsoluteReduction != 0 || got.Impact.RelativeReductionPercent != 0 {
		t.Errorf("impact = %+v, want zero", got.Impact)
	}
	if got.Impact.NNT != nil {
		t.Errorf("NNT = %d, want nil", *got.Impact.NNT)
	}
	if len(got.Impact.FeatureChanges) != 0 {
		t.Errorf("feature changes = %+v, want none", got.Impact.FeatureChanges)
	}
}

func TestSimulate_EmptyInterventionsKeepOutOfRangeBaseline(t *testing.T) {
	fs := simBaseline()
	fs.WaistCm = 55
	fs.HDL = 120
	fs.BMI = 16

	got, err := Simulate(fs, nil, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Projected.Features != got.Baseline.Features {
		t.Errorf("projected features = %+v, want baseline %+v", got.Projected.Features, got.Baseline.Features)
	}
	if got.Projected.Features.WaistCm != 55 || got.Projected.Features.HDL != 120 || got.Projected.Features.BMI != 16 {
		t.Errorf("projected features = %+v, want out-of-range values untouched", got.Projected.Features)
	}
	if got.Projected.RiskProbability != got.Baseline.RiskProbability {
		t.Errorf("baseline %v != projected %v", got.Baseline.RiskProbability, got.Projected.RiskProbability)
	}
	if len(got.Impact.FeatureChanges) != 0 {
		t.Errorf("feature changes = %+v, want none", got.Impact.FeatureChanges)
	}
}

func TestSimulate_UntouchedFeatureNotClamped(t *testing.T) {
	fs := simBaseline()
	fs.Glucose = 60 // below the glucose floor before any intervention

	// An antihypertensive start only shifts the blood pressure readings.
	got, err := Simulate(fs, []Intervention{
		{Type: InterventionStartMedication, Medication: MedicationAntihypertensive},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := got.Projected.Features
	if f.Glucose != 60 {
		t.Errorf("projected glucose = %v, want untouched 60", f.Glucose)
	}
	if f.SystolicBp != 125 || f.DiastolicBp != 82 {
		t.Errorf("projected blood pressure = %v/%v, want 125/82", f.SystolicBp, f.DiastolicBp)
	}
	if _, ok := got.Impact.FeatureChanges["fastingGlucoseMgDl"]; ok {
		t.Error("glucose reported as changed, want only the touched features")
	}
}

func TestSimulate_BoundsClampProjection(t *testing.T) {
	got, err := Simulate(simBaseline(), []Intervention{
		{Type: InterventionWeightLoss, WeightLossKg: 200},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := configV2.Interventions.Bounds
	f := got.Projected.Features
	if f.WeightKg != b.WeightMin || f.BMI != b.BMIMin || f.WaistCm != b.WaistMin {
		t.Errorf("projected features = %+v, want clamped to bounds", f)
	}
	if f.SystolicBp != b.SystolicMin || f.DiastolicBp != b.DiastolicMin {
		t.Errorf("projected features = %+v, want clamped to bounds", f)
	}
	if f.Triglycerides != b.TrigMin || f.Glucose != b.GlucoseMin {
		t.Errorf("projected features = %+v, want clamped to bounds", f)
	}
	if f.HDL != b.HDLMax {
		t.Errorf("HDL = %v, want ceiling %v", f.HDL, b.HDLMax)
	}
}

func TestSimulate_ActivityChange(t *testing.T) {
	got, err := Simulate(simBaseline(), []Intervention{
		{Type: InterventionActivityChange, TargetActivity: ActivityHigh},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Inactive to high is three steps.
	f := got.Projected.Features
	if f.Triglycerides != 136 || f.HDL != 42.5 || f.SystolicBp != 129 || f.DiastolicBp != 85 || f.Glucose != 104 {
		t.Errorf("projected features = %+v", f)
	}
	if f.ActivityLevel != ActivityHigh {
		t.Errorf("activity = %q, want high", f.ActivityLevel)
	}
	if f.WeightKg != 100 || f.WaistCm != 100 {
		t.Errorf("weight/waist moved: %+v", f)
	}
	if _, ok := got.Impact.FeatureChanges["weightKg"]; ok {
		t.Error("weightKg reported changed by an activity intervention")
	}
	if got.Projected.RiskProbability >= got.Baseline.RiskProbability {
		t.Errorf("projected %v not below baseline %v", got.Projected.RiskProbability, got.Baseline.RiskProbability)
	}
}

func TestSimulate_ActivityChangeToSameLevel(t *testing.T) {
	got, err := Simulate(simBaseline(), []Intervention{
		{Type: InterventionActivityChange, TargetActivity: ActivityInactive},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Baseline.RiskProbability != got.Projected.RiskProbability {
		t.Error("no-step transition must not move the probability")
	}
	if len(got.Impact.FeatureChanges) != 0 {
		t.Errorf("feature changes = %+v, want none", got.Impact.FeatureChanges)
	}
}

func TestSimulate_DownwardActivityWorsensProfile(t *testing.T) {
	fs := simBaseline()
	fs.ActivityLevel = ActivityHigh

	got, err := Simulate(fs, []Intervention{
		{Type: InterventionActivityChange, TargetActivity: ActivityInactive},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Impact.AbsoluteReduction >= 0 {
		t.Errorf("absolute reduction = %v, want negative", got.Impact.AbsoluteReduction)
	}
	if got.Impact.NNT != nil {
		t.Errorf("NNT = %d, want nil for a worsening projection", *got.Impact.NNT)
	}
	if got.Projected.Features.Triglycerides <= fs.Triglycerides {
		t.Error("triglycerides must rise on a downward transition")
	}
}

func TestSimulate_MedicationStart(t *testing.T) {
	got, err := Simulate(simBaseline(), []Intervention{
		{Type: InterventionStartMedication, Medication: MedicationAntidiabetic},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch, ok := got.Impact.FeatureChanges["fastingGlucoseMgDl"]
	if !ok || ch.Before != 110 || ch.After != 95 {
		t.Errorf("glucose change = %+v, want 110 to 95", ch)
	}
	// Under the treated-counts-as-met calibration the started medication
	// keeps the criterion satisfied and adds its increment, so the
	// projection lands above the baseline and no NNT is reported.
	if got.Projected.RiskProbability <= got.Baseline.RiskProbability {
		t.Errorf("projected %v not above baseline %v", got.Projected.RiskProbability, got.Baseline.RiskProbability)
	}
	if got.Impact.NNT != nil {
		t.Errorf("NNT = %d, want nil", *got.Impact.NNT)
	}
}

func TestSimulate_MedicationAlreadyActive(t *testing.T) {
	fs := simBaseline()
	fs.OnAntidiabetic = true

	got, err := Simulate(fs, []Intervention{
		{Type: InterventionStartMedication, Medication: MedicationAntidiabetic},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Baseline.RiskProbability != got.Projected.RiskProbability {
		t.Error("restarting an active medication must be a no-op")
	}
	if len(got.Impact.FeatureChanges) != 0 {
		t.Errorf("feature changes = %+v, want none", got.Impact.FeatureChanges)
	}
}

func TestSimulate_StackedInterventions(t *testing.T) {
	got, err := Simulate(simBaseline(), []Intervention{
		{Type: InterventionWeightLoss, WeightLossKg: 5},
		{Type: InterventionActivityChange, TargetActivity: ActivityModerate},
		{Type: InterventionStartMedication, Medication: MedicationLipidLowering},
	}, configV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := got.Projected.Features
	if f.WeightKg != 95 || f.WaistCm != 96 || f.Triglycerides != 99 || f.HDL != 46 {
		t.Errorf("projected features = %+v", f)
	}
	if f.SystolicBp != 126 || f.DiastolicBp != 83 || f.Glucose != 101 {
		t.Errorf("projected features = %+v", f)
	}
	if f.ActivityLevel != ActivityModerate {
		t.Errorf("activity = %q, want moderate", f.ActivityLevel)
	}
	ch := got.Impact.FeatureChanges["triglyceridesMgDl"]
	if ch.Before != 160 || ch.After != 99 {
		t.Errorf("triglycerides change = %+v, want 160 to 99", ch)
	}
	if got.Impact.NNT == nil || *got.Impact.NNT != 16 {
		t.Errorf("NNT = %v, want 16", got.Impact.NNT)
	}
	if len(got.AppliedInterventions) != 3 {
		t.Errorf("applied interventions = %d, want 3", len(got.AppliedInterventions))
	}
}

func TestSimulate_InvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		iv   Intervention
		msg  string
	}{
		{"negative weight loss", Intervention{Type: InterventionWeightLoss, WeightLossKg: -3}, "non-negative"},
		{"unknown activity", Intervention{Type: InterventionActivityChange, TargetActivity: "extreme"}, "unknown activity level"},
		{"unknown medication", Intervention{Type: InterventionStartMedication, Medication: "statin"}, "unknown medication class"},
		{"unknown type", Intervention{Type: "surgery"}, "unknown intervention type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Simulate(simBaseline(), []Intervention{tc.iv}, configV2)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("error = %q, want mention of %q", err, tc.msg)
			}
		})
	}
}

func TestSimulate_BaselineNotMutated(t *testing.T) {
	fs := simBaseline()
	fs.DiseaseCodes = []string{"E11"}

	if _, err := Simulate(fs, []Intervention{
		{Type: InterventionWeightLoss, WeightLossKg: 10},
		{Type: InterventionStartMedication, Medication: MedicationLipidLowering},
	}, configV2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.WeightKg != 100 || fs.OnLipidLowering {
		t.Errorf("baseline mutated: %+v", fs)
	}
	if len(fs.DiseaseCodes) != 1 || fs.DiseaseCodes[0] != "E11" {
		t.Errorf("disease codes mutated: %v", fs.DiseaseCodes)
	}
}
