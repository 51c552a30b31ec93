package twin

import "testing"

func factorFeatures(factors []Factor) []string {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = f.Feature
	}
	return names
}

func TestBuildExplanation_TopFactorRanking(t *testing.T) {
	got := ComputeRisk(syndromeMale(), configV2).Explanation

	// Contributions: glucose 0.0170, waist 0.0128, triglycerides 0.0100,
	// blood pressure 0.0069, hdl 0.0075. Top three survive the cut.
	want := []string{featureGlucose, featureWaist, featureTriglycerides}
	names := factorFeatures(got.TopFactors)
	if len(names) != len(want) {
		t.Fatalf("TopFactors = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("TopFactors = %v, want %v", names, want)
		}
	}
	for i := 1; i < len(got.TopFactors); i++ {
		if got.TopFactors[i].Contribution > got.TopFactors[i-1].Contribution {
			t.Errorf("factors not sorted by contribution: %v", got.TopFactors)
		}
	}
}

func TestBuildExplanation_V1KeepsFiveFactors(t *testing.T) {
	got := ComputeRisk(syndromeMale(), configV1).Explanation
	if len(got.TopFactors) != 5 {
		t.Errorf("v1 TopFactors length = %d, want 5", len(got.TopFactors))
	}
}

func TestBuildExplanation_FactorsOnlyForSatisfiedCriteria(t *testing.T) {
	fs := normalMale()
	fs.Glucose = 110
	fs.WaistCm = 100

	got := ComputeRisk(fs, configV2).Explanation
	names := factorFeatures(got.TopFactors)
	if len(names) != 2 || names[0] != featureGlucose || names[1] != featureWaist {
		t.Errorf("TopFactors = %v, want [glucose waist]", names)
	}
}

func TestBuildExplanation_ZeroContributionTieBreak(t *testing.T) {
	// Normal values with all three medications: four criteria satisfied
	// under v2, every excess zero, so the fixed priority decides the order.
	fs := normalMale()
	fs.OnAntihypertensive = true
	fs.OnAntidiabetic = true
	fs.OnLipidLowering = true

	got := ComputeRisk(fs, configV2).Explanation
	want := []string{featureGlucose, featureBloodPressure, featureTriglycerides}
	names := factorFeatures(got.TopFactors)
	if len(names) != len(want) {
		t.Fatalf("TopFactors = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("TopFactors = %v, want %v", names, want)
		}
	}
}

func TestBuildExplanation_BloodPressureReportsDrivingSide(t *testing.T) {
	fs := normalMale()
	fs.SystolicBP = 132
	fs.DiastolicBP = 95

	got := ComputeRisk(fs, configV2).Explanation
	if len(got.TopFactors) != 1 {
		t.Fatalf("TopFactors = %v, want the single blood pressure factor", got.TopFactors)
	}
	f := got.TopFactors[0]
	if f.Feature != featureBloodPressure {
		t.Fatalf("factor = %q, want bloodPressure", f.Feature)
	}
	// Diastolic excess 10/85 beats systolic 2/130, so the diastolic
	// reading is the one surfaced.
	if f.Value != 95 || f.Threshold != 85 {
		t.Errorf("factor value/threshold = %v/%v, want 95/85", f.Value, f.Threshold)
	}
	st := got.ComponentStatus.BloodPressure
	if st.Value != 95 || st.Threshold != 85 {
		t.Errorf("status value/threshold = %v/%v, want 95/85", st.Value, st.Threshold)
	}
	if f.Severity != "medium" {
		t.Errorf("severity = %q, want medium", f.Severity)
	}
}

func TestBuildExplanation_SeverityBuckets(t *testing.T) {
	cases := []struct {
		glucose float64
		want    string
	}{
		{105, "low"},
		{110, "medium"}, // excess exactly at the medium breakpoint
		{125, "medium"},
		{130, "high"}, // excess exactly at the high breakpoint
		{160, "high"},
	}
	for _, tc := range cases {
		fs := normalMale()
		fs.Glucose = tc.glucose
		got := ComputeRisk(fs, configV2).Explanation
		if len(got.TopFactors) != 1 {
			t.Fatalf("glucose %v: TopFactors = %v", tc.glucose, got.TopFactors)
		}
		if s := got.TopFactors[0].Severity; s != tc.want {
			t.Errorf("glucose %v: severity = %q, want %q", tc.glucose, s, tc.want)
		}
	}
}

func TestBuildExplanation_HDLDirectionIsDecrease(t *testing.T) {
	got := ComputeRisk(syndromeMale(), configV1).Explanation
	for _, f := range got.TopFactors {
		want := "increase"
		if f.Feature == featureHDL {
			want = "decrease"
		}
		if f.Direction != want {
			t.Errorf("%s direction = %q, want %q", f.Feature, f.Direction, want)
		}
	}
}

func TestBuildExplanation_ComponentStatusCoversAllFive(t *testing.T) {
	fs := normalMale()
	fs.WaistCm = 100
	fs.Measured.Waist = true

	got := ComputeRisk(fs, configV2).Explanation
	st := got.ComponentStatus

	if !st.Waist.Exceeded || !st.Waist.Measured {
		t.Errorf("waist status = %+v, want exceeded and measured", st.Waist)
	}
	if st.Waist.Value != 100 || st.Waist.Threshold != 94 {
		t.Errorf("waist status = %+v, want value 100 threshold 94", st.Waist)
	}
	// The remaining components stay visible with their defaulted readings.
	if st.Glucose.Exceeded || st.Glucose.Measured {
		t.Errorf("glucose status = %+v, want unexceeded and unmeasured", st.Glucose)
	}
	if st.Glucose.Value != 90 || st.Glucose.Threshold != 100 {
		t.Errorf("glucose status = %+v, want value 90 threshold 100", st.Glucose)
	}
	if st.HDL.Threshold != 40 {
		t.Errorf("hdl threshold = %v, want 40 for a male patient", st.HDL.Threshold)
	}
}

func TestBuildExplanation_MeasuredFlagPropagatesToFactors(t *testing.T) {
	fs := syndromeMale()
	fs.Measured.Glucose = false

	got := ComputeRisk(fs, configV2).Explanation
	for _, f := range got.TopFactors {
		if f.Feature == featureGlucose && f.Measured {
			t.Error("glucose factor marked measured despite defaulted input")
		}
		if f.Feature == featureWaist && !f.Measured {
			t.Error("waist factor lost its measured flag")
		}
	}
}
