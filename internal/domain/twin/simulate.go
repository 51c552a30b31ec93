package twin

import (
	"fmt"
	"math"
)

// Simulate applies a list of interventions to a baseline feature set and
// scores both states under the same calibration. The projection works on a
// copy, so the baseline is never mutated and an empty intervention list
// yields identical baseline and projected states.
func Simulate(fs FeatureSet, interventions []Intervention, cfg ModelConfig) (SimulationResult, error) {
	baseline := ComputeRisk(fs, cfg)

	proj := fs
	proj.DiseaseCodes = append([]string(nil), fs.DiseaseCodes...)
	touched := make(map[string]bool)

	for _, iv := range interventions {
		if err := applyIntervention(&proj, iv, cfg.Interventions, touched); err != nil {
			return SimulationResult{}, err
		}
	}
	clampFeatures(&proj, cfg.Interventions.Bounds, touched)

	projected := ComputeRisk(proj, cfg)

	abs := baseline.RiskProbability - projected.RiskProbability
	var rel float64
	if baseline.RiskProbability > 0 {
		rel = abs / baseline.RiskProbability * 100
	}
	var nnt *int
	if abs > 0 {
		n := int(math.Round(1 / abs))
		if n < 1 {
			n = 1
		}
		nnt = &n
	}

	changes := make(map[string]FeatureChange)
	record := func(name string, before, after float64, unit string) {
		if touched[name] {
			changes[name] = FeatureChange{Before: before, After: after, Unit: unit}
		}
	}
	record("weightKg", fs.WeightKg, proj.WeightKg, "kg")
	record("bmi", fs.BMI, proj.BMI, "kg/m2")
	record("waistCm", fs.WaistCm, proj.WaistCm, "cm")
	record("systolicBp", fs.SystolicBP, proj.SystolicBP, "mmHg")
	record("diastolicBp", fs.DiastolicBP, proj.DiastolicBP, "mmHg")
	record("triglyceridesMgDl", fs.Triglycerides, proj.Triglycerides, "mg/dL")
	record("hdlMgDl", fs.HDL, proj.HDL, "mg/dL")
	record("fastingGlucoseMgDl", fs.Glucose, proj.Glucose, "mg/dL")

	return SimulationResult{
		Baseline: SimulatedState{
			RiskProbability: baseline.RiskProbability,
			Features:        featureValues(fs),
		},
		Projected: SimulatedState{
			RiskProbability: projected.RiskProbability,
			Features:        featureValues(proj),
		},
		Impact: Impact{
			AbsoluteReduction:        abs,
			RelativeReductionPercent: rel,
			NNT:                      nnt,
			FeatureChanges:           changes,
		},
		AppliedInterventions: interventions,
		Disclaimer:           cfg.Disclaimer,
	}, nil
}

func applyIntervention(fs *FeatureSet, iv Intervention, eff InterventionEffects, touched map[string]bool) error {
	switch iv.Type {
	case InterventionWeightLoss:
		if iv.WeightLossKg < 0 {
			return fmt.Errorf("weight loss must be non-negative, got %.1f", iv.WeightLossKg)
		}
		addDeltas(fs, eff.PerFiveKgLost, iv.WeightLossKg/5, touched)
	case InterventionActivityChange:
		if !ValidActivityLevel(iv.TargetActivity) {
			return fmt.Errorf("unknown activity level %q", iv.TargetActivity)
		}
		steps := activityRank[iv.TargetActivity] - activityRank[fs.ActivityLevel]
		if steps != 0 {
			addDeltas(fs, eff.PerActivityStep, float64(steps), touched)
			fs.ActivityLevel = iv.TargetActivity
		}
	case InterventionStartMedication:
		deltas, ok := eff.MedicationStart[iv.Medication]
		if !ok {
			return fmt.Errorf("unknown medication class %q", iv.Medication)
		}
		switch iv.Medication {
		case MedicationAntihypertensive:
			if fs.OnAntihypertensive {
				return nil
			}
			fs.OnAntihypertensive = true
		case MedicationAntidiabetic:
			if fs.OnAntidiabetic {
				return nil
			}
			fs.OnAntidiabetic = true
		case MedicationLipidLowering:
			if fs.OnLipidLowering {
				return nil
			}
			fs.OnLipidLowering = true
		}
		addDeltas(fs, deltas, 1, touched)
	default:
		return fmt.Errorf("unknown intervention type %q", iv.Type)
	}
	return nil
}

// addDeltas shifts the numeric features by one effect row scaled by scale and
// marks the touched features. Negative scales reverse the row, which is how
// downward activity transitions worsen the profile.
func addDeltas(fs *FeatureSet, d FeatureDeltas, scale float64, touched map[string]bool) {
	if scale == 0 {
		return
	}
	apply := func(name string, target *float64, delta float64) {
		if delta == 0 {
			return
		}
		*target += delta * scale
		touched[name] = true
	}
	apply("weightKg", &fs.WeightKg, d.WeightKg)
	apply("bmi", &fs.BMI, d.BMI)
	apply("waistCm", &fs.WaistCm, d.WaistCm)
	apply("triglyceridesMgDl", &fs.Triglycerides, d.Triglycerides)
	apply("hdlMgDl", &fs.HDL, d.HDL)
	apply("systolicBp", &fs.SystolicBP, d.Systolic)
	apply("diastolicBp", &fs.DiastolicBP, d.Diastolic)
	apply("fastingGlucoseMgDl", &fs.Glucose, d.Glucose)
}

// clampFeatures holds projected values inside physiological bounds so stacked
// interventions cannot drive them into impossible territory. Only features an
// intervention actually shifted are clamped; an out-of-range baseline value
// passes through unchanged, keeping the zero-intervention projection
// identical to its baseline.
func clampFeatures(fs *FeatureSet, b FeatureBounds, touched map[string]bool) {
	if touched["weightKg"] && fs.WeightKg < b.WeightMin {
		fs.WeightKg = b.WeightMin
	}
	if touched["bmi"] && fs.BMI < b.BMIMin {
		fs.BMI = b.BMIMin
	}
	if touched["waistCm"] && fs.WaistCm < b.WaistMin {
		fs.WaistCm = b.WaistMin
	}
	if touched["systolicBp"] && fs.SystolicBP < b.SystolicMin {
		fs.SystolicBP = b.SystolicMin
	}
	if touched["diastolicBp"] && fs.DiastolicBP < b.DiastolicMin {
		fs.DiastolicBP = b.DiastolicMin
	}
	if touched["triglyceridesMgDl"] && fs.Triglycerides < b.TrigMin {
		fs.Triglycerides = b.TrigMin
	}
	if touched["hdlMgDl"] && fs.HDL > b.HDLMax {
		fs.HDL = b.HDLMax
	}
	if touched["fastingGlucoseMgDl"] && fs.Glucose < b.GlucoseMin {
		fs.Glucose = b.GlucoseMin
	}
}

func featureValues(fs FeatureSet) FeatureValues {
	return FeatureValues{
		WeightKg:      fs.WeightKg,
		BMI:           fs.BMI,
		WaistCm:       fs.WaistCm,
		SystolicBp:    fs.SystolicBP,
		DiastolicBp:   fs.DiastolicBP,
		Triglycerides: fs.Triglycerides,
		HDL:           fs.HDL,
		Glucose:       fs.Glucose,
		ActivityLevel: fs.ActivityLevel,
	}
}
