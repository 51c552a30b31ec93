package twin

// EvaluateCriteria applies the five harmonized diagnostic criteria to a
// feature set. Waist and HDL use sex-specific cut points; blood pressure is
// met when either the systolic or the diastolic limit is reached. Under
// StrictnessSatisfies an active medication for a component marks it met even
// when the measured value is normal; waist has no medication tie in either
// mode.
func EvaluateCriteria(fs FeatureSet, cfg ModelConfig) CriteriaResult {
	satisfies := cfg.Strictness == StrictnessSatisfies
	th := cfg.Thresholds

	r := CriteriaResult{
		Waist:         fs.WaistCm >= th.WaistFor(fs.Sex),
		Triglycerides: fs.Triglycerides >= th.Triglycerides || (satisfies && fs.OnLipidLowering),
		HDL:           fs.HDL < th.HDLFor(fs.Sex) || (satisfies && fs.OnLipidLowering),
		BloodPressure: fs.SystolicBP >= th.SystolicBP || fs.DiastolicBP >= th.DiastolicBP || (satisfies && fs.OnAntihypertensive),
		Glucose:       fs.Glucose >= th.Glucose || (satisfies && fs.OnAntidiabetic),
	}
	for _, met := range []bool{r.Waist, r.Triglycerides, r.HDL, r.BloodPressure, r.Glucose} {
		if met {
			r.Count++
		}
	}
	return r
}
