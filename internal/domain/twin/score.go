package twin

// componentExcess carries each component's proportional excess over its
// threshold, shared between the score and the explanation builder. Excesses
// are value-based only; medication flags never inflate them.
type componentExcess struct {
	Waist         float64
	Triglycerides float64
	HDL           float64
	BloodPressure float64
	Glucose       float64

	// systolicDrove is true when the systolic side produced the blood
	// pressure excess, so the explanation reports the right reading.
	systolicDrove bool
}

// excessAbove is the proportional overshoot of v past an upper threshold,
// floored at zero. A non-positive threshold yields zero instead of dividing
// by it.
func excessAbove(v, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	e := (v - threshold) / threshold
	if e < 0 {
		return 0
	}
	return e
}

// excessBelow is the proportional undershoot of v past a lower threshold,
// used for HDL where low values are the risk direction.
func excessBelow(v, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	e := (threshold - v) / threshold
	if e < 0 {
		return 0
	}
	return e
}

func excesses(fs FeatureSet, cfg ModelConfig) componentExcess {
	th := cfg.Thresholds
	sys := excessAbove(fs.SystolicBP, th.SystolicBP)
	dia := excessAbove(fs.DiastolicBP, th.DiastolicBP)
	bp := sys
	if dia > bp {
		bp = dia
	}
	return componentExcess{
		Waist:         excessAbove(fs.WaistCm, th.WaistFor(fs.Sex)),
		Triglycerides: excessAbove(fs.Triglycerides, th.Triglycerides),
		HDL:           excessBelow(fs.HDL, th.HDLFor(fs.Sex)),
		BloodPressure: bp,
		Glucose:       excessAbove(fs.Glucose, th.Glucose),
		systolicDrove: sys >= dia,
	}
}

// compress maps the unbounded raw score onto (0,1) via x/(1+x). Negative raw
// scores collapse to zero first; the probability bounds give them a floor.
func compress(x float64) float64 {
	if x < 0 {
		x = 0
	}
	return x / (1 + x)
}

// ComputeRisk scores a feature set under one model calibration. The result
// is a pure function of its inputs: the weighted threshold excesses, the
// criteria-count bonus, the medication increments, and the activity
// adjustment are summed, compressed onto (0,1), and clamped to the
// calibration's probability bounds.
func ComputeRisk(fs FeatureSet, cfg ModelConfig) RiskAssessment {
	criteria := EvaluateCriteria(fs, cfg)
	ex := excesses(fs, cfg)

	x := cfg.Weights.Waist*ex.Waist +
		cfg.Weights.Triglycerides*ex.Triglycerides +
		cfg.Weights.HDL*ex.HDL +
		cfg.Weights.BloodPressure*ex.BloodPressure +
		cfg.Weights.Glucose*ex.Glucose

	x += cfg.Bonus.For(criteria.Count)

	if fs.OnAntihypertensive {
		x += cfg.Medications.Antihypertensive
	}
	if fs.OnAntidiabetic {
		x += cfg.Medications.Antidiabetic
	}
	if fs.OnLipidLowering {
		x += cfg.Medications.LipidLowering
	}

	x += cfg.Activity[fs.ActivityLevel]

	p := clamp(compress(x), cfg.Bounds.Floor, cfg.Bounds.Ceiling)

	return RiskAssessment{
		RiskProbability:   p,
		TimeHorizonMonths: cfg.TimeHorizonMonths,
		ModelVersion:      cfg.Version,
		CriteriaCount:     criteria.Count,
		HasSyndrome:       criteria.HasSyndrome(),
		Calibration:       cfg.Calibration,
		Explanation:       buildExplanation(fs, cfg, criteria, ex),
	}
}
