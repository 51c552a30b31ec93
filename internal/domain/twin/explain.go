package twin

import "sort"

const (
	featureWaist         = "waist"
	featureTriglycerides = "triglycerides"
	featureHDL           = "hdl"
	featureBloodPressure = "bloodPressure"
	featureGlucose       = "glucose"
)

// explainPriority breaks contribution ties in a fixed order so equal
// contributions always rank identically across runs.
var explainPriority = map[string]int{
	featureWaist:         0,
	featureGlucose:       1,
	featureBloodPressure: 2,
	featureTriglycerides: 3,
	featureHDL:           4,
}

func severityFor(excess float64, b SeverityBreakpoints) string {
	switch {
	case excess >= b.High:
		return "high"
	case excess >= b.Medium:
		return "medium"
	default:
		return "low"
	}
}

// buildExplanation emits one factor per satisfied criterion, ranked by score
// contribution, truncated to the calibration's top-K. The component status
// block always covers all five criteria so consumers can render defaulted and
// normal components too. For blood pressure the reading that produced the
// larger excess is the one reported.
func buildExplanation(fs FeatureSet, cfg ModelConfig, criteria CriteriaResult, ex componentExcess) Explanation {
	th := cfg.Thresholds

	bpValue, bpThreshold, bpMeasured := fs.SystolicBP, th.SystolicBP, fs.Measured.Systolic
	if !ex.systolicDrove {
		bpValue, bpThreshold, bpMeasured = fs.DiastolicBP, th.DiastolicBP, fs.Measured.Diastolic
	}

	status := ComponentStatusSet{
		Waist: ComponentStatus{
			Exceeded:  criteria.Waist,
			Value:     fs.WaistCm,
			Threshold: th.WaistFor(fs.Sex),
			Measured:  fs.Measured.Waist,
		},
		Triglycerides: ComponentStatus{
			Exceeded:  criteria.Triglycerides,
			Value:     fs.Triglycerides,
			Threshold: th.Triglycerides,
			Measured:  fs.Measured.Triglycerides,
		},
		HDL: ComponentStatus{
			Exceeded:  criteria.HDL,
			Value:     fs.HDL,
			Threshold: th.HDLFor(fs.Sex),
			Measured:  fs.Measured.HDL,
		},
		BloodPressure: ComponentStatus{
			Exceeded:  criteria.BloodPressure,
			Value:     bpValue,
			Threshold: bpThreshold,
			Measured:  bpMeasured,
		},
		Glucose: ComponentStatus{
			Exceeded:  criteria.Glucose,
			Value:     fs.Glucose,
			Threshold: th.Glucose,
			Measured:  fs.Measured.Glucose,
		},
	}

	factors := make([]Factor, 0, 5)
	if criteria.Waist {
		factors = append(factors, Factor{
			Feature:      featureWaist,
			Direction:    "increase",
			Severity:     severityFor(ex.Waist, cfg.Severity),
			Contribution: cfg.Weights.Waist * ex.Waist,
			Value:        fs.WaistCm,
			Threshold:    th.WaistFor(fs.Sex),
			Unit:         "cm",
			Measured:     fs.Measured.Waist,
		})
	}
	if criteria.Triglycerides {
		factors = append(factors, Factor{
			Feature:      featureTriglycerides,
			Direction:    "increase",
			Severity:     severityFor(ex.Triglycerides, cfg.Severity),
			Contribution: cfg.Weights.Triglycerides * ex.Triglycerides,
			Value:        fs.Triglycerides,
			Threshold:    th.Triglycerides,
			Unit:         "mg/dL",
			Measured:     fs.Measured.Triglycerides,
		})
	}
	if criteria.HDL {
		factors = append(factors, Factor{
			Feature:      featureHDL,
			Direction:    "decrease",
			Severity:     severityFor(ex.HDL, cfg.Severity),
			Contribution: cfg.Weights.HDL * ex.HDL,
			Value:        fs.HDL,
			Threshold:    th.HDLFor(fs.Sex),
			Unit:         "mg/dL",
			Measured:     fs.Measured.HDL,
		})
	}
	if criteria.BloodPressure {
		factors = append(factors, Factor{
			Feature:      featureBloodPressure,
			Direction:    "increase",
			Severity:     severityFor(ex.BloodPressure, cfg.Severity),
			Contribution: cfg.Weights.BloodPressure * ex.BloodPressure,
			Value:        bpValue,
			Threshold:    bpThreshold,
			Unit:         "mmHg",
			Measured:     bpMeasured,
		})
	}
	if criteria.Glucose {
		factors = append(factors, Factor{
			Feature:      featureGlucose,
			Direction:    "increase",
			Severity:     severityFor(ex.Glucose, cfg.Severity),
			Contribution: cfg.Weights.Glucose * ex.Glucose,
			Value:        fs.Glucose,
			Threshold:    th.Glucose,
			Unit:         "mg/dL",
			Measured:     fs.Measured.Glucose,
		})
	}

	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].Contribution != factors[j].Contribution {
			return factors[i].Contribution > factors[j].Contribution
		}
		return explainPriority[factors[i].Feature] < explainPriority[factors[j].Feature]
	})
	if cfg.TopFactors > 0 && len(factors) > cfg.TopFactors {
		factors = factors[:cfg.TopFactors]
	}

	return Explanation{TopFactors: factors, ComponentStatus: status}
}
