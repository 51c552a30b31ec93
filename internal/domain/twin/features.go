package twin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/twinhealth/twin/internal/domain/patient"
)

// Documented defaults substituted for measurements a snapshot did not
// collect. Every substitution is recorded in the Measured flags so the
// explanation layer can label the value as defaulted.
const (
	defaultSystolicBP    = 120.0
	defaultDiastolicBP   = 78.0
	defaultTriglycerides = 110.0
	defaultGlucose       = 90.0
	defaultHDLMale       = 45.0
	defaultHDLFemale     = 55.0
)

const defaultActivity = ActivityLow

// EstimateWaist approximates waist circumference from BMI when no measurement
// exists. A crude population fit, but enough to drive the estimated evidence
// tier.
func EstimateWaist(bmi float64, sex Sex) float64 {
	if sex == SexFemale {
		return bmi*3.0 - 5
	}
	return bmi * 3.5
}

// FeaturesFromSnapshot resolves one snapshot into a complete feature set.
// Optional fields get their documented defaults with the corresponding
// Measured flag left false; waist falls back to a BMI-derived estimate.
func FeaturesFromSnapshot(p *patient.Patient, s *patient.ClinicalSnapshot) FeatureSet {
	sex := SexMale
	if strings.EqualFold(p.Sex, string(SexFemale)) {
		sex = SexFemale
	}

	fs := FeatureSet{
		Sex:                sex,
		Age:                p.AgeAt(s.RecordedAt),
		HeightCm:           s.HeightCm,
		WeightKg:           s.WeightKg,
		BMI:                s.BMI(),
		ActivityLevel:      defaultActivity,
		OnAntihypertensive: s.IsOnAntihypertensive,
		OnAntidiabetic:     s.IsOnAntidiabetic,
		OnLipidLowering:    s.IsOnLipidLowering,
		DiseaseCodes:       append([]string(nil), s.DiseaseCodes...),
		BodyFatPct:         s.BodyFatPct,
		MusclePct:          s.MusclePct,
		VisceralFatRating:  s.VisceralFatRating,
	}

	if s.WaistCm != nil {
		fs.WaistCm = *s.WaistCm
		fs.Measured.Waist = true
	} else {
		fs.WaistCm = EstimateWaist(fs.BMI, sex)
	}
	if s.SystolicBp != nil {
		fs.SystolicBP = *s.SystolicBp
		fs.Measured.Systolic = true
	} else {
		fs.SystolicBP = defaultSystolicBP
	}
	if s.DiastolicBp != nil {
		fs.DiastolicBP = *s.DiastolicBp
		fs.Measured.Diastolic = true
	} else {
		fs.DiastolicBP = defaultDiastolicBP
	}
	if s.TriglyceridesMgDl != nil {
		fs.Triglycerides = *s.TriglyceridesMgDl
		fs.Measured.Triglycerides = true
	} else {
		fs.Triglycerides = defaultTriglycerides
	}
	if s.HdlMgDl != nil {
		fs.HDL = *s.HdlMgDl
		fs.Measured.HDL = true
	} else if sex == SexFemale {
		fs.HDL = defaultHDLFemale
	} else {
		fs.HDL = defaultHDLMale
	}
	if s.FastingGlucoseMgDl != nil {
		fs.Glucose = *s.FastingGlucoseMgDl
		fs.Measured.Glucose = true
	} else {
		fs.Glucose = defaultGlucose
	}
	if s.PhysicalActivityLevel != nil && ValidActivityLevel(ActivityLevel(*s.PhysicalActivityLevel)) {
		fs.ActivityLevel = ActivityLevel(*s.PhysicalActivityLevel)
		fs.Measured.Activity = true
	}

	return fs
}

// FeatureOverrides are caller-supplied values layered over a snapshot for an
// ad hoc assessment. An override counts as measured.
type FeatureOverrides struct {
	WeightKg           *float64       `json:"weightKg,omitempty"`
	WaistCm            *float64       `json:"waistCm,omitempty"`
	SystolicBp         *float64       `json:"systolicBp,omitempty"`
	DiastolicBp        *float64       `json:"diastolicBp,omitempty"`
	TriglyceridesMgDl  *float64       `json:"triglyceridesMgDl,omitempty"`
	HdlMgDl            *float64       `json:"hdlMgDl,omitempty"`
	FastingGlucoseMgDl *float64       `json:"fastingGlucoseMgDl,omitempty"`
	ActivityLevel      *ActivityLevel `json:"activityLevel,omitempty"`
}

// Empty reports whether no override is set.
func (o FeatureOverrides) Empty() bool {
	return o.WeightKg == nil && o.WaistCm == nil && o.SystolicBp == nil &&
		o.DiastolicBp == nil && o.TriglyceridesMgDl == nil && o.HdlMgDl == nil &&
		o.FastingGlucoseMgDl == nil && o.ActivityLevel == nil
}

// WithOverrides returns a copy of the feature set with the overrides applied.
// A weight override recomputes BMI against the stored height.
func (fs FeatureSet) WithOverrides(o FeatureOverrides) (FeatureSet, error) {
	out := fs
	if o.WeightKg != nil {
		if *o.WeightKg <= 0 {
			return fs, fmt.Errorf("weight override must be positive, got %.1f", *o.WeightKg)
		}
		out.WeightKg = *o.WeightKg
		if out.HeightCm > 0 {
			m := out.HeightCm / 100
			out.BMI = out.WeightKg / (m * m)
		}
	}
	if o.WaistCm != nil {
		out.WaistCm = *o.WaistCm
		out.Measured.Waist = true
	}
	if o.SystolicBp != nil {
		out.SystolicBP = *o.SystolicBp
		out.Measured.Systolic = true
	}
	if o.DiastolicBp != nil {
		out.DiastolicBP = *o.DiastolicBp
		out.Measured.Diastolic = true
	}
	if o.TriglyceridesMgDl != nil {
		out.Triglycerides = *o.TriglyceridesMgDl
		out.Measured.Triglycerides = true
	}
	if o.HdlMgDl != nil {
		out.HDL = *o.HdlMgDl
		out.Measured.HDL = true
	}
	if o.FastingGlucoseMgDl != nil {
		out.Glucose = *o.FastingGlucoseMgDl
		out.Measured.Glucose = true
	}
	if o.ActivityLevel != nil {
		if !ValidActivityLevel(*o.ActivityLevel) {
			return fs, fmt.Errorf("unknown activity level %q", *o.ActivityLevel)
		}
		out.ActivityLevel = *o.ActivityLevel
		out.Measured.Activity = true
	}
	return out, nil
}

// Fingerprint digests every scoring input into a stable hex string, used
// together with the model version to key the assessment cache. Identical
// feature sets always produce identical fingerprints.
func (fs FeatureSet) Fingerprint() string {
	codes := append([]string(nil), fs.DiseaseCodes...)
	sort.Strings(codes)

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%.4f|%.4f|%.4f|%.4f|%.4f|%.4f|%.4f|%.4f|%.4f|%s",
		fs.Sex, fs.Age, fs.HeightCm, fs.WeightKg, fs.BMI, fs.WaistCm,
		fs.SystolicBP, fs.DiastolicBP, fs.Triglycerides, fs.HDL, fs.Glucose,
		fs.ActivityLevel)
	fmt.Fprintf(&b, "|%t|%t|%t|%s",
		fs.OnAntihypertensive, fs.OnAntidiabetic, fs.OnLipidLowering,
		strings.Join(codes, ","))
	if fs.BodyFatPct != nil {
		fmt.Fprintf(&b, "|bf=%.2f", *fs.BodyFatPct)
	}
	if fs.MusclePct != nil {
		fmt.Fprintf(&b, "|mp=%.2f", *fs.MusclePct)
	}
	if fs.VisceralFatRating != nil {
		fmt.Fprintf(&b, "|vf=%d", *fs.VisceralFatRating)
	}
	m := fs.Measured
	fmt.Fprintf(&b, "|m=%t%t%t%t%t%t%t",
		m.Waist, m.Systolic, m.Diastolic, m.Triglycerides, m.HDL, m.Glucose, m.Activity)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
