package twin

// ComputeDeformation maps a feature set onto the seven renderer channels.
// Each body channel resolves from its best available evidence tier, then the
// abdomen is dampened against an elevated mass channel, lean mass is
// attenuated against mass, posture ramps over age, disease effects are
// applied, every channel is clamped to [0,1], and finally the safety cap
// scales weight and abdomenGirth.
func ComputeDeformation(fs FeatureSet, cfg ModelConfig) (DeformationState, DeformationEvidence) {
	p := cfg.Deformation

	var ev DeformationEvidence
	var d DeformationState

	var mass float64
	if fs.BodyFatPct != nil {
		ev.Mass = TierBioimpedance
		c := p.BodyFatMale
		if fs.Sex == SexFemale {
			c = p.BodyFatFemale
		}
		mass = c.Apply(*fs.BodyFatPct)
	} else {
		// BMI comes from the measured height and weight.
		ev.Mass = TierManual
		mass = p.MassFromBMI.Apply(fs.BMI)
	}

	waistCurve := p.WaistMale
	if fs.Sex == SexFemale {
		waistCurve = p.WaistFemale
	}
	var abdomen float64
	switch {
	case fs.VisceralFatRating != nil:
		ev.CentralAdiposity = TierBioimpedance
		abdomen = p.VisceralFat.Apply(float64(*fs.VisceralFatRating))
	case fs.Measured.Waist:
		ev.CentralAdiposity = TierManual
		abdomen = waistCurve.Apply(fs.WaistCm)
	default:
		// WaistCm holds the BMI-derived estimate filled at feature build.
		ev.CentralAdiposity = TierEstimated
		abdomen = waistCurve.Apply(fs.WaistCm)
	}
	if mass > p.AdiposityDampStart && p.AdiposityDampStart < 1 {
		over := (mass - p.AdiposityDampStart) / (1 - p.AdiposityDampStart)
		abdomen *= 1 - p.AdiposityDampFactor*over
	}

	var lean float64
	switch {
	case fs.MusclePct != nil:
		ev.LeanMass = TierBioimpedance
		c := p.MusclePctMale
		if fs.Sex == SexFemale {
			c = p.MusclePctFemale
		}
		lean = c.Apply(*fs.MusclePct)
	case fs.Measured.Activity:
		ev.LeanMass = TierManual
		lean = p.LeanByActivity[fs.ActivityLevel]
	default:
		// Activity level was defaulted, so the lookup is only an estimate.
		ev.LeanMass = TierEstimated
		lean = p.LeanByActivity[fs.ActivityLevel]
	}
	lean *= 1 - p.LeanAttenuation*mass

	var posture float64
	if p.PostureAgeTo > p.PostureAgeFrom {
		posture = clamp01((float64(fs.Age) - p.PostureAgeFrom) / (p.PostureAgeTo - p.PostureAgeFrom))
	}

	d.Weight = mass
	d.AbdomenGirth = abdomen
	d.MuscleMass = lean
	d.Posture = posture

	// Each known disease code sets its own effect channel to a fixed
	// magnitude and nudges body channels. Unknown codes are ignored;
	// duplicate codes apply once.
	seen := make(map[string]bool, len(fs.DiseaseCodes))
	for _, code := range fs.DiseaseCodes {
		if seen[code] {
			continue
		}
		seen[code] = true
		eff, ok := p.DiseaseEffects[code]
		if !ok {
			continue
		}
		d.set(eff.Channel, eff.Magnitude)
		for _, n := range eff.Nudges {
			d.add(n.Channel, n.Delta)
		}
	}

	d.Weight = clamp01(d.Weight) * p.SafetyCap
	d.AbdomenGirth = clamp01(d.AbdomenGirth) * p.SafetyCap
	d.MuscleMass = clamp01(d.MuscleMass)
	d.Posture = clamp01(d.Posture)
	d.DiabetesEffect = clamp01(d.DiabetesEffect)
	d.HypertensionEffect = clamp01(d.HypertensionEffect)
	d.HeartDiseaseEffect = clamp01(d.HeartDiseaseEffect)

	return d, ev
}
