package twin

import "time"

// FractionalYear projects a timestamp onto the timeline axis, so mid-2023
// maps to roughly 2023.5.
func FractionalYear(t time.Time) float64 {
	return float64(t.Year()) + float64(t.YearDay()-1)/365.25
}

// Interpolate blends two deformation states linearly. t lies on the same axis
// as year0 and year1 (fractional years); values outside the segment clamp to
// its endpoints, and the endpoints reproduce the inputs exactly. A degenerate
// segment (year1 == year0) returns the start state.
func Interpolate(a, b DeformationState, year0, year1, t float64) DeformationState {
	if year1 == year0 {
		return a
	}
	frac := clamp01((t - year0) / (year1 - year0))
	if frac == 0 {
		return a
	}
	if frac == 1 {
		return b
	}
	lerp := func(x, y float64) float64 { return x + (y-x)*frac }
	return DeformationState{
		Weight:             lerp(a.Weight, b.Weight),
		AbdomenGirth:       lerp(a.AbdomenGirth, b.AbdomenGirth),
		MuscleMass:         lerp(a.MuscleMass, b.MuscleMass),
		Posture:            lerp(a.Posture, b.Posture),
		DiabetesEffect:     lerp(a.DiabetesEffect, b.DiabetesEffect),
		HypertensionEffect: lerp(a.HypertensionEffect, b.HypertensionEffect),
		HeartDiseaseEffect: lerp(a.HeartDiseaseEffect, b.HeartDiseaseEffect),
	}
}
