package twin

import "math"

// CurveShape selects the response applied to a value after it has been
// normalized into [0,1] against its range.
type CurveShape int

const (
	// ShapeLinear passes the normalized value through unchanged.
	ShapeLinear CurveShape = iota
	// ShapePower applies t^k with 0<k<1, steepening response near the low
	// end of the range.
	ShapePower
	// ShapeLog applies log10(1+9t), compressing response near the high end.
	ShapeLog
)

func applyShape(t float64, shape CurveShape, exponent float64) float64 {
	t = clamp01(t)
	switch shape {
	case ShapePower:
		if exponent <= 0 || exponent >= 1 {
			return t
		}
		return math.Pow(t, exponent)
	case ShapeLog:
		return math.Log10(1 + 9*t)
	default:
		return t
	}
}

// Curve maps one measurement range onto [0,1] with a response shape. Values
// at or below Min map to 0, at or above Max to 1.
type Curve struct {
	Min      float64
	Max      float64
	Shape    CurveShape
	Exponent float64
}

// Apply normalizes v against the curve. A degenerate range (Max<=Min) maps
// everything to 0 rather than dividing by zero.
func (c Curve) Apply(v float64) float64 {
	if c.Max <= c.Min {
		return 0
	}
	t := (v - c.Min) / (c.Max - c.Min)
	return applyShape(t, c.Shape, c.Exponent)
}

// TierSegment maps one input band onto one output band with its own shape.
type TierSegment struct {
	From     float64
	To       float64
	OutFrom  float64
	OutTo    float64
	Shape    CurveShape
	Exponent float64
}

// TieredCurve is a piecewise curve of contiguous segments ordered by input.
// Inputs below the first segment clamp to its OutFrom, above the last to its
// OutTo, so the mapping is total and monotone when the segments are.
type TieredCurve []TierSegment

// Apply maps v through the tier containing it.
func (tc TieredCurve) Apply(v float64) float64 {
	if len(tc) == 0 {
		return 0
	}
	if v <= tc[0].From {
		return tc[0].OutFrom
	}
	last := tc[len(tc)-1]
	if v >= last.To {
		return last.OutTo
	}
	for _, seg := range tc {
		if v > seg.To {
			continue
		}
		if seg.To <= seg.From {
			return seg.OutFrom
		}
		t := (v - seg.From) / (seg.To - seg.From)
		t = applyShape(t, seg.Shape, seg.Exponent)
		return seg.OutFrom + (seg.OutTo-seg.OutFrom)*t
	}
	return last.OutTo
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
