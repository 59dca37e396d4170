package crossfade

import "time"

// Curve names a volume-envelope shape for a fade ramp.
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
	CurveLogarithmic
	CurveSCurve
)

func (c Curve) String() string {
	switch c {
	case CurveExponential:
		return "exponential"
	case CurveLogarithmic:
		return "logarithmic"
	case CurveSCurve:
		return "s-curve"
	default:
		return "linear"
	}
}

// ParseCurve maps a config string to a curve; unknown values fall back to
// linear.
func ParseCurve(s string) Curve {
	switch s {
	case "exponential":
		return CurveExponential
	case "logarithmic":
		return CurveLogarithmic
	case "s-curve", "scurve":
		return CurveSCurve
	default:
		return CurveLinear
	}
}

// Envelope maps normalized progress p through the curve. Monotonic,
// Envelope(0)=0 and Envelope(1)=1 for every curve; inputs outside [0,1]
// are clamped.
func Envelope(p float64, c Curve) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	switch c {
	case CurveExponential:
		return p * p * p
	case CurveLogarithmic:
		q := 1 - p
		return 1 - q*q*q
	case CurveSCurve:
		return p * p * (3 - 2*p)
	default:
		return p
	}
}

// Settings parameterizes one transition. Value type, built fresh per
// transition.
type Settings struct {
	Duration time.Duration
	CurveIn  Curve
	CurveOut Curve
}
