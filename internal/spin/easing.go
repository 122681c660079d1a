package spin

// Ease maps normalized time in [0,1] to normalized progress.
type Ease func(t float64) float64

// Linear is constant-speed progress.
func Linear(t float64) float64 { return clamp01(t) }

// BounceOut reaches the target early and settles into it with shrinking bounces.
func BounceOut(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	t = clamp01(t)
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
