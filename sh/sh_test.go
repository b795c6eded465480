package sh

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/auralab/aural/geom"
)

func TestNumCoeffs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		order := rapid.IntRange(0, 16).Draw(t, "order")
		if got, want := NumCoeffs(order), (order+1)*(order+1); got != want {
			t.Fatalf("NumCoeffs(%d) = %d, want %d", order, got, want)
		}
	})
}

func TestIndex(t *testing.T) {
	idx := 0
	for l := 0; l <= 4; l++ {
		for m := -l; m <= l; m++ {
			if got := Index(l, m); got != idx {
				t.Errorf("Index(%d, %d) = %d, want %d", l, m, got, idx)
			}
			idx++
		}
	}
}

func TestLegendre(t *testing.T) {
	tests := []struct {
		n    int
		x    float32
		want float64
	}{
		{0, 0.3, 1},
		{1, 0.3, 0.3},
		{2, 0.5, 0.5 * (3*0.25 - 1)},
		{3, -0.5, 0.5 * -0.5 * (5*0.25 - 3)},
		{4, 1, 1},
		{5, 1, 1},
		{4, -1, 1},
		{5, -1, -1},
	}

	for _, tc := range tests {
		if got := Legendre(tc.n, tc.x); math.Abs(float64(got)-tc.want) > 1e-5 {
			t.Errorf("Legendre(%d, %v) = %v, want %v", tc.n, tc.x, got, tc.want)
		}
	}
}

// TestMaxREWeights pins the order-1 max-rE decode weights: P_0 is 1 by
// definition and P_1 equals the cosine argument itself.
func TestMaxREWeights(t *testing.T) {
	cosine := float32(math.Cos(137.9 * math.Pi / 180 / 2.51))

	if got := Legendre(0, cosine); got != 1 {
		t.Errorf("P_0 = %v, want 1", got)
	}
	if got := Legendre(1, cosine); math.Abs(float64(got-cosine)) > 1e-6 {
		t.Errorf("P_1 = %v, want %v", got, cosine)
	}
	// The order-1 weight sits near 0.575.
	if cosine < 0.56 || cosine > 0.59 {
		t.Errorf("order-1 max-rE weight = %v, out of expected range", cosine)
	}
}

func unitDirGen() *rapid.Generator[geom.Vector3] {
	return rapid.Custom(func(t *rapid.T) geom.Vector3 {
		for {
			v := geom.V(
				rapid.Float64Range(-1, 1).Draw(t, "x"),
				rapid.Float64Range(-1, 1).Draw(t, "y"),
				rapid.Float64Range(-1, 1).Draw(t, "z"),
			)
			if n := v.Norm(); n > 0.1 && n <= 1 {
				return v.Mul(1 / n)
			}
		}
	})
}

// TestEvaluateMatchesRecurrence cross-checks the hard-coded closed forms
// against the associated-Legendre recurrence path.
func TestEvaluateMatchesRecurrence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dir := unitDirGen().Draw(t, "dir")
		l := rapid.IntRange(0, 4).Draw(t, "l")
		m := rapid.IntRange(-l, l).Draw(t, "m")

		fast := float64(Evaluate(l, m, dir))

		cd := convertedDirection(dir)
		phi, theta := toSphericalZUp(cd)
		slow := evalSlow(l, m, phi, theta)

		if math.Abs(fast-slow) > 1e-4 {
			t.Fatalf("Evaluate(%d, %d, %v) = %v, recurrence gives %v", l, m, dir, fast, slow)
		}
	})
}

func TestProjectSinglePoint(t *testing.T) {
	dir := geom.V(0, 0, -1)
	coeffs := make([]float32, NumCoeffs(2))
	ProjectSinglePoint(dir, 2, coeffs)

	for l := 0; l <= 2; l++ {
		for m := -l; m <= l; m++ {
			want := Evaluate(l, m, dir)
			if got := coeffs[Index(l, m)]; got != want {
				t.Errorf("coeff (%d, %d) = %v, want %v", l, m, got, want)
			}
		}
	}

	// The ahead direction has zero azimuthal variation in the engine frame,
	// so the band-0 coefficient dominates band 1's lateral components.
	if math.Abs(float64(coeffs[Index(1, -1)])) > 1e-6 {
		t.Errorf("lateral coefficient for ahead direction = %v, want 0", coeffs[Index(1, -1)])
	}
}

func TestProjectSinglePointAndUpdate(t *testing.T) {
	dir := geom.V(1, 0, 0)
	base := make([]float32, NumCoeffs(1))
	ProjectSinglePoint(dir, 1, base)

	accum := make([]float32, NumCoeffs(1))
	ProjectSinglePointAndUpdate(dir, 1, 2, accum)
	ProjectSinglePointAndUpdate(dir, 1, 1, accum)

	for i := range base {
		if math.Abs(float64(accum[i]-3*base[i])) > 1e-5 {
			t.Errorf("accumulated coeff %d = %v, want %v", i, accum[i], 3*base[i])
		}
	}
}

func TestEvaluateSum(t *testing.T) {
	dir := geom.V(1, 2, -0.5).Normalize()
	coeffs := make([]float32, NumCoeffs(3))
	ProjectSinglePoint(dir, 3, coeffs)

	// Projecting a point source and evaluating back at the same direction
	// gives the (positive) squared norm of the basis there.
	var want float32
	for l := 0; l <= 3; l++ {
		for m := -l; m <= l; m++ {
			v := Evaluate(l, m, dir)
			want += v * v
		}
	}

	if got := EvaluateSum(3, coeffs, dir); math.Abs(float64(got-want)) > 1e-4 {
		t.Errorf("EvaluateSum = %v, want %v", got, want)
	}
}
