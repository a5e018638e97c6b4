package solver_test

import (
	"errors"
	"math"
	"testing"

	"github.com/meenmo/credlib/solver"
)

func TestBrent_KnownRoots(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		f    solver.Func
		a, b float64
		want float64
	}{
		{"sqrt2", func(x float64) (float64, error) { return x*x - 2, nil }, 0, 2, math.Sqrt2},
		{"cos", func(x float64) (float64, error) { return math.Cos(x) - x, nil }, 0, 1, 0.7390851332151607},
		{"cubic", func(x float64) (float64, error) { return (x - 0.3) * (x*x + 1), nil }, -5, 5, 0.3},
	}
	for _, tc := range cases {
		got, iters, err := solver.Brent(tc.f, tc.a, tc.b, 1e-12, 100)
		if err != nil {
			t.Fatalf("%s: Brent error: %v", tc.name, err)
		}
		if math.Abs(got-tc.want) > 1e-10 {
			t.Fatalf("%s: root %.15f want %.15f (%d iterations)", tc.name, got, tc.want, iters)
		}
	}
}

func TestBrent_Errors(t *testing.T) {
	t.Parallel()

	square := func(x float64) (float64, error) { return x*x + 1, nil }
	if _, _, err := solver.Brent(square, -1, 1, 1e-12, 100); !errors.Is(err, solver.ErrNoBracket) {
		t.Fatalf("err = %v want ErrNoBracket", err)
	}

	slow := func(x float64) (float64, error) { return x - 0.123456789, nil }
	if _, _, err := solver.Brent(slow, 0, 1, 0, 1); !errors.Is(err, solver.ErrMaxIterations) {
		t.Fatalf("err = %v want ErrMaxIterations", err)
	}

	boom := errors.New("boom")
	failing := func(x float64) (float64, error) { return 0, boom }
	if _, _, err := solver.Brent(failing, 0, 1, 1e-12, 100); !errors.Is(err, boom) {
		t.Fatalf("objective error not propagated: %v", err)
	}
}

func TestBracket_ExpandsWithinLimits(t *testing.T) {
	t.Parallel()

	f := func(x float64) (float64, error) { return x - 0.8, nil }
	a, b, err := solver.Bracket(f, 0, 0.05, 0, 5, 50)
	if err != nil {
		t.Fatalf("Bracket error: %v", err)
	}
	if a > 0.8 || b < 0.8 || a < 0 || b > 5 {
		t.Fatalf("bracket [%g, %g] does not contain 0.8 inside limits", a, b)
	}

	neg := func(x float64) (float64, error) { return x + 0.01, nil }
	a, b, err = solver.Bracket(neg, 0, 0.05, -0.02, 5, 50)
	if err != nil {
		t.Fatalf("downward Bracket error: %v", err)
	}
	if a > -0.01 || a < -0.02 {
		t.Fatalf("lower end %g does not pass -0.01", a)
	}
	_ = b

	never := func(x float64) (float64, error) { return x + 10, nil }
	if _, _, err := solver.Bracket(never, 0, 0.05, 0, 5, 50); !errors.Is(err, solver.ErrNoBracket) {
		t.Fatalf("err = %v want ErrNoBracket", err)
	}
}
