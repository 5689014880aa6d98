package progress

import "testing"

func TestEmitNilCallback(t *testing.T) {
	Emit(nil, 0.5, "ignored")
}

func TestMonotonicClampsRegressions(t *testing.T) {
	var got []float64
	cb := Monotonic(func(fraction float64, message string) {
		got = append(got, fraction)
	})

	for _, f := range []float64{0.1, 0.5, 0.3, 0.5, 0.9, 0.2, 1.0} {
		cb(f, "")
	}

	want := []float64{0.1, 0.5, 0.5, 0.5, 0.9, 0.9, 1.0}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestMonotonicCapsAtOne(t *testing.T) {
	var last float64
	cb := Monotonic(func(fraction float64, message string) {
		last = fraction
	})
	cb(1.5, "")
	if last != 1.0 {
		t.Fatalf("expected cap at 1.0, got %v", last)
	}
	cb(0.2, "")
	if last != 1.0 {
		t.Fatalf("must stay at 1.0 once reached, got %v", last)
	}
}

func TestMonotonicNil(t *testing.T) {
	if Monotonic(nil) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

func TestScale(t *testing.T) {
	var got float64
	cb := Scale(func(fraction float64, message string) {
		got = fraction
	}, 0.5, 0.95)

	cb(0.0, "")
	if got != 0.5 {
		t.Fatalf("stage start must map to segment start, got %v", got)
	}
	cb(1.0, "")
	if got != 0.95 {
		t.Fatalf("stage end must map to segment end, got %v", got)
	}
	cb(0.5, "")
	if got != 0.725 {
		t.Fatalf("midpoint mapped to %v", got)
	}
}

func TestScaleNil(t *testing.T) {
	if Scale(nil, 0, 1) != nil {
		t.Fatalf("scaling nil must stay nil")
	}
}
