package cmm

import (
	"errors"
	"math"
	"testing"
)

func srgbCurve(t *testing.T) *Curve {
	t.Helper()
	c, err := SRGB().Curve()
	if err != nil {
		t.Fatalf("sRGB curve: %v", err)
	}
	return c
}

func TestCurveEval(t *testing.T) {
	srgb := srgbCurve(t)
	table := TableCurve([]float64{0, 0.25, 1})

	tests := []struct {
		name string
		c    *Curve
		in   float64
		want float64
	}{
		{"identity", IdentityCurve(), 0.3, 0.3},
		{"gamma", GammaCurve(2), 0.5, 0.25},
		{"gamma negative", GammaCurve(2), -0.5, -0.25},
		{"table midpoint", table, 0.5, 0.25},
		{"table interpolated", table, 0.75, 0.625},
		{"table clamps", table, 1.5, 1},
		{"srgb linear segment", srgb, 0.04, 0.04 / 12.92},
		{"srgb white", srgb, 1, 1},
		{"srgb mid", srgb, 0.5, 0.21404},
		{"srgb odd symmetry", srgb, -0.5, -0.21404},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Eval(tc.in); math.Abs(got-tc.want) > 1e-4 {
				t.Errorf("Eval(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCurveInvert(t *testing.T) {
	p4, err := ParametricCurve(4, 2.2, 0.9, 0.1, 0.286, 0.05, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	curves := map[string]*Curve{
		"identity":   IdentityCurve(),
		"gamma":      GammaCurve(1.8),
		"table":      TableCurve([]float64{0, 0.1, 0.3, 0.6, 1}),
		"srgb":       srgbCurve(t),
		"parametric": p4,
	}
	for name, c := range curves {
		for _, x := range []float64{0, 0.02, 0.2, 0.5, 0.9, 1} {
			if got := c.Invert(c.Eval(x)); math.Abs(got-x) > 1e-4 {
				t.Errorf("%s: Invert(Eval(%v)) = %v", name, x, got)
			}
		}
	}
}

func TestCurveEncodeDecode(t *testing.T) {
	srgb := srgbCurve(t)
	curves := []*Curve{IdentityCurve(), GammaCurve(2.2), TableCurve([]float64{0, 0.5, 1}), srgb}
	for _, c := range curves {
		d, err := DecodeCurve(c.Encode())
		if err != nil {
			t.Fatalf("DecodeCurve failed: %v", err)
		}
		for _, x := range []float64{0, 0.1, 0.5, 1} {
			if math.Abs(d.Eval(x)-c.Eval(x)) > 1e-3 {
				t.Errorf("curve %v: decoded Eval(%v) = %v, want %v", c.kind, x, d.Eval(x), c.Eval(x))
			}
		}
	}
}

func TestDecodeCurveErrors(t *testing.T) {
	para := srgbCurve(t).Encode()
	badFn := append([]byte(nil), para...)
	badFn[9] = 7

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte("curv\x00\x00\x00\x00"), ErrTruncatedProfile},
		{"curv entries past end", []byte("curv\x00\x00\x00\x00\x00\x00\x00\x04\x00\x00"), ErrTruncatedProfile},
		{"para truncated", para[:20], ErrTruncatedProfile},
		{"para function type", badFn, ErrUnsupportedTagType},
		{"wrong type", []byte("XYZ \x00\x00\x00\x00\x00\x00\x00\x00"), ErrUnsupportedTagType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeCurve(tc.data); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParametricCurveArgs(t *testing.T) {
	if _, err := ParametricCurve(3, 2.4); err == nil {
		t.Error("expected parameter count error")
	}
	if _, err := ParametricCurve(5, 1); !errors.Is(err, ErrUnsupportedTagType) {
		t.Errorf("expected ErrUnsupportedTagType, got %v", err)
	}
}

func TestCurveEqual(t *testing.T) {
	lin, _ := ParametricCurve(0, 1)
	if !lin.Equal(IdentityCurve()) {
		t.Error("linear parametric curve should equal identity")
	}
	if GammaCurve(2.2).Equal(GammaCurve(1.8)) {
		t.Error("different gammas compared equal")
	}
	if !srgbCurve(t).Equal(srgbCurve(t)) {
		t.Error("sRGB curve not equal to itself")
	}
}
