package cmm

import (
	"encoding/binary"
	"fmt"
	"math"
)

type curveKind int

const (
	curveIdentity curveKind = iota
	curveGamma
	curveTable
	curveParametric
)

// paramCounts is the number of parameters for parametric function types 0-4.
var paramCounts = [5]int{1, 3, 4, 5, 7}

// Curve is a one-dimensional tone reproduction curve mapping encoded device
// values in [0,1] to linear values.
type Curve struct {
	kind   curveKind
	gamma  float64
	table  []float64
	fn     int
	params [7]float64 // g a b c d e f
}

// IdentityCurve returns the linear curve.
func IdentityCurve() *Curve { return &Curve{kind: curveIdentity} }

// GammaCurve returns Y = X^g.
func GammaCurve(g float64) *Curve { return &Curve{kind: curveGamma, gamma: g} }

// TableCurve returns a sampled curve; values are normalised to [0,1].
func TableCurve(table []float64) *Curve {
	t := make([]float64, len(table))
	copy(t, table)
	return &Curve{kind: curveTable, table: t}
}

// ParametricCurve returns an ICC parametricCurveType of the given function
// type. params are g, a, b, c, d, e, f in that order; missing trailing
// parameters are zero.
func ParametricCurve(fn int, params ...float64) (*Curve, error) {
	if fn < 0 || fn >= len(paramCounts) {
		return nil, fmt.Errorf("%w: parametric function type %d", ErrUnsupportedTagType, fn)
	}
	if len(params) != paramCounts[fn] {
		return nil, fmt.Errorf("parametric function type %d takes %d parameters, got %d", fn, paramCounts[fn], len(params))
	}
	c := &Curve{kind: curveParametric, fn: fn}
	copy(c.params[:], params)
	return c, nil
}

// DecodeCurve decodes curveType ('curv') or parametricCurveType ('para') tag data.
func DecodeCurve(data []byte) (*Curve, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: curve tag", ErrTruncatedProfile)
	}
	switch string(data[0:4]) {
	case "curv":
		n := int(binary.BigEndian.Uint32(data[8:12]))
		if len(data) < 12+2*n {
			return nil, fmt.Errorf("%w: curv with %d entries", ErrTruncatedProfile, n)
		}
		switch n {
		case 0:
			return IdentityCurve(), nil
		case 1:
			return GammaCurve(u8Fixed8ToFloat(binary.BigEndian.Uint16(data[12:14]))), nil
		}
		table := make([]float64, n)
		for i := range table {
			table[i] = float64(binary.BigEndian.Uint16(data[12+2*i:])) / 65535.0
		}
		return &Curve{kind: curveTable, table: table}, nil
	case "para":
		fn := int(binary.BigEndian.Uint16(data[8:10]))
		if fn >= len(paramCounts) {
			return nil, fmt.Errorf("%w: parametric function type %d", ErrUnsupportedTagType, fn)
		}
		n := paramCounts[fn]
		if len(data) < 12+4*n {
			return nil, fmt.Errorf("%w: para type %d", ErrTruncatedProfile, fn)
		}
		params := make([]float64, n)
		for i := range params {
			params[i] = s15Fixed16ToFloat(binary.BigEndian.Uint32(data[12+4*i:]))
		}
		return ParametricCurve(fn, params...)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedTagType, data[0:4])
}

// Encode serialises the curve as tag data. Gamma and identity curves use
// curveType; parametric curves use parametricCurveType.
func (c *Curve) Encode() []byte {
	switch c.kind {
	case curveIdentity:
		b := make([]byte, 12)
		copy(b, "curv")
		return b
	case curveGamma:
		b := make([]byte, 14)
		copy(b, "curv")
		binary.BigEndian.PutUint32(b[8:], 1)
		binary.BigEndian.PutUint16(b[12:], uint16(math.Round(c.gamma*256)))
		return b
	case curveTable:
		b := make([]byte, 12+2*len(c.table))
		copy(b, "curv")
		binary.BigEndian.PutUint32(b[8:], uint32(len(c.table)))
		for i, v := range c.table {
			binary.BigEndian.PutUint16(b[12+2*i:], uint16(math.Round(clamp01(v)*65535)))
		}
		return b
	}
	n := paramCounts[c.fn]
	b := make([]byte, 12+4*n)
	copy(b, "para")
	binary.BigEndian.PutUint16(b[8:], uint16(c.fn))
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint32(b[12+4*i:], floatToS15Fixed16(c.params[i]))
	}
	return b
}

// IsIdentity reports whether Eval is the identity on [0,1].
func (c *Curve) IsIdentity() bool {
	switch c.kind {
	case curveIdentity:
		return true
	case curveGamma:
		return c.gamma == 1
	case curveParametric:
		return c.fn == 0 && c.params[0] == 1
	}
	return false
}

// Eval maps an encoded value to a linear value. Parametric curves are
// extended to negative inputs by odd symmetry; tables clamp to [0,1].
func (c *Curve) Eval(x float64) float64 {
	switch c.kind {
	case curveIdentity:
		return x
	case curveGamma:
		return signedPow(x, c.gamma)
	case curveTable:
		return interp1D(x, c.table)
	}
	if x < 0 {
		return -c.evalParametric(-x)
	}
	return c.evalParametric(x)
}

func (c *Curve) evalParametric(x float64) float64 {
	g, a, b, cc, d, e, f := c.params[0], c.params[1], c.params[2], c.params[3], c.params[4], c.params[5], c.params[6]
	switch c.fn {
	case 0:
		return math.Pow(x, g)
	case 1:
		if a != 0 && x >= -b/a {
			return math.Pow(a*x+b, g)
		}
		return 0
	case 2:
		if a != 0 && x >= -b/a {
			return math.Pow(a*x+b, g) + cc
		}
		return cc
	case 3:
		if x >= d {
			return math.Pow(a*x+b, g)
		}
		return cc * x
	default:
		if x >= d {
			return math.Pow(a*x+b, g) + e
		}
		return cc*x + f
	}
}

// Invert maps a linear value back to its encoded value.
func (c *Curve) Invert(y float64) float64 {
	switch c.kind {
	case curveIdentity:
		return y
	case curveGamma:
		if c.gamma == 0 {
			return y
		}
		return signedPow(y, 1/c.gamma)
	case curveParametric:
		neg := y < 0
		if neg {
			y = -y
		}
		x, ok := c.invertParametric(y)
		if !ok {
			x = c.bisect(y)
		}
		if neg {
			return -x
		}
		return x
	}
	return c.bisect(y)
}

func (c *Curve) invertParametric(y float64) (float64, bool) {
	g, a, b, cc, d := c.params[0], c.params[1], c.params[2], c.params[3], c.params[4]
	switch c.fn {
	case 0:
		if g == 0 {
			return 0, false
		}
		return math.Pow(y, 1/g), true
	case 3:
		if g == 0 || a == 0 {
			return 0, false
		}
		if y >= c.evalParametric(d) {
			return (math.Pow(y, 1/g) - b) / a, true
		}
		if cc == 0 {
			return d, true
		}
		return y / cc, true
	}
	return 0, false
}

// bisect inverts a monotonic curve on [0,1].
func (c *Curve) bisect(y float64) float64 {
	lo, hi := 0.0, 1.0
	rising := c.Eval(1) >= c.Eval(0)
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if (c.Eval(mid) < y) == rising {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// Equal reports whether two curves describe the same function.
func (c *Curve) Equal(o *Curve) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.IsIdentity() && o.IsIdentity() {
		return true
	}
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case curveGamma:
		return c.gamma == o.gamma
	case curveTable:
		if len(c.table) != len(o.table) {
			return false
		}
		for i := range c.table {
			if c.table[i] != o.table[i] {
				return false
			}
		}
		return true
	case curveParametric:
		return c.fn == o.fn && c.params == o.params
	}
	return true
}

func signedPow(x, p float64) float64 {
	if x < 0 {
		return -math.Pow(-x, p)
	}
	return math.Pow(x, p)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
