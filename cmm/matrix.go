package cmm

import "math"

// Matrices are 3x3, row-major: [r0c0 r0c1 r0c2 r1c0 ...].

// D50 is the ICC profile connection space illuminant.
var D50 = [3]float64{0.9642, 1.0, 0.8249}

// D65 is the CIE xy chromaticity of standard illuminant D65.
var D65 = [2]float64{0.3127, 0.3290}

var identity3 = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

var bradford = [9]float64{
	0.8951, 0.2664, -0.1614,
	-0.7502, 1.7135, 0.0367,
	0.0389, -0.0685, 1.0296,
}

func invertMatrix(m [9]float64) ([9]float64, error) {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if math.Abs(det) < 1e-10 {
		return [9]float64{}, ErrSingularMatrix
	}
	invDet := 1.0 / det

	return [9]float64{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (g*b - a*h) * invDet, (a*e - b*d) * invDet,
	}, nil
}

func mulMatrix(a, b [9]float64) [9]float64 {
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = a[r*3]*b[c] + a[r*3+1]*b[3+c] + a[r*3+2]*b[6+c]
		}
	}
	return out
}

func mulVector(m [9]float64, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func matrixClose(a, b [9]float64, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// xyToXYZ lifts a chromaticity to XYZ with Y = 1.
func xyToXYZ(xy [2]float64) [3]float64 {
	x, y := xy[0], xy[1]
	return [3]float64{x / y, 1, (1 - x - y) / y}
}

// adaptationMatrix returns the Bradford chromatic adaptation from the white
// point src (XYZ) to dst (XYZ).
func adaptationMatrix(src, dst [3]float64) ([9]float64, error) {
	inv, err := invertMatrix(bradford)
	if err != nil {
		return [9]float64{}, err
	}
	ls := mulVector(bradford, src)
	ld := mulVector(bradford, dst)
	scale := [9]float64{ld[0] / ls[0], 0, 0, 0, ld[1] / ls[1], 0, 0, 0, ld[2] / ls[2]}
	return mulMatrix(inv, mulMatrix(scale, bradford)), nil
}

// primariesToXYZ builds the linear RGB to XYZ matrix for the given
// chromaticities, with XYZ relative to the white point itself.
func primariesToXYZ(r, g, b, white [2]float64) ([9]float64, error) {
	pr, pg, pb := xyToXYZ(r), xyToXYZ(g), xyToXYZ(b)
	m := [9]float64{
		pr[0], pg[0], pb[0],
		pr[1], pg[1], pb[1],
		pr[2], pg[2], pb[2],
	}
	inv, err := invertMatrix(m)
	if err != nil {
		return [9]float64{}, err
	}
	s := mulVector(inv, xyToXYZ(white))
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			m[row*3+col] *= s[col]
		}
	}
	return m, nil
}
