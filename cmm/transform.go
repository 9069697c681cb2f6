package cmm

import (
	"errors"
	"fmt"
	"math"
)

// rgbModel is the device-to-PCS half of a profile: either a matrix with
// per-channel curves (matrix/TRC and gray profiles) or an A2B LUT.
type rgbModel struct {
	gray    bool
	curves  [3]*Curve
	toXYZ   [9]float64
	fromXYZ [9]float64
	lut     *LUT
	pcs     string
}

func newModel(p *ICCProfile) (*rgbModel, error) {
	switch p.ColorSpace() {
	case "RGB ":
		m, err := matrixTRCModel(p)
		if err == nil {
			return m, nil
		}
		return lutModel(p, 3, err)
	case "GRAY":
		trc, err := p.ReadCurveTag("kTRC")
		if err == nil {
			// Gray samples arrive replicated in R, G and B; each channel maps
			// onto its own D50 axis so equal inputs land on the neutral axis.
			return &rgbModel{
				gray:    true,
				curves:  [3]*Curve{trc, trc, trc},
				toXYZ:   [9]float64{D50[0], 0, 0, 0, D50[1], 0, 0, 0, D50[2]},
				fromXYZ: [9]float64{1 / D50[0], 0, 0, 0, 1 / D50[1], 0, 0, 0, 1 / D50[2]},
				pcs:     "XYZ ",
			}, nil
		}
		return lutModel(p, 1, err)
	}
	return nil, fmt.Errorf("%w: colour space %q", ErrUnsupportedProfile, p.ColorSpace())
}

func matrixTRCModel(p *ICCProfile) (*rgbModel, error) {
	var cols [3][3]float64
	for i, sig := range []string{"rXYZ", "gXYZ", "bXYZ"} {
		v, err := p.ReadXYZTag(sig)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	m := &rgbModel{
		toXYZ: [9]float64{
			cols[0][0], cols[1][0], cols[2][0], // X row
			cols[0][1], cols[1][1], cols[2][1], // Y row
			cols[0][2], cols[1][2], cols[2][2], // Z row
		},
		pcs: "XYZ ",
	}
	for i, sig := range []string{"rTRC", "gTRC", "bTRC"} {
		c, err := p.ReadCurveTag(sig)
		if err != nil {
			return nil, err
		}
		m.curves[i] = c
	}
	inv, err := invertMatrix(m.toXYZ)
	if err != nil {
		return nil, err
	}
	m.fromXYZ = inv
	return m, nil
}

// lutModel falls back to an A2B tag. trcErr is why the matrix/TRC form was
// unusable; it is reported when no A2B tag is present either.
func lutModel(p *ICCProfile, channels int, trcErr error) (*rgbModel, error) {
	firstErr := trcErr
	for _, sig := range lutTagsFor(p.Header().Intent) {
		lut, err := p.ReadLUTTag(sig)
		if err != nil {
			if !errors.Is(err, ErrTagNotFound) {
				firstErr = err
			}
			continue
		}
		if int(lut.InputChannels) != channels || lut.OutputChannels != 3 {
			return nil, fmt.Errorf("%w: %s is %d->%d", ErrUnsupportedProfile, sig, lut.InputChannels, lut.OutputChannels)
		}
		return &rgbModel{gray: channels == 1, lut: lut, pcs: p.PCS()}, nil
	}
	if firstErr == nil {
		firstErr = ErrTagNotFound
	}
	return nil, fmt.Errorf("%w: no usable matrix/TRC or A2B tag: %w", ErrUnsupportedProfile, firstErr)
}

// Validate decodes the tags a transform needs and reports the first
// malformed or missing one.
func (p *ICCProfile) Validate() error {
	_, err := newModel(p)
	return err
}

func lutTagsFor(intent RenderingIntent) []string {
	switch intent {
	case IntentRelativeColorimetric, IntentAbsoluteColorimetric:
		return []string{"A2B1", "A2B0"}
	case IntentSaturation:
		return []string{"A2B2", "A2B0"}
	}
	return []string{"A2B0"}
}

// toPCS maps device values in [0,1] to PCS XYZ.
func (m *rgbModel) toPCS(rgb [3]float64) ([3]float64, error) {
	if m.lut != nil {
		in := rgb[:]
		if m.gray {
			in = rgb[1:2]
		}
		out, err := m.lut.Convert(in)
		if err != nil {
			return [3]float64{}, err
		}
		return pcsFromLUT(out, m.pcs, m.lut.Legacy16), nil
	}
	lin := [3]float64{m.curves[0].Eval(rgb[0]), m.curves[1].Eval(rgb[1]), m.curves[2].Eval(rgb[2])}
	return mulVector(m.toXYZ, lin), nil
}

// fromPCS maps PCS XYZ back to encoded device values. Only matrix/TRC
// models can be inverted.
func (m *rgbModel) fromPCS(xyz [3]float64) ([3]float64, error) {
	if m.lut != nil {
		return [3]float64{}, fmt.Errorf("%w: LUT-based destination", ErrUnsupportedProfile)
	}
	lin := mulVector(m.fromXYZ, xyz)
	if m.gray {
		y := m.curves[1].Invert(lin[1])
		return [3]float64{y, y, y}, nil
	}
	return [3]float64{m.curves[0].Invert(lin[0]), m.curves[1].Invert(lin[1]), m.curves[2].Invert(lin[2])}, nil
}

// sameAs reports whether two models map device values identically.
func (m *rgbModel) sameAs(o *rgbModel) bool {
	if m.lut != nil || o.lut != nil || m.gray != o.gray {
		return false
	}
	if !matrixClose(m.toXYZ, o.toXYZ, 1.0/65536) {
		return false
	}
	for i := range m.curves {
		if !m.curves[i].Equal(o.curves[i]) {
			return false
		}
	}
	return true
}

type basicTransform struct {
	src, dst Profile
	intent   RenderingIntent
}

func (t *basicTransform) Convert(in []float64) ([]float64, error) {
	srcCh := numChannels(t.src.ColorSpace())
	if len(in) != srcCh {
		return nil, fmt.Errorf("input channels mismatch: expected %d, got %d", srcCh, len(in))
	}

	if srcICC, ok := t.src.(*ICCProfile); ok {
		if dstICC, ok := t.dst.(*ICCProfile); ok {
			out, err := convertICC(srcICC, dstICC, in)
			if err == nil {
				return out, nil
			}
		}
	}

	dstCh := numChannels(t.dst.ColorSpace())
	out := make([]float64, dstCh)

	switch {
	case t.src.ColorSpace() == "RGB " && t.dst.ColorSpace() == "GRAY":
		out[0] = 0.2126*in[0] + 0.7152*in[1] + 0.0722*in[2]
		return out, nil
	case t.src.ColorSpace() == "GRAY" && t.dst.ColorSpace() == "RGB ":
		out[0], out[1], out[2] = in[0], in[0], in[0]
		return out, nil
	case srcCh == dstCh:
		copy(out, in)
		return out, nil
	}
	return nil, errors.New("unsupported color conversion")
}

type matrixTRCTransform struct {
	model *rgbModel
}

// Convert maps encoded RGB to PCS XYZ.
func (t *matrixTRCTransform) Convert(in []float64) ([]float64, error) {
	if len(in) < 3 {
		return nil, errors.New("input too short")
	}
	xyz, err := t.model.toPCS([3]float64{in[0], in[1], in[2]})
	if err != nil {
		return nil, err
	}
	return xyz[:], nil
}

func (t *matrixTRCTransform) Inverse() (Transform, error) {
	if t.model.lut != nil {
		return nil, fmt.Errorf("%w: LUT-based profile has no inverse", ErrUnsupportedProfile)
	}
	return &inverseMatrixTRCTransform{model: t.model}, nil
}

type inverseMatrixTRCTransform struct {
	model *rgbModel
}

// Convert maps PCS XYZ to encoded RGB, clamped to [0,1].
func (t *inverseMatrixTRCTransform) Convert(in []float64) ([]float64, error) {
	if len(in) < 3 {
		return nil, errors.New("input too short")
	}
	rgb, err := t.model.fromPCS([3]float64{in[0], in[1], in[2]})
	if err != nil {
		return nil, err
	}
	return []float64{clamp01(rgb[0]), clamp01(rgb[1]), clamp01(rgb[2])}, nil
}

func tryCreateMatrixTRC(p *ICCProfile) (*matrixTRCTransform, error) {
	m, err := newModel(p)
	if err != nil {
		return nil, err
	}
	return &matrixTRCTransform{model: m}, nil
}

func numChannels(cs string) int {
	switch cs {
	case "RGB ", "Lab ", "XYZ ":
		return 3
	case "CMYK":
		return 4
	case "GRAY":
		return 1
	default:
		return 0
	}
}

func convertICC(src, dst *ICCProfile, in []float64) ([]float64, error) {
	sm, err := newModel(src)
	if err != nil {
		return nil, err
	}
	dm, err := newModel(dst)
	if err != nil {
		return nil, err
	}
	var dev [3]float64
	if sm.gray {
		dev = [3]float64{in[0], in[0], in[0]}
	} else {
		copy(dev[:], in)
	}
	xyz, err := sm.toPCS(dev)
	if err != nil {
		return nil, err
	}
	out, err := dm.fromPCS(xyz)
	if err != nil {
		return nil, err
	}
	if dm.gray {
		return []float64{clamp01(out[0])}, nil
	}
	return []float64{clamp01(out[0]), clamp01(out[1]), clamp01(out[2])}, nil
}

func XYZToLab(xyz []float64) []float64 {
	if len(xyz) < 3 {
		return xyz
	}
	x := xyz[0] / D50[0]
	y := xyz[1] / D50[1]
	z := xyz[2] / D50[2]

	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116.0
	}

	fx, fy, fz := f(x), f(y), f(z)
	return []float64{116.0*fy - 16.0, 500.0 * (fx - fy), 200.0 * (fy - fz)}
}

func LabToXYZ(lab []float64) []float64 {
	if len(lab) < 3 {
		return lab
	}
	fy := (lab[0] + 16.0) / 116.0
	fx := lab[1]/500.0 + fy
	fz := fy - lab[2]/200.0

	fInv := func(t float64) float64 {
		if t > 0.206893 { // 6/29
			return t * t * t
		}
		return (t - 16.0/116.0) / 7.787
	}

	return []float64{D50[0] * fInv(fx), D50[1] * fInv(fy), D50[2] * fInv(fz)}
}
