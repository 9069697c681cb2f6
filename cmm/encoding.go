package cmm

import (
	"fmt"
	"strings"
)

// TransferFunction identifies an encoding curve of a ColorEncoding.
type TransferFunction int

const (
	TransferSRGB TransferFunction = iota
	TransferLinear
	TransferGamma
)

func (tf TransferFunction) String() string {
	switch tf {
	case TransferSRGB:
		return "SRG"
	case TransferLinear:
		return "Lin"
	case TransferGamma:
		return "Gam"
	}
	return fmt.Sprintf("TransferFunction(%d)", int(tf))
}

// ColorEncoding describes a colour space by white point, primaries and
// transfer function, and can synthesize the equivalent ICC profile.
type ColorEncoding struct {
	Gray     bool
	White    [2]float64
	Red      [2]float64
	Green    [2]float64
	Blue     [2]float64
	Transfer TransferFunction
	Gamma    float64 // exponent, TransferGamma only
	Intent   RenderingIntent
}

var (
	srgbRed   = [2]float64{0.64, 0.33}
	srgbGreen = [2]float64{0.30, 0.60}
	srgbBlue  = [2]float64{0.15, 0.06}
)

// SRGB is IEC 61966-2-1 sRGB.
func SRGB() ColorEncoding {
	return ColorEncoding{
		White: D65, Red: srgbRed, Green: srgbGreen, Blue: srgbBlue,
		Transfer: TransferSRGB, Intent: IntentRelativeColorimetric,
	}
}

// LinearSRGB has the sRGB white point and primaries with a linear transfer
// function. This is the space samples are delivered in when an image is not
// decoded to its original profile.
func LinearSRGB(gray bool) ColorEncoding {
	e := SRGB()
	e.Gray = gray
	e.Transfer = TransferLinear
	return e
}

// Description is a compact name for the encoding, e.g. "RGB_D65_SRG_Rel_Lin".
func (c ColorEncoding) Description() string {
	var b strings.Builder
	if c.Gray {
		b.WriteString("Gra_")
	} else {
		b.WriteString("RGB_")
	}
	if c.White == D65 {
		b.WriteString("D65_")
	} else {
		fmt.Fprintf(&b, "%.4f;%.4f_", c.White[0], c.White[1])
	}
	if !c.Gray {
		if c.Red == srgbRed && c.Green == srgbGreen && c.Blue == srgbBlue {
			b.WriteString("SRG_")
		} else {
			b.WriteString("Cst_")
		}
	}
	switch c.Intent {
	case IntentPerceptual:
		b.WriteString("Per_")
	case IntentSaturation:
		b.WriteString("Sat_")
	case IntentAbsoluteColorimetric:
		b.WriteString("Abs_")
	default:
		b.WriteString("Rel_")
	}
	if c.Transfer == TransferGamma {
		fmt.Fprintf(&b, "g%.6f", 1/c.Gamma)
	} else {
		b.WriteString(c.Transfer.String())
	}
	return b.String()
}

// Curve returns the transfer function as an ICC curve.
func (c ColorEncoding) Curve() (*Curve, error) {
	switch c.Transfer {
	case TransferLinear:
		return ParametricCurve(0, 1)
	case TransferSRGB:
		return ParametricCurve(3, 2.4, 1/1.055, 0.055/1.055, 1/12.92, 0.04045)
	case TransferGamma:
		if c.Gamma <= 0 {
			return nil, fmt.Errorf("cmm: invalid gamma %v", c.Gamma)
		}
		return ParametricCurve(0, c.Gamma)
	}
	return nil, fmt.Errorf("cmm: unknown transfer function %v", c.Transfer)
}

// ToXYZD50 returns the D50-adapted linear RGB to PCS XYZ matrix and the
// chromatic adaptation matrix used to reach D50.
func (c ColorEncoding) ToXYZD50() (m, chad [9]float64, err error) {
	chad, err = adaptationMatrix(xyToXYZ(c.White), D50)
	if err != nil {
		return m, chad, err
	}
	if c.Gray {
		return m, chad, nil
	}
	rgb, err := primariesToXYZ(c.Red, c.Green, c.Blue, c.White)
	if err != nil {
		return m, chad, err
	}
	return mulMatrix(chad, rgb), chad, nil
}

// ICC synthesizes a version 4 display profile for the encoding.
func (c ColorEncoding) ICC() ([]byte, error) {
	trc, err := c.Curve()
	if err != nil {
		return nil, err
	}
	m, chad, err := c.ToXYZD50()
	if err != nil {
		return nil, fmt.Errorf("cmm: colorants for %s: %w", c.Description(), err)
	}
	desc, err := encodeMLUC(c.Description())
	if err != nil {
		return nil, err
	}
	cprt, err := encodeMLUC("CC0")
	if err != nil {
		return nil, err
	}

	h := Header{
		Version: 0x04300000,
		Class:   "mntr",
		PCS:     "XYZ ",
		Intent:  c.Intent,
	}
	tags := []Tag{
		{Sig: "desc", Data: desc},
		{Sig: "cprt", Data: cprt},
		{Sig: "wtpt", Data: encodeXYZ(D50)},
		{Sig: "chad", Data: encodeMatrix(chad)},
	}
	curve := trc.Encode()
	if c.Gray {
		h.ColorSpace = "GRAY"
		tags = append(tags, Tag{Sig: "kTRC", Data: curve})
	} else {
		h.ColorSpace = "RGB "
		tags = append(tags,
			Tag{Sig: "rXYZ", Data: encodeXYZ([3]float64{m[0], m[3], m[6]})},
			Tag{Sig: "gXYZ", Data: encodeXYZ([3]float64{m[1], m[4], m[7]})},
			Tag{Sig: "bXYZ", Data: encodeXYZ([3]float64{m[2], m[5], m[8]})},
			Tag{Sig: "rTRC", Data: curve},
			Tag{Sig: "gTRC", Data: curve},
			Tag{Sig: "bTRC", Data: curve},
		)
	}
	return EncodeProfile(h, tags)
}

// SRGBProfile returns a freshly parsed sRGB profile.
func SRGBProfile() (*ICCProfile, error) {
	data, err := SRGB().ICC()
	if err != nil {
		return nil, err
	}
	return NewICCProfile(data)
}
