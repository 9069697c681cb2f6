package cmm

import (
	"bytes"
	"errors"
)

type factoryImpl struct{}

// NewFactory returns a default CMM factory.
func NewFactory() Factory {
	return &factoryImpl{}
}

func (f *factoryImpl) NewProfile(data []byte) (Profile, error) {
	return NewICCProfile(data)
}

func (f *factoryImpl) NewTransform(src, dst Profile, intent RenderingIntent) (Transform, error) {
	if src == nil || dst == nil {
		return nil, errors.New("source and destination profiles required")
	}

	if bytes.Equal(src.Data(), dst.Data()) {
		return &identityTransform{}, nil
	}

	if dst.ColorSpace() == "XYZ " && (src.ColorSpace() == "RGB " || src.ColorSpace() == "GRAY") {
		if icc, ok := src.(*ICCProfile); ok {
			if trc, err := tryCreateMatrixTRC(icc); err == nil {
				return trc, nil
			}
		}
	}
	if src.ColorSpace() == "XYZ " && dst.ColorSpace() == "RGB " {
		if icc, ok := dst.(*ICCProfile); ok {
			if trc, err := tryCreateMatrixTRC(icc); err == nil {
				return trc.Inverse()
			}
		}
	}

	return &basicTransform{src: src, dst: dst, intent: intent}, nil
}

type identityTransform struct{}

func (t *identityTransform) Convert(src []float64) ([]float64, error) {
	// Copy to avoid side effects if caller reuses slice
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst, nil
}
