package cmm

import (
	"fmt"
	"math"
)

// PixelFormat is the memory layout of one pixel.
type PixelFormat int

const (
	// PixelFormatRGBA8888 is four bytes per pixel.
	PixelFormatRGBA8888 PixelFormat = iota
	// PixelFormatRGBAFFFF is four float32 values per pixel.
	PixelFormatRGBAFFFF
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8888:
		return "RGBA_8888"
	case PixelFormatRGBAFFFF:
		return "RGBA_ffff"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// AlphaFormat says how colour channels relate to alpha.
type AlphaFormat int

const (
	// AlphaOpaque ignores stored alpha and treats every pixel as opaque.
	AlphaOpaque AlphaFormat = iota
	// AlphaUnpremul stores straight alpha.
	AlphaUnpremul
	// AlphaPremulAsEncoded stores colour multiplied by alpha in the
	// profile's encoded (non-linear) space.
	AlphaPremulAsEncoded
)

func (a AlphaFormat) String() string {
	switch a {
	case AlphaOpaque:
		return "Opaque"
	case AlphaUnpremul:
		return "Unpremul"
	case AlphaPremulAsEncoded:
		return "PremulAsEncoded"
	}
	return fmt.Sprintf("AlphaFormat(%d)", int(a))
}

// Buffer describes one side of a pixel transform. Float32 backs
// PixelFormatRGBAFFFF and Bytes backs PixelFormatRGBA8888.
type Buffer struct {
	Format  PixelFormat
	Alpha   AlphaFormat
	Profile *ICCProfile
	Float32 []float32
	Bytes   []byte
}

func (b Buffer) check(n int, side string) error {
	if b.Profile == nil {
		return fmt.Errorf("cmm: %s profile missing", side)
	}
	have := 0
	switch b.Format {
	case PixelFormatRGBA8888:
		have = len(b.Bytes)
	case PixelFormatRGBAFFFF:
		have = len(b.Float32)
	default:
		return fmt.Errorf("%w: %s %v", ErrPixelFormat, side, b.Format)
	}
	if b.Alpha < AlphaOpaque || b.Alpha > AlphaPremulAsEncoded {
		return fmt.Errorf("%w: %s alpha %v", ErrPixelFormat, side, b.Alpha)
	}
	if n < 0 || have/4 < n {
		return fmt.Errorf("%w: %s holds %d values, need %d pixels", ErrBufferSize, side, have, n)
	}
	return nil
}

func (b Buffer) load(i int) (px [4]float64) {
	if b.Format == PixelFormatRGBAFFFF {
		s := b.Float32[4*i : 4*i+4]
		return [4]float64{float64(s[0]), float64(s[1]), float64(s[2]), float64(s[3])}
	}
	s := b.Bytes[4*i : 4*i+4]
	return [4]float64{float64(s[0]) / 255, float64(s[1]) / 255, float64(s[2]) / 255, float64(s[3]) / 255}
}

func (b Buffer) store(i int, px [4]float64) {
	if b.Format == PixelFormatRGBAFFFF {
		s := b.Float32[4*i : 4*i+4]
		for c := range s {
			s[c] = float32(px[c])
		}
		return
	}
	s := b.Bytes[4*i : 4*i+4]
	for c := range s {
		s[c] = uint8(math.Floor(clamp01(px[c])*255 + 0.5))
	}
}

// Engine converts pixel buffers between ICC profiles. The zero value is
// ready to use and holds no state between calls.
type Engine struct{}

// NewEngine returns a pixel transform engine.
func NewEngine() *Engine { return &Engine{} }

// Transform converts n pixels from src to dst. The destination profile
// must be matrix/TRC or gray TRC based; source profiles may also be A2B
// LUT based. Neither buffer is referenced after Transform returns.
func (e *Engine) Transform(src, dst Buffer, n int) error {
	if err := src.check(n, "source"); err != nil {
		return err
	}
	if err := dst.check(n, "destination"); err != nil {
		return err
	}
	sm, err := newModel(src.Profile)
	if err != nil {
		return fmt.Errorf("source profile: %w", err)
	}
	dm, err := newModel(dst.Profile)
	if err != nil {
		return fmt.Errorf("destination profile: %w", err)
	}
	if dm.lut != nil {
		return fmt.Errorf("%w: destination must be matrix/TRC", ErrUnsupportedProfile)
	}

	same := sm.sameAs(dm)
	var combined [9]float64
	if sm.lut == nil {
		combined = mulMatrix(dm.fromXYZ, sm.toXYZ)
	}

	for i := 0; i < n; i++ {
		px := src.load(i)
		a := px[3]
		switch src.Alpha {
		case AlphaOpaque:
			a = 1
		case AlphaPremulAsEncoded:
			if a > 0 {
				px[0], px[1], px[2] = px[0]/a, px[1]/a, px[2]/a
			} else {
				px[0], px[1], px[2] = 0, 0, 0
			}
		}

		if !same {
			rgb := [3]float64{px[0], px[1], px[2]}
			if sm.lut != nil {
				xyz, err := sm.toPCS(rgb)
				if err != nil {
					return err
				}
				rgb, err = dm.fromPCS(xyz)
				if err != nil {
					return err
				}
			} else {
				lin := [3]float64{sm.curves[0].Eval(rgb[0]), sm.curves[1].Eval(rgb[1]), sm.curves[2].Eval(rgb[2])}
				lin = mulVector(combined, lin)
				if dm.gray {
					y := dm.curves[1].Invert(lin[1])
					rgb = [3]float64{y, y, y}
				} else {
					rgb = [3]float64{dm.curves[0].Invert(lin[0]), dm.curves[1].Invert(lin[1]), dm.curves[2].Invert(lin[2])}
				}
			}
			px[0], px[1], px[2] = rgb[0], rgb[1], rgb[2]
		}

		switch dst.Alpha {
		case AlphaOpaque:
			a = 1
		case AlphaPremulAsEncoded:
			a = clamp01(a)
			px[0], px[1], px[2] = px[0]*a, px[1]*a, px[2]*a
		}
		px[3] = a
		dst.store(i, px)
	}
	return nil
}
