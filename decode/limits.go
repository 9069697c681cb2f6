package decode

import "fmt"

const (
	// defaultMaxDimension rejects headers claiming absurd sides; memory is
	// bounded by defaultMaxPixels, so long panoramas still pass.
	defaultMaxDimension = 1 << 20
	// defaultMaxPixels bounds the pixel count (64 Mi), which keeps the float
	// sample buffer at 1 GiB and the output at 256 MiB.
	defaultMaxPixels int64 = 64 * 1024 * 1024
)

// Limits bound the image size a decode will allocate for. Zero fields take
// the defaults.
type Limits struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int64
}

// DefaultLimits returns the limits used for zero-valued fields.
func DefaultLimits() Limits {
	return Limits{
		MaxWidth:  defaultMaxDimension,
		MaxHeight: defaultMaxDimension,
		MaxPixels: defaultMaxPixels,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxWidth <= 0 {
		l.MaxWidth = d.MaxWidth
	}
	if l.MaxHeight <= 0 {
		l.MaxHeight = d.MaxHeight
	}
	if l.MaxPixels <= 0 {
		l.MaxPixels = d.MaxPixels
	}
	return l
}

const maxInt = int64(^uint(0) >> 1)

func (l Limits) validate(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("image bounds invalid (%d x %d)", width, height)
	}
	if int64(width) > int64(l.MaxWidth) || int64(height) > int64(l.MaxHeight) {
		return fmt.Errorf("image dimension exceeds limit (%d x %d, max %d x %d)", width, height, l.MaxWidth, l.MaxHeight)
	}
	pixels := int64(width) * int64(height)
	if pixels > l.MaxPixels {
		return fmt.Errorf("image pixel count %d exceeds limit %d", pixels, l.MaxPixels)
	}
	if pixels > maxInt/16 {
		return fmt.Errorf("image pixel count %d overflows sample buffer", pixels)
	}
	return nil
}
