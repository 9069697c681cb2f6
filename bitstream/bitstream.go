// Package bitstream defines the staged decoder contract used to pull basic
// image information, colour profiles and float samples out of a JPEG XL
// bytestream. The native implementation wraps libjxl and is only compiled
// with the libjxl build tag and cgo enabled; signature and container probing
// are pure Go and always available.
package bitstream

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned by New when no native decoder was compiled in.
	ErrUnavailable = errors.New("bitstream: native decoder not available (build with -tags libjxl)")
	// ErrNotReady is returned by queries made before the matching milestone.
	ErrNotReady = errors.New("bitstream: milestone not reached")
	// ErrBufferSize is returned when a caller buffer does not match the
	// size the decoder requires.
	ErrBufferSize = errors.New("bitstream: buffer size mismatch")
	// ErrClosed is returned by calls on a closed decoder.
	ErrClosed = errors.New("bitstream: decoder closed")
)

// Event is a set of milestones a decoder reports.
type Event uint32

const (
	EventBasicInfo     Event = 0x40
	EventColorEncoding Event = 0x100
	EventFullImage     Event = 0x1000
)

// Status is the outcome of one ProcessInput call.
type Status int

const (
	StatusSuccess Status = iota
	StatusError
	StatusNeedMoreInput
	StatusBasicInfo
	StatusColorEncoding
	StatusFullImage
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusNeedMoreInput:
		return "need more input"
	case StatusBasicInfo:
		return "basic info"
	case StatusColorEncoding:
		return "color encoding"
	case StatusFullImage:
		return "full image"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// BasicInfo is the image header as reported after the basic-info milestone.
type BasicInfo struct {
	Width  uint32
	Height uint32
	// AlphaPremultiplied reports that colour samples are stored multiplied
	// by alpha.
	AlphaPremultiplied bool
	// UsesOriginalProfile reports that samples are delivered in the
	// embedded profile's space. When false they are delivered in linear
	// sRGB and the embedded profile is informational.
	UsesOriginalProfile bool

	BitsPerSample         uint32
	ExponentBitsPerSample uint32
	NumColorChannels      uint32
	NumExtraChannels      uint32
	AlphaBits             uint32
	HaveAnimation         bool
	Orientation           uint32
}

// DataType is the sample type of an output buffer.
type DataType int

const (
	TypeFloat DataType = iota
	TypeUint8
	TypeUint16
	TypeFloat16
)

// Endianness of multi-byte samples.
type Endianness int

const (
	NativeEndian Endianness = iota
	LittleEndian
	BigEndian
)

// PixelFormat describes an interleaved output buffer.
type PixelFormat struct {
	NumChannels uint32
	DataType    DataType
	Endianness  Endianness
	Align       uintptr
}

// RGBAFloat is four little-endian float32 channels per pixel.
var RGBAFloat = PixelFormat{NumChannels: 4, DataType: TypeFloat, Endianness: LittleEndian}

// BytesPerPixel returns the packed pixel size.
func (f PixelFormat) BytesPerPixel() int {
	size := 4
	switch f.DataType {
	case TypeUint8:
		size = 1
	case TypeUint16, TypeFloat16:
		size = 2
	}
	return size * int(f.NumChannels)
}

// ProfileTarget selects which colour profile a query describes.
type ProfileTarget int

const (
	// TargetOriginal is the profile embedded in the bytestream.
	TargetOriginal ProfileTarget = iota
	// TargetData is the profile of the samples the decoder emits.
	TargetData
)

// Decoder is one staged decoding session. Calls must follow the milestone
// order: subscribe, set and close input, then ProcessInput until each
// subscribed milestone is reported. Queries are only valid after their
// milestone. A Decoder is not safe for concurrent use.
type Decoder interface {
	SubscribeEvents(Event) error
	// SetInput presents the remaining input. The decoder keeps its own
	// cursor; data must stay unmodified until Close.
	SetInput(data []byte) error
	CloseInput()
	ProcessInput() Status

	BasicInfo() (BasicInfo, error)
	ICCProfileSize(ProfileTarget) (int, error)
	ICCProfile(target ProfileTarget, dst []byte) error
	ImageOutBufferSize(PixelFormat) (int, error)
	// SetImageOutBuffer hands the decoder a destination for samples. The
	// decoder writes into buf until the full-image milestone or Close.
	SetImageOutBuffer(f PixelFormat, buf []float32) error

	// Close releases native resources. It is safe to call more than once.
	Close() error
}

// New returns the native decoder, or ErrUnavailable when the package was
// built without libjxl support.
func New() (Decoder, error) {
	return newNative()
}
