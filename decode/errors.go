package decode

import (
	"errors"
	"fmt"
)

// ErrNoImage matches every error returned by Decode and Probe.
var ErrNoImage = errors.New("jxl: no image decoded")

// Kind classifies why a decode produced no image.
type Kind int

const (
	KindUnknown Kind = iota
	// MalformedStream: the input is not a decodable bytestream, or a
	// milestone was not reached in order.
	MalformedStream
	// BasicInfoUnavailable: the header milestone was reached but its
	// contents could not be read.
	BasicInfoUnavailable
	// ColorEncodingUnavailable: the profile size or bytes could not be read.
	ColorEncodingUnavailable
	// ImageDataUnavailable: the sample buffer could not be sized or set.
	ImageDataUnavailable
	// ProfileCorrupt: the embedded profile does not parse.
	ProfileCorrupt
	// ProfileSynthesisFailed: the linear sRGB profile could not be built.
	ProfileSynthesisFailed
	// TransformFailed: the colour transform rejected the buffers.
	TransformFailed
	// LimitExceeded: the image is larger than the configured Limits.
	LimitExceeded
	// DecoderUnavailable: no bitstream decoder could be created.
	DecoderUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	MalformedStream:          "malformed stream",
	BasicInfoUnavailable:     "basic info unavailable",
	ColorEncodingUnavailable: "color encoding unavailable",
	ImageDataUnavailable:     "image data unavailable",
	ProfileCorrupt:           "profile corrupt",
	ProfileSynthesisFailed:   "profile synthesis failed",
	TransformFailed:          "transform failed",
	LimitExceeded:            "limit exceeded",
	DecoderUnavailable:       "decoder unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the failure of one decode stage.
type Error struct {
	Kind Kind
	// Op names the stage that failed, e.g. "basic info".
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("jxl: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("jxl: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNoImage}
	}
	return []error{ErrNoImage, e.Err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func fail(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
