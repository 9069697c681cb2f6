package cmm

import "errors"

var (
	ErrProfileTooShort    = errors.New("cmm: ICC profile too short")
	ErrProfileTooLarge    = errors.New("cmm: ICC profile too large")
	ErrInvalidSignature   = errors.New("cmm: missing acsp signature")
	ErrTruncatedProfile   = errors.New("cmm: ICC profile truncated")
	ErrTagNotFound        = errors.New("cmm: tag not found")
	ErrUnsupportedTagType = errors.New("cmm: unsupported tag type")
	ErrUnsupportedProfile = errors.New("cmm: unsupported profile")
	ErrSingularMatrix     = errors.New("cmm: matrix is singular")
	ErrPixelFormat        = errors.New("cmm: unsupported pixel format")
	ErrBufferSize         = errors.New("cmm: buffer too small for pixel count")
)
