//go:build !libjxl || !cgo

package bitstream

func newNative() (Decoder, error) {
	return nil, ErrUnavailable
}
