package bitstream

import "bytes"

// Signature classifies the first bytes of an input.
type Signature int

const (
	SignatureNotEnoughBytes Signature = iota
	SignatureInvalid
	SignatureCodestream
	SignatureContainer
)

func (s Signature) String() string {
	switch s {
	case SignatureNotEnoughBytes:
		return "not enough bytes"
	case SignatureInvalid:
		return "invalid"
	case SignatureCodestream:
		return "codestream"
	case SignatureContainer:
		return "container"
	}
	return "unknown"
}

// containerSignature is the 12-byte "JXL " signature box.
var containerSignature = []byte{0, 0, 0, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A}

// CheckSignature reports whether data starts like a bare codestream
// (FF 0A) or an ISO-BMFF container. A prefix of a valid signature reports
// SignatureNotEnoughBytes.
func CheckSignature(data []byte) Signature {
	if len(data) == 0 {
		return SignatureNotEnoughBytes
	}
	switch data[0] {
	case 0xFF:
		if len(data) < 2 {
			return SignatureNotEnoughBytes
		}
		if data[1] == 0x0A {
			return SignatureCodestream
		}
	case 0x00:
		n := min(len(data), len(containerSignature))
		if !bytes.Equal(data[:n], containerSignature[:n]) {
			return SignatureInvalid
		}
		if n < len(containerSignature) {
			return SignatureNotEnoughBytes
		}
		return SignatureContainer
	}
	return SignatureInvalid
}
