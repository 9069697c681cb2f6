package bitstream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrNotContainer = errors.New("bitstream: not a container")
	ErrMalformedBox = errors.New("bitstream: malformed box")
)

// Box is one top-level ISO-BMFF box of a container file.
type Box struct {
	Type   string
	Offset int
	// Size includes the header. A box that runs to end of file reports the
	// remaining length.
	Size int
	Data []byte
}

// Boxes walks the top-level boxes of a container. The first box must be
// the signature box. Data slices alias the input.
func Boxes(data []byte) ([]Box, error) {
	if CheckSignature(data) != SignatureContainer {
		return nil, ErrNotContainer
	}
	var boxes []Box
	for pos := 0; pos < len(data); {
		size, typ, header, err := parseBoxHeader(data, pos)
		if err != nil {
			return boxes, err
		}
		if size == 0 {
			size = len(data) - pos
		}
		if size < header || size > len(data)-pos {
			return boxes, fmt.Errorf("%w: %q at %d declares %d bytes, %d remain", ErrMalformedBox, typ, pos, size, len(data)-pos)
		}
		boxes = append(boxes, Box{Type: typ, Offset: pos, Size: size, Data: data[pos+header : pos+size]})
		pos += size
	}
	return boxes, nil
}

func parseBoxHeader(data []byte, pos int) (size int, typ string, header int, err error) {
	if len(data)-pos < 8 {
		return 0, "", 0, fmt.Errorf("%w: %d trailing bytes at %d", ErrMalformedBox, len(data)-pos, pos)
	}
	n := uint64(binary.BigEndian.Uint32(data[pos:]))
	typ = string(data[pos+4 : pos+8])
	header = 8
	switch {
	case n == 1:
		if len(data)-pos < 16 {
			return 0, "", 0, fmt.Errorf("%w: %q extended size truncated", ErrMalformedBox, typ)
		}
		n = binary.BigEndian.Uint64(data[pos+8:])
		header = 16
	case n != 0 && n < 8:
		return 0, "", 0, fmt.Errorf("%w: %q size %d", ErrMalformedBox, typ, n)
	}
	if n > uint64(len(data)) {
		return 0, "", 0, fmt.Errorf("%w: %q at %d declares %d bytes, %d remain", ErrMalformedBox, typ, pos, n, len(data)-pos)
	}
	return int(n), typ, header, nil
}

// Codestream returns the codestream carried by a container: the jxlc box
// payload, or the jxlp partial boxes concatenated in order with their
// sequence numbers stripped. A bare codestream is returned as is.
func Codestream(data []byte) ([]byte, error) {
	if CheckSignature(data) == SignatureCodestream {
		return data, nil
	}
	boxes, err := Boxes(data)
	if err != nil {
		return nil, err
	}
	var out []byte
	partial := false
	for _, b := range boxes {
		switch b.Type {
		case "jxlc":
			if partial {
				return nil, fmt.Errorf("%w: jxlc mixed with jxlp", ErrMalformedBox)
			}
			return b.Data, nil
		case "jxlp":
			if len(b.Data) < 4 {
				return nil, fmt.Errorf("%w: jxlp without index", ErrMalformedBox)
			}
			partial = true
			out = append(out, b.Data[4:]...)
		}
	}
	if !partial {
		return nil, fmt.Errorf("%w: no codestream box", ErrMalformedBox)
	}
	return out, nil
}
