package cmm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// ReadTextTag decodes a textual tag. multiLocalizedUnicodeType ('mluc'),
// textDescriptionType ('desc') and textType ('text') are understood; for
// mluc the en-US record is preferred, then the first record.
func (p *ICCProfile) ReadTextTag(sig string) (string, error) {
	data, ok := p.GetTag(sig)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTagNotFound, sig)
	}
	return decodeText(data)
}

func decodeText(data []byte) (string, error) {
	switch string(data[0:4]) {
	case "text":
		return cString(data[8:]), nil
	case "desc":
		if len(data) < 12 {
			return "", fmt.Errorf("%w: desc tag", ErrTruncatedProfile)
		}
		n := binary.BigEndian.Uint32(data[8:12])
		if int64(n) > int64(len(data)-12) {
			return "", fmt.Errorf("%w: desc ASCII length %d", ErrTruncatedProfile, n)
		}
		return cString(data[12 : 12+n]), nil
	case "mluc":
		return decodeMLUC(data)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedTagType, data[0:4])
}

func decodeMLUC(data []byte) (string, error) {
	if len(data) < 16 {
		return "", fmt.Errorf("%w: mluc tag", ErrTruncatedProfile)
	}
	count := int(binary.BigEndian.Uint32(data[8:12]))
	recSize := int(binary.BigEndian.Uint32(data[12:16]))
	if count == 0 {
		return "", nil
	}
	if recSize < 12 || count > (len(data)-16)/recSize {
		return "", fmt.Errorf("%w: mluc records", ErrTruncatedProfile)
	}
	pick := 0
	for i := 0; i < count; i++ {
		rec := data[16+i*recSize:]
		if string(rec[0:4]) == "enUS" {
			pick = i
			break
		}
	}
	rec := data[16+pick*recSize:]
	n := binary.BigEndian.Uint32(rec[4:8])
	off := binary.BigEndian.Uint32(rec[8:12])
	if int64(off)+int64(n) > int64(len(data)) {
		return "", fmt.Errorf("%w: mluc string", ErrTruncatedProfile)
	}
	s, err := utf16BE.NewDecoder().Bytes(data[off : off+n])
	if err != nil {
		return "", fmt.Errorf("mluc string: %w", err)
	}
	return string(bytes.TrimRight(s, "\x00")), nil
}

// encodeMLUC builds a single-record (en-US) multiLocalizedUnicodeType tag.
func encodeMLUC(s string) ([]byte, error) {
	u, err := utf16BE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("mluc string: %w", err)
	}
	b := make([]byte, 28+len(u))
	copy(b, "mluc")
	binary.BigEndian.PutUint32(b[8:], 1)
	binary.BigEndian.PutUint32(b[12:], 12)
	copy(b[16:], "enUS")
	binary.BigEndian.PutUint32(b[20:], uint32(len(u)))
	binary.BigEndian.PutUint32(b[24:], 28)
	copy(b[28:], u)
	return b, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
