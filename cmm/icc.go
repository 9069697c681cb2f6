package cmm

import (
	"encoding/binary"
	"fmt"
)

const (
	iccHeaderSize   = 128
	iccTagEntrySize = 12
	maxProfileSize  = 4 * 1024 * 1024
	acspMagic       = 0x61637370 // 'acsp'
)

// Header holds the fixed 128-byte ICC profile header.
type Header struct {
	Size       uint32
	CMM        string
	Version    uint32
	Class      string
	ColorSpace string
	PCS        string
	Intent     RenderingIntent
	Illuminant [3]float64
	Creator    string
	ID         [16]byte
}

// VersionString formats the BCD-encoded version, e.g. "4.3.0".
func (h Header) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", h.Version>>24, h.Version>>20&0xF, h.Version>>16&0xF)
}

type tagEntry struct {
	offset uint32
	size   uint32
}

// ICCProfile implements Profile for ICC data.
type ICCProfile struct {
	data   []byte
	header Header
	tags   map[string]tagEntry
	order  []string
}

// NewICCProfile parses the header and tag table of an ICC profile. Tag
// payloads are decoded on demand; every tag entry must lie inside data.
func NewICCProfile(data []byte) (*ICCProfile, error) {
	if len(data) < iccHeaderSize+4 {
		return nil, ErrProfileTooShort
	}
	if len(data) > maxProfileSize {
		return nil, fmt.Errorf("%w (%d bytes, max %d)", ErrProfileTooLarge, len(data), maxProfileSize)
	}
	if sig := binary.BigEndian.Uint32(data[36:40]); sig != acspMagic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidSignature, sig)
	}
	size := binary.BigEndian.Uint32(data[0:4])
	if size < iccHeaderSize+4 || int64(size) > int64(len(data)) {
		return nil, fmt.Errorf("%w: declared size %d, have %d", ErrTruncatedProfile, size, len(data))
	}
	data = data[:size]

	p := &ICCProfile{data: data, tags: make(map[string]tagEntry)}
	p.header = Header{
		Size:       size,
		CMM:        string(data[4:8]),
		Version:    binary.BigEndian.Uint32(data[8:12]),
		Class:      string(data[12:16]),
		ColorSpace: string(data[16:20]),
		PCS:        string(data[20:24]),
		Intent:     RenderingIntent(binary.BigEndian.Uint32(data[64:68]) & 0xFFFF),
		Illuminant: [3]float64{
			s15Fixed16ToFloat(binary.BigEndian.Uint32(data[68:72])),
			s15Fixed16ToFloat(binary.BigEndian.Uint32(data[72:76])),
			s15Fixed16ToFloat(binary.BigEndian.Uint32(data[76:80])),
		},
		Creator: string(data[80:84]),
	}
	copy(p.header.ID[:], data[84:100])

	count := binary.BigEndian.Uint32(data[128:132])
	if int64(count)*iccTagEntrySize > int64(len(data)-132) {
		return nil, fmt.Errorf("%w: tag table of %d entries", ErrTruncatedProfile, count)
	}
	for i := 0; i < int(count); i++ {
		e := data[132+i*iccTagEntrySize:]
		sig := string(e[0:4])
		off := binary.BigEndian.Uint32(e[4:8])
		n := binary.BigEndian.Uint32(e[8:12])
		if int64(off)+int64(n) > int64(len(data)) || n < 8 {
			return nil, fmt.Errorf("%w: tag %q at %d+%d", ErrTruncatedProfile, sig, off, n)
		}
		if _, dup := p.tags[sig]; !dup {
			p.order = append(p.order, sig)
		}
		p.tags[sig] = tagEntry{offset: off, size: n}
	}
	return p, nil
}

func (p *ICCProfile) Name() string {
	if s, err := p.ReadTextTag("desc"); err == nil && s != "" {
		return s
	}
	return "ICC Profile"
}

func (p *ICCProfile) ColorSpace() string { return p.header.ColorSpace }
func (p *ICCProfile) Class() string      { return p.header.Class }
func (p *ICCProfile) PCS() string        { return p.header.PCS }
func (p *ICCProfile) Data() []byte       { return p.data }
func (p *ICCProfile) Header() Header     { return p.header }

// Tags returns the tag signatures in table order.
func (p *ICCProfile) Tags() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// GetTag returns the raw payload (type signature included) of a tag.
func (p *ICCProfile) GetTag(sig string) ([]byte, bool) {
	e, ok := p.tags[sig]
	if !ok {
		return nil, false
	}
	return p.data[e.offset : e.offset+e.size], true
}

func (p *ICCProfile) HasTag(sig string) bool {
	_, ok := p.tags[sig]
	return ok
}

// ReadXYZTag decodes the first value of an XYZType tag.
func (p *ICCProfile) ReadXYZTag(sig string) ([3]float64, error) {
	data, ok := p.GetTag(sig)
	if !ok {
		return [3]float64{}, fmt.Errorf("%w: %s", ErrTagNotFound, sig)
	}
	return decodeXYZ(data)
}

// ReadCurveTag decodes a curveType or parametricCurveType tag.
func (p *ICCProfile) ReadCurveTag(sig string) (*Curve, error) {
	data, ok := p.GetTag(sig)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, sig)
	}
	return DecodeCurve(data)
}

// ReadMatrixTag decodes an s15Fixed16ArrayType holding a 3x3 matrix ('chad').
func (p *ICCProfile) ReadMatrixTag(sig string) ([9]float64, error) {
	var m [9]float64
	data, ok := p.GetTag(sig)
	if !ok {
		return m, fmt.Errorf("%w: %s", ErrTagNotFound, sig)
	}
	if string(data[0:4]) != "sf32" {
		return m, fmt.Errorf("%w: %q in %s", ErrUnsupportedTagType, data[0:4], sig)
	}
	if len(data) < 8+9*4 {
		return m, fmt.Errorf("%w: %s", ErrTruncatedProfile, sig)
	}
	for i := range m {
		m[i] = s15Fixed16ToFloat(binary.BigEndian.Uint32(data[8+i*4:]))
	}
	return m, nil
}

func decodeXYZ(data []byte) ([3]float64, error) {
	var xyz [3]float64
	if string(data[0:4]) != "XYZ " {
		return xyz, fmt.Errorf("%w: %q", ErrUnsupportedTagType, data[0:4])
	}
	if len(data) < 20 {
		return xyz, fmt.Errorf("%w: XYZ tag", ErrTruncatedProfile)
	}
	for i := range xyz {
		xyz[i] = s15Fixed16ToFloat(binary.BigEndian.Uint32(data[8+i*4:]))
	}
	return xyz, nil
}

func s15Fixed16ToFloat(v uint32) float64 {
	return float64(int32(v)) / 65536.0
}

func floatToS15Fixed16(f float64) uint32 {
	if f >= 0 {
		return uint32(int32(f*65536.0 + 0.5))
	}
	return uint32(int32(f*65536.0 - 0.5))
}

func u8Fixed8ToFloat(v uint16) float64 {
	return float64(v) / 256.0
}
