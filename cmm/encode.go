package cmm

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// Tag is one tagged element of a profile under construction.
type Tag struct {
	Sig  string
	Data []byte
}

// profileDate is written into every synthesized header so identical inputs
// serialise to identical bytes.
var profileDate = [6]uint16{2019, 12, 1, 0, 0, 0}

// EncodeProfile serialises a header and tag list. Size, magic, tag table
// and profile ID are computed; identical payloads share one offset.
func EncodeProfile(h Header, tags []Tag) ([]byte, error) {
	for _, f := range []string{h.Class, h.ColorSpace, h.PCS} {
		if len(f) != 4 {
			return nil, fmt.Errorf("cmm: header signature %q is not 4 bytes", f)
		}
	}
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if len(t.Sig) != 4 {
			return nil, fmt.Errorf("cmm: tag signature %q is not 4 bytes", t.Sig)
		}
		if seen[t.Sig] {
			return nil, fmt.Errorf("cmm: duplicate tag %q", t.Sig)
		}
		if len(t.Data) < 8 {
			return nil, fmt.Errorf("cmm: tag %q payload too short", t.Sig)
		}
		seen[t.Sig] = true
	}

	table := iccHeaderSize + 4 + iccTagEntrySize*len(tags)
	var body bytes.Buffer
	type placed struct{ off, size uint32 }
	entries := make([]placed, len(tags))
	for i, t := range tags {
		shared := -1
		for j := 0; j < i; j++ {
			if bytes.Equal(tags[j].Data, t.Data) {
				shared = j
				break
			}
		}
		if shared >= 0 {
			entries[i] = entries[shared]
			continue
		}
		entries[i] = placed{off: uint32(table + body.Len()), size: uint32(len(t.Data))}
		body.Write(t.Data)
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
	}

	out := make([]byte, table+body.Len())
	binary.BigEndian.PutUint32(out[0:], uint32(len(out)))
	copy(out[4:8], padSig(h.CMM))
	binary.BigEndian.PutUint32(out[8:], h.Version)
	copy(out[12:16], h.Class)
	copy(out[16:20], h.ColorSpace)
	copy(out[20:24], h.PCS)
	for i, v := range profileDate {
		binary.BigEndian.PutUint16(out[24+2*i:], v)
	}
	binary.BigEndian.PutUint32(out[36:], acspMagic)
	binary.BigEndian.PutUint32(out[64:], uint32(h.Intent))
	ill := h.Illuminant
	if ill == ([3]float64{}) {
		ill = D50
	}
	for i, v := range ill {
		binary.BigEndian.PutUint32(out[68+4*i:], floatToS15Fixed16(v))
	}
	copy(out[80:84], padSig(h.Creator))

	binary.BigEndian.PutUint32(out[128:], uint32(len(tags)))
	for i, t := range tags {
		e := out[132+i*iccTagEntrySize:]
		copy(e[0:4], t.Sig)
		binary.BigEndian.PutUint32(e[4:], entries[i].off)
		binary.BigEndian.PutUint32(e[8:], entries[i].size)
	}
	copy(out[table:], body.Bytes())

	id := profileID(out)
	copy(out[84:100], id[:])
	return out, nil
}

// Encode re-serialises the profile from its parsed header and tags.
func (p *ICCProfile) Encode() ([]byte, error) {
	tags := make([]Tag, 0, len(p.order))
	for _, sig := range p.order {
		data, _ := p.GetTag(sig)
		tags = append(tags, Tag{Sig: sig, Data: data})
	}
	return EncodeProfile(p.header, tags)
}

// profileID computes the MD5 profile ID over the profile with the flags,
// rendering intent and ID fields zeroed.
func profileID(profile []byte) [16]byte {
	tmp := make([]byte, len(profile))
	copy(tmp, profile)
	clear(tmp[44:48])
	clear(tmp[64:68])
	clear(tmp[84:100])
	return md5.Sum(tmp)
}

func padSig(s string) []byte {
	b := []byte{0, 0, 0, 0}
	copy(b, s)
	return b
}

func encodeXYZ(xyz [3]float64) []byte {
	b := make([]byte, 20)
	copy(b, "XYZ ")
	for i, v := range xyz {
		binary.BigEndian.PutUint32(b[8+4*i:], floatToS15Fixed16(v))
	}
	return b
}

func encodeMatrix(m [9]float64) []byte {
	b := make([]byte, 8+9*4)
	copy(b, "sf32")
	for i, v := range m {
		binary.BigEndian.PutUint32(b[8+4*i:], floatToS15Fixed16(v))
	}
	return b
}
