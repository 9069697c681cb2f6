package cmm

import (
	"encoding/binary"
	"testing"
)

func FuzzNewICCProfile(f *testing.F) {
	if data, err := SRGB().ICC(); err == nil {
		f.Add(data)
	}
	if data, err := LinearSRGB(true).ICC(); err == nil {
		f.Add(data)
	}
	f.Add(makeRGBProfile(2.2, 1, 0, 0, 0, 1, 0, 0, 0, 1))

	lut := make([]byte, 48+8*256+64)
	copy(lut, "mft1")
	lut[8], lut[9], lut[10] = 8, 1, 255
	mluc := make([]byte, 28)
	copy(mluc, "mluc")
	binary.BigEndian.PutUint32(mluc[8:], 0xFFFFFFFF)
	binary.BigEndian.PutUint32(mluc[12:], 0xFFFFFFFF)
	if data, err := EncodeProfile(Header{Class: "mntr", ColorSpace: "RGB ", PCS: "XYZ "}, []Tag{{Sig: "desc", Data: mluc}, {Sig: "A2B0", Data: lut}}); err == nil {
		f.Add(data)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := NewICCProfile(data)
		if err != nil {
			return
		}
		_ = p.Name()
		for _, sig := range p.Tags() {
			_, _ = p.ReadCurveTag(sig)
			_, _ = p.ReadXYZTag(sig)
			_, _ = p.ReadMatrixTag(sig)
			_, _ = p.ReadLUTTag(sig)
			_, _ = p.ReadTextTag(sig)
		}
		if m, err := newModel(p); err == nil {
			_, _ = m.toPCS([3]float64{0.25, 0.5, 0.75})
		}
		_ = p.Validate()
		srgb, err := SRGBProfile()
		if err != nil {
			t.Fatal(err)
		}
		px := []float32{0.5, 0.25, 1, 0.5}
		out := make([]byte, 4)
		_ = NewEngine().Transform(
			Buffer{Format: PixelFormatRGBAFFFF, Alpha: AlphaPremulAsEncoded, Profile: p, Float32: px},
			Buffer{Format: PixelFormatRGBA8888, Alpha: AlphaUnpremul, Profile: srgb, Bytes: out},
			1,
		)
		_, _ = p.Encode()
	})
}
