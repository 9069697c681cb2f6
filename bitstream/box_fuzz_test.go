package bitstream

import "testing"

func FuzzBoxes(f *testing.F) {
	f.Add(append(append([]byte(nil), containerSignature...), 0, 0, 0, 10, 'j', 'x', 'l', 'c', 0xFF, 0x0A))
	f.Add([]byte{0xFF, 0x0A, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		boxes, err := Boxes(data)
		if err == nil {
			total := 0
			for _, b := range boxes {
				total += b.Size
			}
			if total != len(data) {
				t.Fatalf("boxes cover %d of %d bytes", total, len(data))
			}
		}
		_, _ = Codestream(data)
	})
}
