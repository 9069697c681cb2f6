package bitstream

import (
	"encoding/binary"
	"errors"
	"testing"
)

func box(typ string, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(b, uint32(8+len(payload)))
	copy(b[4:], typ)
	return append(b, payload...)
}

func container(boxes ...[]byte) []byte {
	out := append([]byte(nil), containerSignature...)
	for _, b := range boxes {
		out = append(out, b...)
	}
	return out
}

func TestBoxes(t *testing.T) {
	data := container(
		box("ftyp", []byte("jxl \x00\x00\x00\x00jxl ")),
		box("Exif", []byte{0, 0, 0, 0, 'M', 'M'}),
		box("jxlc", []byte{0xFF, 0x0A, 1, 2}),
	)
	boxes, err := Boxes(data)
	if err != nil {
		t.Fatalf("Boxes failed: %v", err)
	}
	want := []string{"JXL ", "ftyp", "Exif", "jxlc"}
	if len(boxes) != len(want) {
		t.Fatalf("expected %d boxes, got %+v", len(want), boxes)
	}
	for i, b := range boxes {
		if b.Type != want[i] {
			t.Errorf("box %d: expected %q, got %q", i, want[i], b.Type)
		}
	}
	if got := boxes[3].Data; len(got) != 4 || got[0] != 0xFF {
		t.Errorf("unexpected jxlc payload %v", got)
	}

	cs, err := Codestream(data)
	if err != nil {
		t.Fatalf("Codestream failed: %v", err)
	}
	if CheckSignature(cs) != SignatureCodestream {
		t.Errorf("codestream does not start with a signature: %v", cs)
	}
}

func TestBoxesToEndOfFile(t *testing.T) {
	tail := box("jxlc", []byte{0xFF, 0x0A, 9})
	binary.BigEndian.PutUint32(tail, 0)
	boxes, err := Boxes(container(tail))
	if err != nil {
		t.Fatalf("Boxes failed: %v", err)
	}
	if last := boxes[len(boxes)-1]; last.Size != 11 || len(last.Data) != 3 {
		t.Errorf("unexpected last box %+v", last)
	}
}

func TestBoxesExtendedSize(t *testing.T) {
	b := make([]byte, 16, 20)
	binary.BigEndian.PutUint32(b, 1)
	copy(b[4:], "jxlc")
	binary.BigEndian.PutUint64(b[8:], 20)
	b = append(b, 0xFF, 0x0A, 0, 0)
	boxes, err := Boxes(container(b))
	if err != nil {
		t.Fatalf("Boxes failed: %v", err)
	}
	if got := boxes[1]; got.Size != 20 || len(got.Data) != 4 {
		t.Errorf("unexpected box %+v", got)
	}
}

func TestCodestreamPartial(t *testing.T) {
	data := container(
		box("jxlp", []byte{0, 0, 0, 0, 0xFF, 0x0A}),
		box("jxlp", []byte{0x80, 0, 0, 1, 7, 8}),
	)
	cs, err := Codestream(data)
	if err != nil {
		t.Fatalf("Codestream failed: %v", err)
	}
	if string(cs) != string([]byte{0xFF, 0x0A, 7, 8}) {
		t.Errorf("unexpected codestream %v", cs)
	}

	bare := []byte{0xFF, 0x0A, 3}
	if cs, err := Codestream(bare); err != nil || len(cs) != 3 {
		t.Errorf("bare codestream: %v %v", cs, err)
	}
}

func TestBoxesErrors(t *testing.T) {
	oversized := box("jxlc", []byte{1, 2})
	binary.BigEndian.PutUint32(oversized, 100)
	tiny := box("jxlc", nil)
	binary.BigEndian.PutUint32(tiny, 4)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"codestream", []byte{0xFF, 0x0A}, ErrNotContainer},
		{"oversized box", container(oversized), ErrMalformedBox},
		{"size below header", container(tiny), ErrMalformedBox},
		{"trailing bytes", container([]byte{0, 0, 0}), ErrMalformedBox},
		{"no codestream", container(box("Exif", []byte{0, 0, 0, 0})), ErrMalformedBox},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Codestream(tc.data)
			if tc.name != "codestream" {
				if !errors.Is(err, tc.want) {
					t.Fatalf("Codestream: expected %v, got %v", tc.want, err)
				}
			}
			if tc.name == "no codestream" {
				return
			}
			if _, err := Boxes(tc.data); !errors.Is(err, tc.want) {
				t.Fatalf("Boxes: expected %v, got %v", tc.want, err)
			}
		})
	}
}
