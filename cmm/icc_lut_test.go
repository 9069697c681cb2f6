package cmm

import (
	"errors"
	"testing"
)

func TestInterpCLUT3D(t *testing.T) {
	// Create a simple 2x2x2 grid (8 points)
	gridPoints := 2

	// Table data (8 points * 1 output channel)
	// Index = ix * G^2 + iy * G + iz
	// We want output = x*10 + y*20 + z*40
	// x,y,z are 0 or 1 (indices)

	table := make([]float64, 8)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				val := float64(x*10 + y*20 + z*40)
				idx := x*4 + y*2 + z
				table[idx] = val
			}
		}
	}

	// Test cases
	tests := []struct {
		in  []float64
		out float64
	}{
		{[]float64{0, 0, 0}, 0},
		{[]float64{1, 0, 0}, 10},
		{[]float64{0, 1, 0}, 20},
		{[]float64{0, 0, 1}, 40},
		{[]float64{1, 1, 1}, 70},
		{[]float64{0.5, 0, 0}, 5},
		{[]float64{0, 0.5, 0}, 10},
		{[]float64{0, 0, 0.5}, 20},
		{[]float64{0.5, 0.5, 0}, 15},   // 0.5*10 + 0.5*20 = 15
		{[]float64{0.5, 0.5, 0.5}, 35}, // 5 + 10 + 20 = 35
	}

	for _, tc := range tests {
		res := interpCLUT3D(tc.in, table, 1, gridPoints) // 1 output channel
		if len(res) != 1 {
			t.Errorf("Expected 1 output, got %d", len(res))
			continue
		}
		// Allow small error for float math
		diff := res[0] - tc.out
		if diff < -0.001 || diff > 0.001 {
			t.Errorf("Input %v: expected %v, got %v", tc.in, tc.out, res[0])
		}
	}
}

func TestInterpCLUTMultilinear(t *testing.T) {
	// 2x2x2x2 grid holding f = 1*a + 2*b + 4*c + 8*d, first input slowest.
	table := make([]float64, 16)
	for i := range table {
		a, b, c, d := i>>3&1, i>>2&1, i>>1&1, i&1
		table[i] = float64(a + 2*b + 4*c + 8*d)
	}
	tests := []struct {
		in  []float64
		out float64
	}{
		{[]float64{0, 0, 0, 0}, 0},
		{[]float64{1, 1, 1, 1}, 15},
		{[]float64{0.5, 0, 0, 0}, 0.5},
		{[]float64{0, 0, 0, 0.25}, 2},
		{[]float64{0.5, 0.5, 0.5, 0.5}, 7.5},
		{[]float64{2, -1, 0, 0}, 1},
	}
	for _, tc := range tests {
		res := interpCLUT(tc.in, table, 4, 1, 2)
		if diff := res[0] - tc.out; diff < -0.001 || diff > 0.001 {
			t.Errorf("Input %v: expected %v, got %v", tc.in, tc.out, res[0])
		}
	}
}

func TestReadLUTTagMFT1(t *testing.T) {
	// 1 input, 3 outputs, 2 grid points; gray to PCS XYZ.
	b := make([]byte, 48, 48+256+6+3*256)
	copy(b, "mft1")
	b[8], b[9], b[10] = 1, 3, 2
	for i := 0; i < 256; i++ {
		b = append(b, byte(i))
	}
	b = append(b, 0, 0, 0, 100, 128, 100)
	for c := 0; c < 3; c++ {
		for i := 0; i < 256; i++ {
			b = append(b, byte(i))
		}
	}
	data, err := EncodeProfile(Header{Class: "mntr", ColorSpace: "GRAY", PCS: "XYZ "}, []Tag{{Sig: "A2B0", Data: b}})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewICCProfile(data)
	if err != nil {
		t.Fatal(err)
	}
	lut, err := p.ReadLUTTag("A2B0")
	if err != nil {
		t.Fatalf("ReadLUTTag failed: %v", err)
	}
	if lut.Legacy16 || lut.ApplyMatrix {
		t.Errorf("unexpected flags %+v", lut)
	}
	out, err := lut.Convert([]float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if diff := out[1] - 128.0/255; diff < -0.001 || diff > 0.001 {
		t.Errorf("expected Y %v, got %v", 128.0/255, out[1])
	}
	if _, err := lut.Convert([]float64{1, 1}); err == nil {
		t.Error("expected channel mismatch error")
	}

	trunc, err := EncodeProfile(Header{Class: "mntr", ColorSpace: "GRAY", PCS: "XYZ "}, []Tag{{Sig: "A2B0", Data: b[:300]}})
	if err != nil {
		t.Fatal(err)
	}
	p, err = NewICCProfile(trunc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ReadLUTTag("A2B0"); err == nil {
		t.Error("expected error for truncated LUT")
	}
}

func TestReadLUTTagGridOverflow(t *testing.T) {
	// 8 inputs on a 255-point grid: the CLUT size does not fit in an int.
	b := make([]byte, 48, 48+8*256+64)
	copy(b, "mft1")
	b[8], b[9], b[10] = 8, 1, 255
	b = append(b, make([]byte, 8*256+64)...)

	data, err := EncodeProfile(Header{Class: "mntr", ColorSpace: "RGB ", PCS: "XYZ "}, []Tag{{Sig: "A2B0", Data: b}})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewICCProfile(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ReadLUTTag("A2B0"); !errors.Is(err, ErrTruncatedProfile) {
		t.Fatalf("expected ErrTruncatedProfile, got %v", err)
	}
	if err := p.Validate(); !errors.Is(err, ErrTruncatedProfile) {
		t.Fatalf("Validate: expected ErrTruncatedProfile, got %v", err)
	}
}
