package cmm

import (
	"bytes"
	"math"
	"testing"
)

func TestColorEncodingDescription(t *testing.T) {
	tests := []struct {
		enc  ColorEncoding
		want string
	}{
		{SRGB(), "RGB_D65_SRG_Rel_SRG"},
		{LinearSRGB(false), "RGB_D65_SRG_Rel_Lin"},
		{LinearSRGB(true), "Gra_D65_Rel_Lin"},
	}
	for _, tc := range tests {
		if got := tc.enc.Description(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestLinearSRGBProfile(t *testing.T) {
	data, err := LinearSRGB(false).ICC()
	if err != nil {
		t.Fatalf("ICC failed: %v", err)
	}
	p, err := NewICCProfile(data)
	if err != nil {
		t.Fatalf("synthesized profile does not parse: %v", err)
	}
	if p.ColorSpace() != "RGB " || p.PCS() != "XYZ " || p.Class() != "mntr" {
		t.Errorf("unexpected header %+v", p.Header())
	}
	if v := p.Header().VersionString(); v != "4.3.0" {
		t.Errorf("expected version 4.3.0, got %s", v)
	}
	if p.Name() != "RGB_D65_SRG_Rel_Lin" {
		t.Errorf("unexpected description %q", p.Name())
	}

	wantCols := map[string][3]float64{
		"rXYZ": {0.4361, 0.2225, 0.0139},
		"gXYZ": {0.3851, 0.7169, 0.0971},
		"bXYZ": {0.1431, 0.0606, 0.7141},
	}
	var sum [3]float64
	for sig, want := range wantCols {
		got, err := p.ReadXYZTag(sig)
		if err != nil {
			t.Fatalf("%s: %v", sig, err)
		}
		for i := range want {
			sum[i] += got[i]
			if math.Abs(got[i]-want[i]) > 1e-3 {
				t.Errorf("%s[%d]: expected %v, got %v", sig, i, want[i], got[i])
			}
		}
	}
	for i := range sum {
		if math.Abs(sum[i]-D50[i]) > 1e-3 {
			t.Errorf("colorants do not sum to D50: %v", sum)
		}
	}

	trc, err := p.ReadCurveTag("gTRC")
	if err != nil {
		t.Fatal(err)
	}
	if !trc.IsIdentity() {
		t.Error("linear profile TRC is not the identity")
	}
	if _, err := p.ReadMatrixTag("chad"); err != nil {
		t.Errorf("chad: %v", err)
	}

	again, err := LinearSRGB(false).ICC()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("synthesis is not deterministic")
	}
}

func TestLinearGrayProfile(t *testing.T) {
	data, err := LinearSRGB(true).ICC()
	if err != nil {
		t.Fatalf("ICC failed: %v", err)
	}
	p, err := NewICCProfile(data)
	if err != nil {
		t.Fatal(err)
	}
	if p.ColorSpace() != "GRAY" {
		t.Errorf("expected GRAY, got %q", p.ColorSpace())
	}
	if !p.HasTag("kTRC") || p.HasTag("rXYZ") {
		t.Errorf("unexpected tags %v", p.Tags())
	}
}

func TestColorEncodingInvalidGamma(t *testing.T) {
	enc := SRGB()
	enc.Transfer = TransferGamma
	if _, err := enc.ICC(); err == nil {
		t.Error("expected error for zero gamma")
	}
	enc.Gamma = 2.2
	if _, err := enc.ICC(); err != nil {
		t.Errorf("gamma 2.2: %v", err)
	}
}
