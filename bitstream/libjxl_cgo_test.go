//go:build libjxl && cgo

package bitstream

import (
	"errors"
	"os"
	"testing"
)

func TestNativeRejectsGarbage(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if err := d.SubscribeEvents(EventBasicInfo | EventColorEncoding | EventFullImage); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := d.SetInput([]byte{0xFF, 0x0A, 0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("set input: %v", err)
	}
	d.CloseInput()
	if st := d.ProcessInput(); st == StatusBasicInfo || st == StatusSuccess {
		t.Fatalf("garbage codestream reported %s", st)
	}
}

func TestNativeClose(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := d.BasicInfo(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if st := d.ProcessInput(); st != StatusError {
		t.Fatalf("expected error status after close, got %s", st)
	}
}

// JXL_TEST_FILE names a real image to run through the full milestone
// sequence.
func TestNativeMilestones(t *testing.T) {
	path := os.Getenv("JXL_TEST_FILE")
	if path == "" {
		t.Skip("JXL_TEST_FILE not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if err := d.SubscribeEvents(EventBasicInfo | EventColorEncoding | EventFullImage); err != nil {
		t.Fatal(err)
	}
	if err := d.SetInput(data); err != nil {
		t.Fatal(err)
	}
	d.CloseInput()

	if st := d.ProcessInput(); st != StatusBasicInfo {
		t.Fatalf("expected basic info, got %s", st)
	}
	info, err := d.BasicInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Width == 0 || info.Height == 0 {
		t.Fatalf("empty dimensions %dx%d", info.Width, info.Height)
	}

	if st := d.ProcessInput(); st != StatusColorEncoding {
		t.Fatalf("expected color encoding, got %s", st)
	}
	size, err := d.ICCProfileSize(TargetData)
	if err != nil || size < 128 {
		t.Fatalf("profile size %d: %v", size, err)
	}
	icc := make([]byte, size)
	if err := d.ICCProfile(TargetData, icc); err != nil {
		t.Fatal(err)
	}

	n, err := d.ImageOutBufferSize(RGBAFloat)
	if err != nil {
		t.Fatal(err)
	}
	if want := int(info.Width) * int(info.Height) * 16; n != want {
		t.Fatalf("buffer size %d, want %d", n, want)
	}
	buf := make([]float32, n/4)
	if err := d.SetImageOutBuffer(RGBAFloat, buf); err != nil {
		t.Fatal(err)
	}
	if st := d.ProcessInput(); st != StatusFullImage {
		t.Fatalf("expected full image, got %s", st)
	}
}
