package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/wudi/jxlkit/cmm"
	"github.com/wudi/jxlkit/decode"
	"github.com/wudi/jxlkit/observability"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-o", "out.tiff", "-max-dim", "64", "-max-pixels", "100", "in.jxl"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if opts.inPath != "in.jxl" || opts.outPath != "out.tiff" || opts.maxDim != 64 || opts.limits.MaxPixels != 100 {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.info {
		t.Error("info should default off when an output is requested")
	}

	opts, err = parseFlags([]string{"in.jxl"})
	if err != nil {
		t.Fatal(err)
	}
	if !opts.info {
		t.Error("info should default on without other actions")
	}

	for _, args := range [][]string{{}, {"-o", "out.gif", "in.jxl"}, {"-max-dim", "-1", "in.jxl"}} {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 30, A: 255})
		}
	}
	return img
}

func TestEncodeFormats(t *testing.T) {
	img := testImage()
	decoders := map[string]func(*bytes.Reader) (image.Image, error){
		"out.png":  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		"out.bmp":  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		"out.TIFF": func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}
	for name, dec := range decoders {
		f, err := formatFor(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		var buf bytes.Buffer
		if err := encode(&buf, img, f); err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		got, err := dec(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if got.Bounds() != img.Bounds() {
			t.Errorf("%s: bounds %v", name, got.Bounds())
		}
		r, g, b, _ := got.At(5, 5).RGBA()
		if r>>8 != 200 || g>>8 != 10 || b>>8 != 30 {
			t.Errorf("%s: unexpected colour %d %d %d", name, r>>8, g>>8, b>>8)
		}
	}
}

func TestDownscale(t *testing.T) {
	img := testImage()
	if got := downscale(img, 0); got != image.Image(img) {
		t.Error("maxDim 0 should return the input")
	}
	if got := downscale(img, 100); got != image.Image(img) {
		t.Error("small image should be returned unchanged")
	}
	got := downscale(img, 10)
	if got.Bounds().Dx() != 10 || got.Bounds().Dy() != 5 {
		t.Errorf("unexpected bounds %v", got.Bounds())
	}
	if r, _, _, _ := got.At(3, 2).RGBA(); r>>8 < 195 {
		t.Errorf("resampled colour drifted: %d", r>>8)
	}
}

func TestPrintInfo(t *testing.T) {
	icc, err := cmm.SRGB().ICC()
	if err != nil {
		t.Fatal(err)
	}
	info := &decode.Info{ICC: icc}
	info.Width, info.Height = 3, 4
	var buf bytes.Buffer
	printInfo(&buf, []byte{0xFF, 0x0A}, info)
	out := buf.String()
	for _, want := range []string{"size: 3 x 4", `profile: "RGB_D65_SRG_Rel_SRG"`, "samples delivered in: RGB_D65_SRG_Rel_Lin", "signature: codestream", "codestream: 2 bytes", "Lab 100.00", "device white in sRGB: 1.0000 1.0000 1.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jxl")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	err := run(options{inPath: path, sum: true}, &buf)
	if decode.KindOf(err) != decode.MalformedStream {
		t.Fatalf("expected MalformedStream, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

type recordingLogger struct {
	observability.NopLogger
	msgs   []string
	fields map[string]interface{}
}

func (l *recordingLogger) Debug(msg string, fields ...observability.Field) {
	l.msgs = append(l.msgs, msg)
	for _, f := range fields {
		l.fields[f.Key()] = f.Value()
	}
}

func TestLogFailure(t *testing.T) {
	l := &recordingLogger{fields: map[string]interface{}{}}
	_, err := decode.Decode(nil)
	logFailure(l, "decode", err)
	if len(l.msgs) != 1 || l.msgs[0] != "decode failed" {
		t.Fatalf("unexpected messages %v", l.msgs)
	}
	if l.fields["kind"] != "malformed stream" {
		t.Errorf("unexpected kind %v", l.fields["kind"])
	}
	if got, ok := l.fields["error"].(error); !ok || !errors.Is(got, decode.ErrNoImage) {
		t.Errorf("unexpected error field %v", l.fields["error"])
	}
}
