package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/wudi/jxlkit/bitstream"
	"github.com/wudi/jxlkit/cmm"
	"github.com/wudi/jxlkit/decode"
	"github.com/wudi/jxlkit/observability"
)

type options struct {
	inPath  string
	outPath string
	info    bool
	sum     bool
	verbose bool
	maxDim  int
	limits  decode.Limits
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "jxldecode: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "jxldecode: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("jxldecode", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: jxldecode [flags] <in.jxl>\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.outPath, "o", "", "Write the decoded image (.png, .bmp, .tif or .tiff)")
	fs.BoolVar(&opts.info, "info", false, "Print header, profile and container boxes")
	fs.BoolVar(&opts.sum, "sum", false, "Print the BLAKE2b-256 digest of the decoded RGBA pixels")
	fs.BoolVar(&opts.verbose, "v", false, "Log decode stages")
	fs.IntVar(&opts.maxDim, "max-dim", 0, "Downscale so neither side exceeds this many pixels")
	fs.IntVar(&opts.limits.MaxWidth, "max-width", 0, "Reject images wider than this (0 = default)")
	fs.IntVar(&opts.limits.MaxHeight, "max-height", 0, "Reject images taller than this (0 = default)")
	fs.Int64Var(&opts.limits.MaxPixels, "max-pixels", 0, "Reject images with more pixels than this (0 = default)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errors.New("missing input path")
	}
	opts.inPath = fs.Arg(0)
	if opts.outPath != "" {
		if _, err := formatFor(opts.outPath); err != nil {
			return options{}, err
		}
	}
	if opts.maxDim < 0 {
		return options{}, fmt.Errorf("invalid -max-dim %d", opts.maxDim)
	}
	if !opts.info && !opts.sum && opts.outPath == "" {
		opts.info = true
	}
	return opts, nil
}

func newLogger(verbose bool) observability.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return observability.NewLogrusLogger(l)
}

// logFailure records the failure class at debug level; main prints the
// error itself.
func logFailure(logger observability.Logger, op string, err error) {
	logger.Debug(op+" failed", observability.String("kind", decode.KindOf(err).String()), observability.Error("error", err))
}

func run(opts options, stdout io.Writer) error {
	data, err := os.ReadFile(opts.inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	logger := newLogger(opts.verbose).With(observability.String("file", filepath.Base(opts.inPath)))
	dec := decode.New(decode.Config{Limits: opts.limits, Logger: logger})
	ctx := context.Background()

	if opts.info {
		info, err := dec.Probe(ctx, data)
		if err != nil {
			logFailure(logger, "probe", err)
			return fmt.Errorf("probe: %w", err)
		}
		printInfo(stdout, data, info)
	}
	if !opts.sum && opts.outPath == "" {
		return nil
	}

	img, err := dec.Decode(ctx, data)
	if err != nil {
		logFailure(logger, "decode", err)
		return fmt.Errorf("decode: %w", err)
	}
	if opts.sum {
		sum := blake2b.Sum256(img.Pix)
		fmt.Fprintf(stdout, "%s  %s\n", hex.EncodeToString(sum[:]), opts.inPath)
	}
	if opts.outPath == "" {
		return nil
	}
	out := downscale(img.NRGBA(), opts.maxDim)
	if out.Bounds().Dx() != img.Width {
		logger.Info("downscaled", observability.Int("width", out.Bounds().Dx()), observability.Int("height", out.Bounds().Dy()))
	}
	return writeImage(opts.outPath, out)
}

func printInfo(w io.Writer, data []byte, info *decode.Info) {
	fmt.Fprintf(w, "size: %d x %d\n", info.Width, info.Height)
	fmt.Fprintf(w, "bits per sample: %d", info.BitsPerSample)
	if info.ExponentBitsPerSample > 0 {
		fmt.Fprintf(w, " (float, %d exponent bits)", info.ExponentBitsPerSample)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "color channels: %d, extra channels: %d, alpha bits: %d\n", info.NumColorChannels, info.NumExtraChannels, info.AlphaBits)
	fmt.Fprintf(w, "alpha premultiplied: %t\n", info.AlphaPremultiplied)
	fmt.Fprintf(w, "uses original profile: %t\n", info.UsesOriginalProfile)
	fmt.Fprintf(w, "animation: %t, orientation: %d\n", info.HaveAnimation, info.Orientation)
	if p, err := info.Profile(); err == nil {
		h := p.Header()
		fmt.Fprintf(w, "profile: %q (%d bytes, v%s, %s %s -> %s)\n", p.Name(), len(info.ICC), h.VersionString(), strings.TrimSpace(h.Class), strings.TrimSpace(h.ColorSpace), strings.TrimSpace(h.PCS))
		if wtpt, err := p.ReadXYZTag("wtpt"); err == nil {
			lab := cmm.XYZToLab(wtpt[:])
			fmt.Fprintf(w, "media white: XYZ %.4f %.4f %.4f, Lab %.2f %.2f %.2f\n", wtpt[0], wtpt[1], wtpt[2], lab[0], lab[1], lab[2])
		}
		if white, err := whiteInSRGB(p); err == nil {
			fmt.Fprintf(w, "device white in sRGB: %.4f %.4f %.4f\n", white[0], white[1], white[2])
		}
	} else {
		fmt.Fprintf(w, "profile: %d bytes, unreadable: %v\n", len(info.ICC), err)
	}
	if !info.UsesOriginalProfile {
		fmt.Fprintf(w, "samples delivered in: %s\n", cmm.LinearSRGB(false).Description())
	}
	fmt.Fprintf(w, "signature: %s\n", bitstream.CheckSignature(data))
	if cs, err := bitstream.Codestream(data); err == nil {
		fmt.Fprintf(w, "codestream: %d bytes\n", len(cs))
	} else {
		fmt.Fprintf(w, "codestream: %v\n", err)
	}
	boxes, err := bitstream.Boxes(data)
	if err != nil {
		return
	}
	for _, b := range boxes {
		fmt.Fprintf(w, "box %q at %d, %d bytes\n", b.Type, b.Offset, b.Size)
	}
}

// whiteInSRGB maps the profile's device white to encoded sRGB.
func whiteInSRGB(p *cmm.ICCProfile) ([]float64, error) {
	srgb, err := cmm.SRGBProfile()
	if err != nil {
		return nil, err
	}
	xf, err := cmm.NewFactory().NewTransform(p, srgb, cmm.IntentRelativeColorimetric)
	if err != nil {
		return nil, err
	}
	in := []float64{1, 1, 1}
	if p.ColorSpace() == "GRAY" {
		in = in[:1]
	}
	out, err := xf.Convert(in)
	if err != nil {
		return nil, err
	}
	if len(out) == 1 {
		out = []float64{out[0], out[0], out[0]}
	}
	return out, nil
}

type outputFormat int

const (
	formatPNG outputFormat = iota
	formatBMP
	formatTIFF
)

func formatFor(path string) (outputFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return formatPNG, nil
	case ".bmp":
		return formatBMP, nil
	case ".tif", ".tiff":
		return formatTIFF, nil
	}
	return 0, fmt.Errorf("unsupported output extension %q", filepath.Ext(path))
}

func encode(w io.Writer, img image.Image, f outputFormat) error {
	switch f {
	case formatBMP:
		return bmp.Encode(w, img)
	case formatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return png.Encode(w, img)
}

func writeImage(path string, img image.Image) error {
	f, err := formatFor(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encode(file, img, f); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}

// downscale fits img within maxDim x maxDim keeping its aspect ratio. Images
// already small enough, or maxDim 0, are returned unchanged.
func downscale(img *image.NRGBA, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
