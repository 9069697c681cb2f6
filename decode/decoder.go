// Package decode turns a JPEG XL bytestream into 8-bit sRGB RGBA pixels
// with straight alpha. The bitstream decoder is driven through its
// milestones (basic info, colour encoding, full image), the samples' colour
// profile is resolved, and a colour transform writes the output.
//
// A decode either returns a complete image or an error matching
// ErrNoImage; partial pixels are never exposed.
package decode

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/wudi/jxlkit/bitstream"
	"github.com/wudi/jxlkit/cmm"
	"github.com/wudi/jxlkit/observability"
)

// Transformer converts pixel buffers between profiles. *cmm.Engine
// implements it.
type Transformer interface {
	Transform(src, dst cmm.Buffer, n int) error
}

// Config configures a Decoder. The zero value is usable.
type Config struct {
	Limits Limits
	Logger observability.Logger
	Tracer observability.Tracer
	// NewBitstream creates one bitstream decoder per call. Defaults to
	// bitstream.New.
	NewBitstream func() (bitstream.Decoder, error)
	// Engine defaults to cmm.NewEngine().
	Engine Transformer
}

// Decoder decodes images. It holds only configuration and is safe for
// concurrent use; every call owns its own bitstream decoder and buffers.
type Decoder struct {
	limits       Limits
	logger       observability.Logger
	tracer       observability.Tracer
	newBitstream func() (bitstream.Decoder, error)
	engine       Transformer
}

// New returns a Decoder for cfg.
func New(cfg Config) *Decoder {
	d := &Decoder{
		limits:       cfg.Limits.withDefaults(),
		logger:       cfg.Logger,
		tracer:       cfg.Tracer,
		newBitstream: cfg.NewBitstream,
		engine:       cfg.Engine,
	}
	if d.logger == nil {
		d.logger = observability.NopLogger{}
	}
	if d.tracer == nil {
		d.tracer = observability.NopTracer()
	}
	if d.newBitstream == nil {
		d.newBitstream = bitstream.New
	}
	if d.engine == nil {
		d.engine = cmm.NewEngine()
	}
	return d
}

var defaultDecoder = New(Config{})

// Decode decodes data with the default configuration.
func Decode(data []byte) (*Image, error) {
	return defaultDecoder.Decode(context.Background(), data)
}

// Image is a decoded image: RGBA, 8 bits per channel, straight alpha,
// sRGB-encoded, rows packed without padding.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// Stride is the distance in bytes between vertically adjacent pixels.
func (m *Image) Stride() int { return 4 * m.Width }

// PixOffset returns the index of the first byte of pixel (x, y).
func (m *Image) PixOffset(x, y int) int { return y*m.Stride() + 4*x }

// NRGBA returns an image.NRGBA sharing Pix.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: m.Pix, Stride: m.Stride(), Rect: image.Rect(0, 0, m.Width, m.Height)}
}

// Info is what Probe reports without decoding pixels.
type Info struct {
	bitstream.BasicInfo
	// ICC is the profile embedded in the bytestream.
	ICC []byte
}

// Profile parses the embedded profile.
func (i *Info) Profile() (*cmm.ICCProfile, error) {
	return cmm.NewICCProfile(i.ICC)
}

var srgbProfile = sync.OnceValues(cmm.SRGBProfile)

// session is one pass over one input. It owns the bitstream decoder.
type session struct {
	dec    bitstream.Decoder
	logger observability.Logger
	info   bitstream.BasicInfo
}

func (s *session) close() {
	_ = s.dec.Close()
}

// open checks the signature, creates the bitstream decoder, feeds it the
// whole input and reads basic info.
func (d *Decoder) open(data []byte, events bitstream.Event) (*session, error) {
	switch sig := bitstream.CheckSignature(data); sig {
	case bitstream.SignatureCodestream, bitstream.SignatureContainer:
	default:
		return nil, fail(MalformedStream, "signature", fmt.Errorf("%s signature (%d bytes)", sig, len(data)))
	}

	dec, err := d.newBitstream()
	if err != nil {
		return nil, fail(DecoderUnavailable, "create decoder", err)
	}
	s := &session{dec: dec, logger: d.logger}
	if err := dec.SubscribeEvents(events); err != nil {
		s.close()
		return nil, fail(DecoderUnavailable, "subscribe events", err)
	}
	// The payload is complete or invalid; there is no more input to come.
	if err := dec.SetInput(data); err != nil {
		s.close()
		return nil, fail(MalformedStream, "set input", err)
	}
	dec.CloseInput()

	if err := s.advance(bitstream.StatusBasicInfo); err != nil {
		s.close()
		return nil, err
	}
	info, err := dec.BasicInfo()
	if err != nil {
		s.close()
		return nil, fail(BasicInfoUnavailable, "basic info", err)
	}
	if info.Width == 0 || info.Height == 0 {
		s.close()
		return nil, fail(BasicInfoUnavailable, "basic info", fmt.Errorf("empty image (%d x %d)", info.Width, info.Height))
	}
	if err := d.limits.validate(info.Width, info.Height); err != nil {
		s.close()
		return nil, fail(LimitExceeded, "basic info", err)
	}
	s.info = info
	d.logger.Debug("basic info",
		observability.Int("width", int(info.Width)),
		observability.Int("height", int(info.Height)),
		observability.Bool("premultiplied", info.AlphaPremultiplied),
		observability.Bool("original_profile", info.UsesOriginalProfile),
	)
	return s, nil
}

func (s *session) advance(want bitstream.Status) error {
	if got := s.dec.ProcessInput(); got != want {
		return fail(MalformedStream, want.String(), fmt.Errorf("decoder reported %s", got))
	}
	return nil
}

func (s *session) profile(target bitstream.ProfileTarget) ([]byte, error) {
	if err := s.advance(bitstream.StatusColorEncoding); err != nil {
		return nil, err
	}
	size, err := s.dec.ICCProfileSize(target)
	if err != nil {
		return nil, fail(ColorEncodingUnavailable, "profile size", err)
	}
	if size <= 0 {
		return nil, fail(ColorEncodingUnavailable, "profile size", fmt.Errorf("profile is %d bytes", size))
	}
	icc := make([]byte, size)
	if err := s.dec.ICCProfile(target, icc); err != nil {
		return nil, fail(ColorEncodingUnavailable, "profile", err)
	}
	s.logger.Debug("color encoding", observability.Int("profile_bytes", size))
	return icc, nil
}

func (s *session) samples() ([]float32, error) {
	pixels := int(s.info.Width) * int(s.info.Height)
	size, err := s.dec.ImageOutBufferSize(bitstream.RGBAFloat)
	if err != nil {
		return nil, fail(ImageDataUnavailable, "output buffer size", err)
	}
	if want := pixels * bitstream.RGBAFloat.BytesPerPixel(); size != want {
		return nil, fail(ImageDataUnavailable, "output buffer size", fmt.Errorf("decoder wants %d bytes, expected %d", size, want))
	}
	buf := make([]float32, pixels*4)
	if err := s.dec.SetImageOutBuffer(bitstream.RGBAFloat, buf); err != nil {
		return nil, fail(ImageDataUnavailable, "set output buffer", err)
	}
	if err := s.advance(bitstream.StatusFullImage); err != nil {
		return nil, err
	}
	s.logger.Debug("full image", observability.Int("pixels", pixels), observability.Int64("buffer_bytes", int64(size)))
	return buf, nil
}

// Decode decodes data into an sRGB image. ctx only carries tracing; a
// decode runs to completion once started.
func (d *Decoder) Decode(ctx context.Context, data []byte) (img *Image, err error) {
	start := time.Now()
	_, span := d.tracer.StartSpan(ctx, observability.SpanDecode)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.SetTag(observability.MetricDecodeTime, time.Since(start))
		span.Finish()
	}()

	s, err := d.open(data, bitstream.EventBasicInfo|bitstream.EventColorEncoding|bitstream.EventFullImage)
	if err != nil {
		return nil, err
	}
	defer s.close()

	icc, err := s.profile(bitstream.TargetData)
	if err != nil {
		return nil, err
	}
	samples, err := s.samples()
	if err != nil {
		return nil, err
	}

	src, err := ResolveProfile(s.info.UsesOriginalProfile, icc)
	if err != nil {
		return nil, err
	}
	source := "synthesized"
	if s.info.UsesOriginalProfile {
		source = "embedded"
	}
	span.SetTag("width", int(s.info.Width))
	span.SetTag("height", int(s.info.Height))
	span.SetTag("profile", source)
	span.SetTag(observability.MetricProfileBytes, len(icc))

	dst, err := srgbProfile()
	if err != nil {
		return nil, fail(TransformFailed, "destination profile", err)
	}
	alpha := cmm.AlphaUnpremul
	if s.info.AlphaPremultiplied {
		alpha = cmm.AlphaPremulAsEncoded
	}
	w, h := int(s.info.Width), int(s.info.Height)
	pix := make([]byte, w*h*4)
	transformStart := time.Now()
	err = d.engine.Transform(
		cmm.Buffer{Format: cmm.PixelFormatRGBAFFFF, Alpha: alpha, Profile: src, Float32: samples},
		cmm.Buffer{Format: cmm.PixelFormatRGBA8888, Alpha: cmm.AlphaUnpremul, Profile: dst, Bytes: pix},
		w*h,
	)
	if err != nil {
		return nil, fail(TransformFailed, "transform", err)
	}
	span.SetTag(observability.MetricTransformTime, time.Since(transformStart))
	span.SetTag(observability.MetricDecodedPixels, w*h)
	d.logger.Debug("transform", observability.String("profile", source), observability.String("description", src.Name()))

	return &Image{Width: w, Height: h, Pix: pix}, nil
}

// Probe reads the header and the embedded profile without decoding pixels.
func (d *Decoder) Probe(ctx context.Context, data []byte) (info *Info, err error) {
	_, span := d.tracer.StartSpan(ctx, observability.SpanProbe)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	s, err := d.open(data, bitstream.EventBasicInfo|bitstream.EventColorEncoding)
	if err != nil {
		return nil, err
	}
	defer s.close()

	icc, err := s.profile(bitstream.TargetOriginal)
	if err != nil {
		return nil, err
	}
	return &Info{BasicInfo: s.info, ICC: icc}, nil
}
