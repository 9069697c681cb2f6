// Package bitstreamtest provides a scripted bitstream.Decoder for tests. It
// reports milestones from an in-memory image instead of parsing input, and
// records protocol misuse such as queries made before their milestone.
package bitstreamtest

import (
	"fmt"
	"sync"

	"github.com/wudi/jxlkit/bitstream"
)

// Image is what a scripted decoder reports.
type Image struct {
	Info bitstream.BasicInfo
	// ICC is returned for bitstream.TargetData.
	ICC []byte
	// OriginalICC is returned for bitstream.TargetOriginal; ICC when nil.
	OriginalICC []byte
	// Pixels is copied into the output buffer at the full-image milestone.
	Pixels []float32
}

// Script configures decoders returned by New. The zero thresholds make every
// milestone reachable with any non-empty input.
type Script struct {
	Image Image

	// Minimum input lengths needed to reach each milestone.
	BasicInfoAt, ColorEncodingAt, FullImageAt int

	// Errors returned by the matching queries.
	BasicInfoErr, ICCSizeErr, ICCErr, OutSizeErr, SetOutErr error
	// OutSizeDelta is added to the reported output buffer size.
	OutSizeDelta int
	// Statuses overrides the result of the n-th ProcessInput call (0-based).
	Statuses map[int]bitstream.Status
	// NewErr makes New fail.
	NewErr error

	mu         sync.Mutex
	opened     int
	closed     int
	violations []string
}

// Stream returns n bytes that carry a codestream signature.
func Stream(n int) []byte {
	b := make([]byte, max(n, 2))
	b[0], b[1] = 0xFF, 0x0A
	return b
}

// Solid returns w*h RGBA float pixels of one colour.
func Solid(w, h int, r, g, b, a float32) []float32 {
	px := make([]float32, 0, w*h*4)
	for i := 0; i < w*h; i++ {
		px = append(px, r, g, b, a)
	}
	return px
}

// New returns a fresh decoder following the script.
func (s *Script) New() (bitstream.Decoder, error) {
	if s.NewErr != nil {
		return nil, s.NewErr
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &Decoder{script: s}, nil
}

// Opened is the number of decoders handed out.
func (s *Script) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Closed is the number of decoders closed at least once.
func (s *Script) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Violations lists protocol misuse observed by all decoders.
func (s *Script) Violations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.violations...)
}

func (s *Script) violate(format string, args ...any) {
	s.mu.Lock()
	s.violations = append(s.violations, fmt.Sprintf(format, args...))
	s.mu.Unlock()
}

type stage int

const (
	stageNone stage = iota
	stageBasicInfo
	stageColorEncoding
	stageFullImage
)

// Decoder is one scripted session.
type Decoder struct {
	script      *Script
	events      bitstream.Event
	input       []byte
	inputClosed bool
	stage       stage
	calls       int
	out         []float32
	closed      bool
}

var _ bitstream.Decoder = (*Decoder)(nil)

func (d *Decoder) SubscribeEvents(e bitstream.Event) error {
	if d.input != nil || d.calls > 0 {
		d.script.violate("subscribe after input")
	}
	d.events = e
	return nil
}

func (d *Decoder) SetInput(data []byte) error {
	if d.closed {
		return bitstream.ErrClosed
	}
	d.input = data
	return nil
}

func (d *Decoder) CloseInput() { d.inputClosed = true }

func (d *Decoder) next() (stage, bitstream.Status, int) {
	steps := []struct {
		st     stage
		event  bitstream.Event
		status bitstream.Status
		at     int
	}{
		{stageBasicInfo, bitstream.EventBasicInfo, bitstream.StatusBasicInfo, d.script.BasicInfoAt},
		{stageColorEncoding, bitstream.EventColorEncoding, bitstream.StatusColorEncoding, d.script.ColorEncodingAt},
		{stageFullImage, bitstream.EventFullImage, bitstream.StatusFullImage, d.script.FullImageAt},
	}
	for _, s := range steps {
		if s.st > d.stage && d.events&s.event != 0 {
			return s.st, s.status, s.at
		}
	}
	return stageNone, bitstream.StatusSuccess, 0
}

func (d *Decoder) ProcessInput() bitstream.Status {
	n := d.calls
	d.calls++
	if st, ok := d.script.Statuses[n]; ok {
		return st
	}
	if d.closed {
		return bitstream.StatusError
	}
	if len(d.input) == 0 {
		if d.inputClosed {
			return bitstream.StatusError
		}
		return bitstream.StatusNeedMoreInput
	}
	st, status, at := d.next()
	if st == stageNone {
		d.stage = stageFullImage
		return bitstream.StatusSuccess
	}
	if len(d.input) < at {
		if d.inputClosed {
			return bitstream.StatusError
		}
		return bitstream.StatusNeedMoreInput
	}
	if st == stageFullImage {
		if d.out == nil {
			d.script.violate("full image requested without an output buffer")
			return bitstream.StatusError
		}
		copy(d.out, d.script.Image.Pixels)
		d.out = nil
	}
	d.stage = st
	return status
}

func (d *Decoder) require(st stage, query string) error {
	if d.closed {
		return bitstream.ErrClosed
	}
	if d.stage < st {
		d.script.violate("%s before its milestone", query)
		return bitstream.ErrNotReady
	}
	return nil
}

func (d *Decoder) BasicInfo() (bitstream.BasicInfo, error) {
	if err := d.require(stageBasicInfo, "basic info"); err != nil {
		return bitstream.BasicInfo{}, err
	}
	if d.script.BasicInfoErr != nil {
		return bitstream.BasicInfo{}, d.script.BasicInfoErr
	}
	return d.script.Image.Info, nil
}

func (d *Decoder) profile(target bitstream.ProfileTarget) []byte {
	if target == bitstream.TargetOriginal && d.script.Image.OriginalICC != nil {
		return d.script.Image.OriginalICC
	}
	return d.script.Image.ICC
}

func (d *Decoder) ICCProfileSize(target bitstream.ProfileTarget) (int, error) {
	if err := d.require(stageColorEncoding, "profile size"); err != nil {
		return 0, err
	}
	if d.script.ICCSizeErr != nil {
		return 0, d.script.ICCSizeErr
	}
	return len(d.profile(target)), nil
}

func (d *Decoder) ICCProfile(target bitstream.ProfileTarget, dst []byte) error {
	if err := d.require(stageColorEncoding, "profile"); err != nil {
		return err
	}
	if d.script.ICCErr != nil {
		return d.script.ICCErr
	}
	icc := d.profile(target)
	if len(dst) != len(icc) {
		return fmt.Errorf("%w: profile is %d bytes, buffer %d", bitstream.ErrBufferSize, len(icc), len(dst))
	}
	copy(dst, icc)
	return nil
}

func (d *Decoder) ImageOutBufferSize(f bitstream.PixelFormat) (int, error) {
	if err := d.require(stageBasicInfo, "output buffer size"); err != nil {
		return 0, err
	}
	if d.script.OutSizeErr != nil {
		return 0, d.script.OutSizeErr
	}
	info := d.script.Image.Info
	return int(info.Width)*int(info.Height)*f.BytesPerPixel() + d.script.OutSizeDelta, nil
}

func (d *Decoder) SetImageOutBuffer(f bitstream.PixelFormat, buf []float32) error {
	if err := d.require(stageBasicInfo, "set output buffer"); err != nil {
		return err
	}
	if d.script.SetOutErr != nil {
		return d.script.SetOutErr
	}
	if f != bitstream.RGBAFloat {
		return fmt.Errorf("bitstreamtest: unsupported pixel format %+v", f)
	}
	info := d.script.Image.Info
	if want := int(info.Width) * int(info.Height) * 4; len(buf) < want {
		return fmt.Errorf("%w: %d floats, need %d", bitstream.ErrBufferSize, len(buf), want)
	}
	d.out = buf
	return nil
}

func (d *Decoder) Close() error {
	if !d.closed {
		d.closed = true
		d.out = nil
		d.script.mu.Lock()
		d.script.closed++
		d.script.mu.Unlock()
	}
	return nil
}
