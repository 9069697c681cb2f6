//go:build libjxl && cgo

package bitstream

/*
#cgo pkg-config: libjxl
#include <stdint.h>
#include <stdlib.h>
#include <jxl/decode.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

type libjxlDecoder struct {
	dec    *C.JxlDecoder
	input  unsafe.Pointer
	pinner runtime.Pinner
}

func newNative() (Decoder, error) {
	dec := C.JxlDecoderCreate(nil)
	if dec == nil {
		return nil, fmt.Errorf("bitstream: JxlDecoderCreate failed")
	}
	return &libjxlDecoder{dec: dec}, nil
}

func (d *libjxlDecoder) check(op string, st C.JxlDecoderStatus) error {
	if st != C.JXL_DEC_SUCCESS {
		return fmt.Errorf("bitstream: %s: status %d", op, int(st))
	}
	return nil
}

func (d *libjxlDecoder) SubscribeEvents(e Event) error {
	if d.dec == nil {
		return ErrClosed
	}
	return d.check("subscribe events", C.JxlDecoderSubscribeEvents(d.dec, C.int(e)))
}

// SetInput copies data into C memory; libjxl reads from it across calls.
func (d *libjxlDecoder) SetInput(data []byte) error {
	if d.dec == nil {
		return ErrClosed
	}
	if d.input != nil {
		C.JxlDecoderReleaseInput(d.dec)
		C.free(d.input)
		d.input = nil
	}
	if len(data) == 0 {
		return nil
	}
	d.input = C.CBytes(data)
	return d.check("set input", C.JxlDecoderSetInput(d.dec, (*C.uint8_t)(d.input), C.size_t(len(data))))
}

func (d *libjxlDecoder) CloseInput() {
	if d.dec != nil {
		C.JxlDecoderCloseInput(d.dec)
	}
}

func (d *libjxlDecoder) ProcessInput() Status {
	if d.dec == nil {
		return StatusError
	}
	switch C.JxlDecoderProcessInput(d.dec) {
	case C.JXL_DEC_SUCCESS:
		return StatusSuccess
	case C.JXL_DEC_NEED_MORE_INPUT:
		return StatusNeedMoreInput
	case C.JXL_DEC_BASIC_INFO:
		return StatusBasicInfo
	case C.JXL_DEC_COLOR_ENCODING:
		return StatusColorEncoding
	case C.JXL_DEC_FULL_IMAGE:
		return StatusFullImage
	}
	return StatusError
}

func (d *libjxlDecoder) BasicInfo() (BasicInfo, error) {
	if d.dec == nil {
		return BasicInfo{}, ErrClosed
	}
	var info C.JxlBasicInfo
	if err := d.check("basic info", C.JxlDecoderGetBasicInfo(d.dec, &info)); err != nil {
		return BasicInfo{}, err
	}
	return BasicInfo{
		Width:                 uint32(info.xsize),
		Height:                uint32(info.ysize),
		AlphaPremultiplied:    info.alpha_premultiplied != 0,
		UsesOriginalProfile:   info.uses_original_profile != 0,
		BitsPerSample:         uint32(info.bits_per_sample),
		ExponentBitsPerSample: uint32(info.exponent_bits_per_sample),
		NumColorChannels:      uint32(info.num_color_channels),
		NumExtraChannels:      uint32(info.num_extra_channels),
		AlphaBits:             uint32(info.alpha_bits),
		HaveAnimation:         info.have_animation != 0,
		Orientation:           uint32(info.orientation),
	}, nil
}

func (d *libjxlDecoder) ICCProfileSize(target ProfileTarget) (int, error) {
	if d.dec == nil {
		return 0, ErrClosed
	}
	var size C.size_t
	if err := d.check("icc profile size", C.JxlDecoderGetICCProfileSize(d.dec, C.JxlColorProfileTarget(target), &size)); err != nil {
		return 0, err
	}
	return int(size), nil
}

func (d *libjxlDecoder) ICCProfile(target ProfileTarget, dst []byte) error {
	if d.dec == nil {
		return ErrClosed
	}
	if len(dst) == 0 {
		return fmt.Errorf("%w: empty profile buffer", ErrBufferSize)
	}
	st := C.JxlDecoderGetColorAsICCProfile(d.dec, C.JxlColorProfileTarget(target), (*C.uint8_t)(unsafe.Pointer(&dst[0])), C.size_t(len(dst)))
	return d.check("icc profile", st)
}

func cPixelFormat(f PixelFormat) C.JxlPixelFormat {
	var dt C.JxlDataType
	switch f.DataType {
	case TypeUint8:
		dt = C.JXL_TYPE_UINT8
	case TypeUint16:
		dt = C.JXL_TYPE_UINT16
	case TypeFloat16:
		dt = C.JXL_TYPE_FLOAT16
	default:
		dt = C.JXL_TYPE_FLOAT
	}
	var end C.JxlEndianness
	switch f.Endianness {
	case LittleEndian:
		end = C.JXL_LITTLE_ENDIAN
	case BigEndian:
		end = C.JXL_BIG_ENDIAN
	default:
		end = C.JXL_NATIVE_ENDIAN
	}
	return C.JxlPixelFormat{
		num_channels: C.uint32_t(f.NumChannels),
		data_type:    dt,
		endianness:   end,
		align:        C.size_t(f.Align),
	}
}

func (d *libjxlDecoder) ImageOutBufferSize(f PixelFormat) (int, error) {
	if d.dec == nil {
		return 0, ErrClosed
	}
	cf := cPixelFormat(f)
	var size C.size_t
	if err := d.check("image out buffer size", C.JxlDecoderImageOutBufferSize(d.dec, &cf, &size)); err != nil {
		return 0, err
	}
	return int(size), nil
}

// SetImageOutBuffer pins buf until Close; libjxl writes into it from later
// ProcessInput calls.
func (d *libjxlDecoder) SetImageOutBuffer(f PixelFormat, buf []float32) error {
	if d.dec == nil {
		return ErrClosed
	}
	if f.DataType != TypeFloat {
		return fmt.Errorf("bitstream: float32 buffer for data type %d", f.DataType)
	}
	if len(buf) == 0 {
		return fmt.Errorf("%w: empty image buffer", ErrBufferSize)
	}
	d.pinner.Pin(&buf[0])
	cf := cPixelFormat(f)
	st := C.JxlDecoderSetImageOutBuffer(d.dec, &cf, unsafe.Pointer(&buf[0]), C.size_t(len(buf)*4))
	return d.check("set image out buffer", st)
}

func (d *libjxlDecoder) Close() error {
	if d.dec != nil {
		C.JxlDecoderDestroy(d.dec)
		d.dec = nil
	}
	if d.input != nil {
		C.free(d.input)
		d.input = nil
	}
	d.pinner.Unpin()
	return nil
}
