package cmm

import (
	"encoding/binary"
	"fmt"
)

// LUT is a decoded lut8Type ('mft1') or lut16Type ('mft2') tag.
type LUT struct {
	InputChannels  uint8
	OutputChannels uint8
	GridPoints     uint8
	Matrix         [9]float64
	InputTables    [][]float64 // Normalized 0-1
	CLUT           []float64   // Normalized 0-1
	OutputTables   [][]float64 // Normalized 0-1

	// Legacy16 is set for mft2 tags, whose PCS encodings differ from mft1.
	Legacy16 bool
	// ApplyMatrix is set when the input colour space is XYZ; the ICC
	// format ignores the matrix otherwise.
	ApplyMatrix bool
}

func (p *ICCProfile) ReadLUTTag(sig string) (*LUT, error) {
	data, ok := p.GetTag(sig)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, sig)
	}
	var (
		lut *LUT
		err error
	)
	switch string(data[0:4]) {
	case "mft1":
		lut, err = parseMFT1(data)
	case "mft2":
		lut, err = parseMFT2(data)
	default:
		return nil, fmt.Errorf("%w: %q in %s", ErrUnsupportedTagType, data[0:4], sig)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sig, err)
	}
	lut.ApplyMatrix = p.ColorSpace() == "XYZ " && lut.InputChannels == 3
	return lut, nil
}

type lutReader struct {
	data   []byte
	offset int
	wide   bool
}

func (r *lutReader) width() int {
	if r.wide {
		return 2
	}
	return 1
}

func (r *lutReader) tables(n, entries int) ([][]float64, error) {
	width := r.width()
	remaining := len(r.data) - r.offset
	if n > 0 && entries > remaining/(n*width) {
		return nil, ErrTruncatedProfile
	}
	out := make([][]float64, n)
	for c := range out {
		out[c] = r.values(entries)
	}
	return out, nil
}

func (r *lutReader) values(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		if r.wide {
			v[i] = float64(binary.BigEndian.Uint16(r.data[r.offset:])) / 65535.0
			r.offset += 2
		} else {
			v[i] = float64(r.data[r.offset]) / 255.0
			r.offset++
		}
	}
	return v
}

func parseMFT2(data []byte) (*LUT, error) {
	if len(data) < 52 {
		return nil, fmt.Errorf("%w: mft2 header", ErrTruncatedProfile)
	}
	lut, err := parseLUTHeader(data)
	if err != nil {
		return nil, err
	}
	lut.Legacy16 = true
	inputEntries := int(binary.BigEndian.Uint16(data[48:50]))
	outputEntries := int(binary.BigEndian.Uint16(data[50:52]))
	if inputEntries < 2 || outputEntries < 2 {
		return nil, fmt.Errorf("mft2 table sizes %d/%d", inputEntries, outputEntries)
	}
	return lut, lut.readBody(&lutReader{data: data, offset: 52, wide: true}, inputEntries, outputEntries)
}

func parseMFT1(data []byte) (*LUT, error) {
	if len(data) < 48 {
		return nil, fmt.Errorf("%w: mft1 header", ErrTruncatedProfile)
	}
	lut, err := parseLUTHeader(data)
	if err != nil {
		return nil, err
	}
	// mft1 has fixed 256 entries for input/output tables
	return lut, lut.readBody(&lutReader{data: data, offset: 48}, 256, 256)
}

func parseLUTHeader(data []byte) (*LUT, error) {
	lut := &LUT{
		InputChannels:  data[8],
		OutputChannels: data[9],
		GridPoints:     data[10],
	}
	if lut.InputChannels == 0 || lut.InputChannels > 8 || lut.OutputChannels == 0 || lut.OutputChannels > 8 {
		return nil, fmt.Errorf("LUT channels %d->%d", lut.InputChannels, lut.OutputChannels)
	}
	if lut.GridPoints < 2 {
		return nil, fmt.Errorf("LUT grid of %d points", lut.GridPoints)
	}
	for i := 0; i < 9; i++ {
		lut.Matrix[i] = s15Fixed16ToFloat(binary.BigEndian.Uint32(data[12+i*4:]))
	}
	return lut, nil
}

func (lut *LUT) readBody(r *lutReader, inputEntries, outputEntries int) error {
	var err error
	if lut.InputTables, err = r.tables(int(lut.InputChannels), inputEntries); err != nil {
		return fmt.Errorf("input tables: %w", err)
	}
	n := int(lut.OutputChannels)
	limit := (len(r.data) - r.offset) / r.width()
	grid := n
	for i := 0; i < int(lut.InputChannels); i++ {
		if grid > limit/int(lut.GridPoints) {
			return fmt.Errorf("CLUT: %w", ErrTruncatedProfile)
		}
		grid *= int(lut.GridPoints)
	}
	clut, err := r.tables(1, grid)
	if err != nil {
		return fmt.Errorf("CLUT: %w", err)
	}
	lut.CLUT = clut[0]
	if lut.OutputTables, err = r.tables(n, outputEntries); err != nil {
		return fmt.Errorf("output tables: %w", err)
	}
	return nil
}

// Convert executes the LUT transform on the input color: matrix (XYZ input
// only), input tables, CLUT, output tables.
func (lut *LUT) Convert(in []float64) ([]float64, error) {
	if len(in) != int(lut.InputChannels) {
		return nil, fmt.Errorf("LUT input channels mismatch: expected %d, got %d", lut.InputChannels, len(in))
	}

	temp := make([]float64, len(in))
	copy(temp, in)

	if lut.ApplyMatrix {
		v := mulVector(lut.Matrix, [3]float64{temp[0], temp[1], temp[2]})
		temp[0], temp[1], temp[2] = v[0], v[1], v[2]
	}

	for c := range temp {
		temp[c] = interp1D(temp[c], lut.InputTables[c])
	}

	clutOut := interpCLUT(temp, lut.CLUT, int(lut.InputChannels), int(lut.OutputChannels), int(lut.GridPoints))

	out := make([]float64, lut.OutputChannels)
	for c := range out {
		out[c] = interp1D(clutOut[c], lut.OutputTables[c])
	}
	return out, nil
}

func interp1D(val float64, table []float64) float64 {
	if !(val > 0) {
		return table[0]
	}
	if val >= 1 {
		return table[len(table)-1]
	}
	f := val * float64(len(table)-1)
	idx := int(f)
	frac := f - float64(idx)
	return table[idx]*(1-frac) + table[idx+1]*frac
}

// interpCLUT interpolates an N-dimensional grid where the first input
// dimension varies least rapidly.
func interpCLUT(in []float64, clut []float64, inCh, outCh, gridPoints int) []float64 {
	if inCh == 3 {
		return interpCLUT3D(in, clut, outCh, gridPoints)
	}
	return interpCLUTMultilinear(in, clut, inCh, outCh, gridPoints)
}

func gridCell(v float64, gridPoints int) (int, float64) {
	g := clamp01(v) * float64(gridPoints-1)
	i := int(g)
	if i >= gridPoints-1 {
		i = gridPoints - 2
	}
	return i, g - float64(i)
}

// interpCLUTMultilinear blends the 2^inCh corners of the enclosing cell.
func interpCLUTMultilinear(in []float64, clut []float64, inCh, outCh, gridPoints int) []float64 {
	base := make([]int, inCh)
	frac := make([]float64, inCh)
	stride := make([]int, inCh)
	s := outCh
	for i := inCh - 1; i >= 0; i-- {
		base[i], frac[i] = gridCell(in[i], gridPoints)
		stride[i] = s
		s *= gridPoints
	}

	out := make([]float64, outCh)
	for corner := 0; corner < 1<<inCh; corner++ {
		w := 1.0
		idx := 0
		for i := 0; i < inCh; i++ {
			bit := corner >> (inCh - 1 - i) & 1
			if bit == 1 {
				w *= frac[i]
			} else {
				w *= 1 - frac[i]
			}
			idx += (base[i] + bit) * stride[i]
		}
		if w == 0 {
			continue
		}
		for c := 0; c < outCh; c++ {
			out[c] += w * clut[idx+c]
		}
	}
	return out
}

func interpCLUT3D(in []float64, clut []float64, outCh, gridPoints int) []float64 {
	x0, dx := gridCell(in[0], gridPoints)
	y0, dy := gridCell(in[1], gridPoints)
	z0, dz := gridCell(in[2], gridPoints)
	x1, y1, z1 := x0+1, y0+1, z0+1

	getVal := func(ix, iy, iz, ch int) float64 {
		idx := ix*gridPoints*gridPoints + iy*gridPoints + iz
		return clut[idx*outCh+ch]
	}

	out := make([]float64, outCh)
	for c := 0; c < outCh; c++ {
		c00 := getVal(x0, y0, z0, c)*(1-dz) + getVal(x0, y0, z1, c)*dz
		c01 := getVal(x0, y1, z0, c)*(1-dz) + getVal(x0, y1, z1, c)*dz
		c10 := getVal(x1, y0, z0, c)*(1-dz) + getVal(x1, y0, z1, c)*dz
		c11 := getVal(x1, y1, z0, c)*(1-dz) + getVal(x1, y1, z1, c)*dz

		c0 := c00*(1-dy) + c01*dy
		c1 := c10*(1-dy) + c11*dy

		out[c] = c0*(1-dx) + c1*dx
	}
	return out
}

// pcsFromLUT decodes normalised LUT output into PCS XYZ.
func pcsFromLUT(v []float64, pcs string, legacy16 bool) [3]float64 {
	if pcs == "Lab " {
		var L, a, b float64
		if legacy16 {
			k := 65535.0 / 65280.0
			L, a, b = v[0]*k*100, v[1]*k*255-128, v[2]*k*255-128
		} else {
			L, a, b = v[0]*100, v[1]*255-128, v[2]*255-128
		}
		xyz := LabToXYZ([]float64{L, a, b})
		return [3]float64{xyz[0], xyz[1], xyz[2]}
	}
	// PCS XYZ: u1Fixed15, 1.0 encoded as 0x8000.
	k := 65535.0 / 32768.0
	return [3]float64{v[0] * k, v[1] * k, v[2] * k}
}
