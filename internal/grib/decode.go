package grib

import (
	"math"
)

// Decoder implements Opener for GRIB2 edition-2 data: latitude/longitude
// grids (template 3.0), the 4.0-shaped product definition prefix, and
// simple (5.0) or complex (5.2, 5.3) packing.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Open(data []byte) (Reader, error) {
	msgs, err := parseMessages(data)
	if err != nil {
		return nil, err
	}
	return &reader{messages: msgs}, nil
}

type gridPoint struct {
	lat, lon, val float64
}

type message struct {
	discipline   uint8
	category     uint8
	number       uint8
	forecastTime int64
	surfaceType  uint8
	surfaceValue float64
	index        uint32
	points       []gridPoint
}

type reader struct {
	messages []message
	curMsg   int
	curPt    int
}

func (r *reader) ReadBatch(max int) (Batch, error) {
	if max <= 0 {
		max = 2048
	}
	var points []Point
	for len(points) < max && r.curMsg < len(r.messages) {
		msg := &r.messages[r.curMsg]
		for r.curPt < len(msg.points) && len(points) < max {
			p := msg.points[r.curPt]
			points = append(points, Point{
				Latitude:          p.lat,
				Longitude:         p.lon,
				Value:             p.val,
				Discipline:        msg.discipline,
				ParameterCategory: msg.category,
				ParameterNumber:   msg.number,
				ForecastTime:      msg.forecastTime,
				SurfaceType:       msg.surfaceType,
				SurfaceValue:      msg.surfaceValue,
				MessageIndex:      msg.index,
			})
			r.curPt++
		}
		if r.curPt >= len(msg.points) {
			r.curMsg++
			r.curPt = 0
		}
	}
	return Batch{Points: points, HasMore: r.curMsg < len(r.messages)}, nil
}

func (r *reader) Close() error {
	r.messages = nil
	r.curMsg = 0
	r.curPt = 0
	return nil
}

// ------------------------------------------------------------------
// Message parsing
// ------------------------------------------------------------------

func parseMessages(data []byte) ([]message, error) {
	var msgs []message
	off := 0
	msgIdx := uint32(0)
	for off < len(data) {
		if len(data)-off < 16 {
			return nil, decodeErrf("truncated message header at offset %d", off)
		}
		if string(data[off:off+4]) != "GRIB" {
			return nil, decodeErrf("bad magic at offset %d", off)
		}
		total := be64(data[off+8 : off+16])
		if total < 16 || off+int(total) > len(data) {
			return nil, decodeErrf("message length %d exceeds buffer", total)
		}
		sub, err := parseMessage(data[off:off+int(total)], msgIdx)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, sub...)
		off += int(total)
		msgIdx++
	}
	return msgs, nil
}

type gridDef struct {
	ni, nj   int
	la1, lo1 float64
	di, dj   float64
	iNeg     bool // i scans toward decreasing longitude
	jPos     bool // j scans toward increasing latitude
	ok       bool
}

type prodDef struct {
	category     uint8
	number       uint8
	forecastTime int64
	surfaceType  uint8
	surfaceValue float64
	ok           bool
}

type reprDef struct {
	numValues int
	template  int
	ref       float64
	binScale  int
	decScale  int
	nbits     int

	// complex packing (5.2/5.3)
	ng            int
	groupWidthRef int
	groupWidthBit int
	groupLenRef   int
	groupLenInc   int
	lastGroupLen  int
	groupLenBits  int
	spatialOrder  int
	spatialOctets int

	ok bool
}

func parseMessage(m []byte, msgIdx uint32) ([]message, error) {
	discipline := m[6]
	if m[7] != 2 {
		return nil, decodeErrf("unsupported GRIB edition %d", m[7])
	}

	var (
		grid   gridDef
		prod   prodDef
		repr   reprDef
		bitmap []bool
		out    []message
		subIdx uint32
	)

	off := 16
	for {
		if len(m)-off < 4 {
			return nil, decodeErrf("missing end section in message %d", msgIdx)
		}
		if string(m[off:off+4]) == "7777" {
			break
		}
		if len(m)-off < 5 {
			return nil, decodeErrf("truncated section in message %d", msgIdx)
		}
		secLen := int(be32(m[off : off+4]))
		secNum := m[off+4]
		if secLen < 5 || off+secLen > len(m) {
			return nil, decodeErrf("section %d length %d out of range", secNum, secLen)
		}
		sec := m[off : off+secLen]

		switch secNum {
		case 1, 2:
			// identification / local use: not needed
		case 3:
			grid = parseGrid(sec)
		case 4:
			prod = parseProduct(sec)
		case 5:
			repr = parseRepr(sec)
		case 6:
			switch indicator := sec[5]; indicator {
			case 255:
				bitmap = nil
			case 0:
				bitmap = parseBitmap(sec[6:], grid.ni*grid.nj)
			case 254:
				// reuse previously defined bitmap: keep as-is
			default:
				// pre-defined bitmaps are not supported; poison the
				// submessage by clearing the grid
				grid.ok = false
			}
		case 7:
			// One data section closes one submessage. Undecodable
			// submessages are skipped, matching the reference decoder.
			if grid.ok && prod.ok && repr.ok {
				if pts, err := decodePoints(sec, grid, repr, bitmap); err == nil {
					out = append(out, message{
						discipline:   discipline,
						category:     prod.category,
						number:       prod.number,
						forecastTime: prod.forecastTime,
						surfaceType:  prod.surfaceType,
						surfaceValue: prod.surfaceValue,
						index:        msgIdx*1000 + subIdx,
						points:       pts,
					})
				}
			}
			subIdx++
		}
		off += secLen
	}
	return out, nil
}

func parseGrid(sec []byte) gridDef {
	// octet numbering below is the 1-based WMO convention
	if len(sec) < 72 {
		return gridDef{}
	}
	if be16(sec[12:14]) != 0 { // template 3.0 only
		return gridDef{}
	}
	if be32(sec[38:42]) != 0 { // basic angle: only the 1e-6 degree default
		return gridDef{}
	}
	scan := sec[71]
	if scan&0x20 != 0 { // adjacent points consecutive in j
		return gridDef{}
	}
	return gridDef{
		ni:   int(be32(sec[30:34])),
		nj:   int(be32(sec[34:38])),
		la1:  float64(signMag32(sec[46:50])) * 1e-6,
		lo1:  float64(signMag32(sec[50:54])) * 1e-6,
		di:   float64(be32(sec[63:67])) * 1e-6,
		dj:   float64(be32(sec[67:71])) * 1e-6,
		iNeg: scan&0x80 != 0,
		jPos: scan&0x40 != 0,
		ok:   true,
	}
}

func parseProduct(sec []byte) prodDef {
	if len(sec) < 28 {
		return prodDef{}
	}
	// Templates 4.0 through 4.15 share the 4.0-shaped prefix read here.
	if be16(sec[7:9]) > 15 {
		return prodDef{}
	}
	p := prodDef{
		category:     sec[9],
		number:       sec[10],
		forecastTime: int64(signMag32(sec[18:22])),
		surfaceType:  sec[22],
		ok:           true,
	}
	scale := signMag8(sec[23])
	scaled := be32(sec[24:28])
	if p.surfaceType != 255 && scaled != 0xFFFFFFFF {
		p.surfaceValue = float64(scaled) * math.Pow(10, -float64(scale))
	}
	return p
}

func parseRepr(sec []byte) reprDef {
	if len(sec) < 21 {
		return reprDef{}
	}
	r := reprDef{
		numValues: int(be32(sec[5:9])),
		template:  int(be16(sec[9:11])),
		ref:       float64(math.Float32frombits(be32(sec[11:15]))),
		binScale:  int(signMag16(sec[15:17])),
		decScale:  int(signMag16(sec[17:19])),
		nbits:     int(sec[19]),
	}
	switch r.template {
	case 0:
		r.ok = true
	case 2, 3:
		need := 47
		if r.template == 3 {
			need = 49
		}
		if len(sec) < need {
			return reprDef{}
		}
		if sec[22] != 0 { // missing value management
			return reprDef{}
		}
		r.ng = int(be32(sec[31:35]))
		r.groupWidthRef = int(sec[35])
		r.groupWidthBit = int(sec[36])
		r.groupLenRef = int(be32(sec[37:41]))
		r.groupLenInc = int(sec[41])
		r.lastGroupLen = int(be32(sec[42:46]))
		r.groupLenBits = int(sec[46])
		if r.template == 3 {
			r.spatialOrder = int(sec[47])
			r.spatialOctets = int(sec[48])
			if r.spatialOrder < 1 || r.spatialOrder > 2 || r.spatialOctets < 1 || r.spatialOctets > 8 {
				return reprDef{}
			}
		}
		r.ok = true
	}
	return r
}

func parseBitmap(data []byte, n int) []bool {
	if n <= 0 || len(data)*8 < n {
		return nil
	}
	bm := make([]bool, n)
	for i := 0; i < n; i++ {
		bm[i] = data[i>>3]>>(7-(i&7))&1 == 1
	}
	return bm
}

// ------------------------------------------------------------------
// Data unpacking
// ------------------------------------------------------------------

func decodePoints(sec []byte, grid gridDef, repr reprDef, bitmap []bool) ([]gridPoint, error) {
	var packed []float64
	var err error
	switch repr.template {
	case 0:
		packed, err = unpackSimple(sec[5:], repr)
	case 2, 3:
		packed, err = unpackComplex(sec[5:], repr)
	default:
		return nil, decodeErrf("unsupported data representation template %d", repr.template)
	}
	if err != nil {
		return nil, err
	}

	total := grid.ni * grid.nj
	if total <= 0 {
		return nil, decodeErrf("degenerate grid %dx%d", grid.ni, grid.nj)
	}

	// Expand bitmap-missing points as NaN so the grid stays rectangular.
	values := packed
	if bitmap != nil {
		values = make([]float64, total)
		src := 0
		for i := 0; i < total; i++ {
			if bitmap[i] && src < len(packed) {
				values[i] = packed[src]
				src++
			} else {
				values[i] = math.NaN()
			}
		}
	} else if len(packed) < total {
		return nil, decodeErrf("short data: %d values for %d grid points", len(packed), total)
	}

	pts := make([]gridPoint, 0, total)
	idx := 0
	for j := 0; j < grid.nj; j++ {
		lat := grid.la1 - float64(j)*grid.dj
		if grid.jPos {
			lat = grid.la1 + float64(j)*grid.dj
		}
		for i := 0; i < grid.ni; i++ {
			lon := grid.lo1 + float64(i)*grid.di
			if grid.iNeg {
				lon = grid.lo1 - float64(i)*grid.di
			}
			lon = math.Mod(lon, 360)
			if lon < 0 {
				lon += 360
			}
			pts = append(pts, gridPoint{lat: lat, lon: lon, val: values[idx]})
			idx++
		}
	}
	return pts, nil
}

func scaleValue(x float64, r reprDef) float64 {
	return (r.ref + x*math.Pow(2, float64(r.binScale))) / math.Pow(10, float64(r.decScale))
}

func unpackSimple(data []byte, r reprDef) ([]float64, error) {
	out := make([]float64, r.numValues)
	if r.nbits == 0 {
		// constant field: every value is the reference
		v := scaleValue(0, r)
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
	br := newBitReader(data)
	for i := 0; i < r.numValues; i++ {
		x, ok := br.read(r.nbits)
		if !ok {
			return nil, decodeErrf("simple packing: ran out of bits at value %d/%d", i, r.numValues)
		}
		out[i] = scaleValue(float64(x), r)
	}
	return out, nil
}

// unpackComplex implements templates 7.2 and 7.3: group-split packing with
// optional first- or second-order spatial differencing, following the
// NCEP g2 reference unpacking order (extra descriptors, group references,
// group widths, group lengths, then group values, each byte-aligned).
func unpackComplex(data []byte, r reprDef) ([]float64, error) {
	var (
		firstVals  []int64
		overallMin int64
	)
	if r.template == 3 {
		n := r.spatialOctets
		need := (r.spatialOrder + 1) * n
		if len(data) < need {
			return nil, decodeErrf("complex packing: truncated spatial descriptors")
		}
		off := 0
		for k := 0; k < r.spatialOrder; k++ {
			firstVals = append(firstVals, signMagN(data[off:off+n]))
			off += n
		}
		overallMin = signMagN(data[off : off+n])
		off += n
		data = data[off:]
	}

	if r.ng <= 0 {
		return nil, decodeErrf("complex packing: no groups")
	}
	br := newBitReader(data)

	refs := make([]int64, r.ng)
	for g := range refs {
		x, ok := br.read(r.nbits)
		if !ok {
			return nil, decodeErrf("complex packing: truncated group references")
		}
		refs[g] = int64(x)
	}
	br.align()

	widths := make([]int, r.ng)
	for g := range widths {
		x, ok := br.read(r.groupWidthBit)
		if !ok {
			return nil, decodeErrf("complex packing: truncated group widths")
		}
		widths[g] = r.groupWidthRef + int(x)
	}
	br.align()

	lengths := make([]int, r.ng)
	for g := range lengths {
		x, ok := br.read(r.groupLenBits)
		if !ok {
			return nil, decodeErrf("complex packing: truncated group lengths")
		}
		lengths[g] = r.groupLenRef + int(x)*r.groupLenInc
	}
	lengths[r.ng-1] = r.lastGroupLen
	br.align()

	vals := make([]int64, 0, r.numValues)
	for g := 0; g < r.ng; g++ {
		for k := 0; k < lengths[g]; k++ {
			x, ok := br.read(widths[g])
			if !ok {
				return nil, decodeErrf("complex packing: truncated values in group %d", g)
			}
			vals = append(vals, refs[g]+int64(x))
		}
	}
	if len(vals) < r.numValues {
		return nil, decodeErrf("complex packing: %d values unpacked, want %d", len(vals), r.numValues)
	}
	vals = vals[:r.numValues]

	if r.template == 3 {
		switch r.spatialOrder {
		case 1:
			vals[0] = firstVals[0]
			for i := 1; i < len(vals); i++ {
				vals[i] += overallMin + vals[i-1]
			}
		case 2:
			vals[0] = firstVals[0]
			if len(vals) > 1 {
				vals[1] = firstVals[1]
			}
			for i := 2; i < len(vals); i++ {
				vals[i] += overallMin + 2*vals[i-1] - vals[i-2]
			}
		}
	}

	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = scaleValue(float64(v), r)
	}
	return out, nil
}
