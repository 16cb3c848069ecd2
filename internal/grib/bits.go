package grib

import "encoding/binary"

// bitReader reads big-endian bit fields from a byte slice, the packing used
// throughout GRIB2 data sections.
type bitReader struct {
	data []byte
	pos  int // bit offset
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) remaining() int {
	return len(r.data)*8 - r.pos
}

func (r *bitReader) read(nbits int) (uint64, bool) {
	if nbits == 0 {
		return 0, true
	}
	if nbits > 64 || r.remaining() < nbits {
		return 0, false
	}
	var v uint64
	for i := 0; i < nbits; i++ {
		byteIdx := r.pos >> 3
		bitIdx := 7 - (r.pos & 7)
		v = v<<1 | uint64(r.data[byteIdx]>>bitIdx&1)
		r.pos++
	}
	return v, true
}

// align advances to the next byte boundary.
func (r *bitReader) align() {
	if rem := r.pos & 7; rem != 0 {
		r.pos += 8 - rem
	}
}

func be16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func be64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// GRIB2 signed integers are sign-magnitude: the top bit is the sign, the
// rest the magnitude.

func signMag8(b byte) int32 {
	v := int32(b & 0x7f)
	if b&0x80 != 0 {
		return -v
	}
	return v
}

func signMag16(b []byte) int32 {
	v := int32(be16(b) & 0x7fff)
	if b[0]&0x80 != 0 {
		return -v
	}
	return v
}

func signMag32(b []byte) int64 {
	v := int64(be32(b) & 0x7fffffff)
	if b[0]&0x80 != 0 {
		return -v
	}
	return v
}

// signMagN decodes an n-octet sign-magnitude integer (n in 1..8).
func signMagN(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	neg := b[0]&0x80 != 0
	v := int64(b[0] & 0x7f)
	for _, x := range b[1:] {
		v = v<<8 | int64(x)
	}
	if neg {
		return -v
	}
	return v
}
