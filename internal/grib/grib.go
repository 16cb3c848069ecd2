// Package grib decodes GRIB2 messages into typed point batches.
//
// The decoder parses every submessage up front and then streams points in
// bounded batches, so the memory high-water mark is one decoded file, not
// one batch. Submessages using grid or packing templates the decoder does
// not understand are skipped rather than failing the file; structural
// corruption (bad magic, truncated sections) is a DecodeError.
package grib

import "fmt"

// Point is one decoded grid value with its GRIB identification codes.
type Point struct {
	Latitude  float64
	Longitude float64
	Value     float64

	Discipline        uint8
	ParameterCategory uint8
	ParameterNumber   uint8
	ForecastTime      int64
	SurfaceType       uint8
	SurfaceValue      float64
	MessageIndex      uint32
}

// Batch is a bounded chunk of decoded points. HasMore reports whether
// another ReadBatch call can yield points.
type Batch struct {
	Points  []Point
	HasMore bool
}

// Reader streams decoded points from one opened resource.
type Reader interface {
	ReadBatch(max int) (Batch, error)
	Close() error
}

// Opener turns raw resource bytes into a Reader.
type Opener interface {
	Open(data []byte) (Reader, error)
}

// DecodeError reports malformed bytes.
type DecodeError struct {
	Msg string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grib: %s: %v", e.Msg, e.Err)
	}
	return "grib: " + e.Msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErrf(format string, args ...any) *DecodeError {
	return &DecodeError{Msg: fmt.Sprintf(format, args...)}
}
