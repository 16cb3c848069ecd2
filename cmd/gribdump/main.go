// gribdump decodes GRIB2 files and prints one NDJSON record per grid
// point, mirroring the columns the forecast table exposes for raw codes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/onnimonni/gridscan/internal/gfs"
	"github.com/onnimonni/gridscan/internal/grib"
)

type record struct {
	File         string   `json:"file,omitempty"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Value        *float64 `json:"value"`
	Variable     string   `json:"variable"`
	Level        string   `json:"level"`
	Discipline   uint8    `json:"discipline"`
	Category     uint8    `json:"parameter_category"`
	Number       uint8    `json:"parameter_number"`
	ForecastTime int64    `json:"forecast_time"`
	SurfaceType  uint8    `json:"surface_type"`
	SurfaceValue float64  `json:"surface_value"`
	MessageIndex uint32   `json:"message_index"`
}

func main() {
	batch := flag.Int("batch", 2048, "points per decode batch")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: gribdump [-batch n] file.grib2 [file.grib2 ...]")
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	withName := flag.NArg() > 1
	for _, path := range flag.Args() {
		if err := dump(enc, path, *batch, withName); err != nil {
			fmt.Fprintf(os.Stderr, "gribdump: %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func dump(enc *json.Encoder, path string, batch int, withName bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rd, err := grib.NewDecoder().Open(data)
	if err != nil {
		return err
	}
	defer func() { _ = rd.Close() }()

	for {
		b, err := rd.ReadBatch(batch)
		if err != nil {
			return err
		}
		for _, p := range b.Points {
			rec := record{
				Latitude:     p.Latitude,
				Longitude:    p.Longitude,
				Variable:     gfs.ParameterName(p.Discipline, p.ParameterCategory, p.ParameterNumber),
				Level:        gfs.SurfaceName(p.SurfaceType, p.SurfaceValue),
				Discipline:   p.Discipline,
				Category:     p.ParameterCategory,
				Number:       p.ParameterNumber,
				ForecastTime: p.ForecastTime,
				SurfaceType:  p.SurfaceType,
				SurfaceValue: p.SurfaceValue,
				MessageIndex: p.MessageIndex,
			}
			if withName {
				rec.File = path
			}
			if !math.IsNaN(p.Value) {
				v := p.Value
				rec.Value = &v
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		if len(b.Points) == 0 && !b.HasMore {
			return nil
		}
	}
}
