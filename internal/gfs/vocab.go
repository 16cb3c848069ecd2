// Package gfs turns relational queries over the GFS weather feed into
// narrowed remote fetches and streams the decoded grid back as rows.
package gfs

import (
	"fmt"
	"strings"
)

// Variable and level synonyms collapse to the canonical filter-endpoint
// tokens. A var_/lev_ prefixed input is accepted as-is so raw endpoint
// vocabulary keeps working for parameters the tables do not know.

var variableTokens = map[string]string{
	"temperature":       "var_TMP",
	"temp":              "var_TMP",
	"t":                 "var_TMP",
	"humidity":          "var_RH",
	"relative_humidity": "var_RH",
	"rh":                "var_RH",
	"wind_u":            "var_UGRD",
	"u_wind":            "var_UGRD",
	"ugrd":              "var_UGRD",
	"wind_v":            "var_VGRD",
	"v_wind":            "var_VGRD",
	"vgrd":              "var_VGRD",
	"precipitation":     "var_APCP",
	"precip":            "var_APCP",
	"rain":              "var_APCP",
	"apcp":              "var_APCP",
	"gust":              "var_GUST",
	"wind_gust":         "var_GUST",
	"clouds":            "var_TCDC",
	"cloud_cover":       "var_TCDC",
	"tcdc":              "var_TCDC",
	"pressure":          "var_PRMSL",
	"msl_pressure":      "var_PRMSL",
	"prmsl":             "var_PRMSL",
}

var levelTokens = map[string]string{
	"2m":                "lev_2_m_above_ground",
	"2_m":               "lev_2_m_above_ground",
	"2m_above_ground":   "lev_2_m_above_ground",
	"10m":               "lev_10_m_above_ground",
	"10_m":              "lev_10_m_above_ground",
	"10m_above_ground":  "lev_10_m_above_ground",
	"surface":           "lev_surface",
	"sfc":               "lev_surface",
	"atmosphere":        "lev_entire_atmosphere",
	"entire_atmosphere": "lev_entire_atmosphere",
	"msl":               "lev_mean_sea_level",
	"mean_sea_level":    "lev_mean_sea_level",
}

// NormalizeVariable maps a human variable name to its canonical endpoint
// token. Unrecognized names return "" so the caller can keep the predicate
// unresolved instead of guessing.
func NormalizeVariable(input string) string {
	lower := strings.ToLower(input)
	if tok, ok := variableTokens[lower]; ok {
		return tok
	}
	if strings.HasPrefix(lower, "var_") {
		return strings.ToUpper(lower)
	}
	return ""
}

// NormalizeLevel maps a human level name to its canonical endpoint token,
// or "" when unrecognized.
func NormalizeLevel(input string) string {
	lower := strings.ToLower(input)
	if tok, ok := levelTokens[lower]; ok {
		return tok
	}
	if strings.HasPrefix(lower, "lev_") {
		return lower
	}
	return ""
}

// ParameterName reverse-maps a GRIB (discipline, category, number) triplet
// to the human variable name. Unmapped triplets are "unknown" rather than
// an error so the scan stays total over anything the decoder yields.
func ParameterName(discipline, category, number uint8) string {
	if discipline != 0 {
		return "unknown"
	}
	switch category {
	case 0: // temperature
		if number == 0 {
			return "temperature"
		}
	case 1: // moisture
		switch number {
		case 1:
			return "humidity"
		case 8:
			return "precipitation"
		}
	case 2: // momentum
		switch number {
		case 2:
			return "wind_u"
		case 3:
			return "wind_v"
		case 22:
			return "gust"
		}
	case 3: // mass
		if number == 1 {
			return "pressure"
		}
	case 6: // cloud
		if number == 1 {
			return "clouds"
		}
	}
	return "unknown"
}

// SurfaceName reverse-maps a GRIB surface-type code plus its numeric value
// to the human level name.
func SurfaceName(code uint8, value float64) string {
	switch code {
	case 1:
		return "surface"
	case 10:
		return "atmosphere"
	case 100:
		return fmt.Sprintf("%dhPa", int(value/100))
	case 101:
		return "msl"
	case 103:
		switch value {
		case 2:
			return "2m"
		case 10:
			return "10m"
		}
		return fmt.Sprintf("%dm", int(value))
	default:
		return "unknown"
	}
}

// VariableUnit reports the natural unit for a human variable name. The
// empty string means the variable has no unit and the output column is
// NULL, which is distinct from an unknown variable.
func VariableUnit(variable string) string {
	switch variable {
	case "temperature":
		return "K"
	case "humidity", "clouds":
		return "%"
	case "wind_u", "wind_v", "gust":
		return "m/s"
	case "pressure":
		return "Pa"
	case "precipitation":
		return "kg/m^2"
	}
	return ""
}
