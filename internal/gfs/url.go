package gfs

import (
	"fmt"
	"strings"
)

// DefaultFilterURL is the NOMADS GRIB filter endpoint for the 0.25 degree
// GFS grid.
const DefaultFilterURL = "https://nomads.ncep.noaa.gov/cgi-bin/filter_gfs_0p25.pl"

var (
	defaultVariables = []string{"var_TMP", "var_RH", "var_UGRD", "var_VGRD"}
	defaultLevels    = []string{"lev_2_m_above_ground", "lev_10_m_above_ground", "lev_surface"}
)

// BuildLocator renders the filter-endpoint URL for one forecast hour of
// the descriptor's model run. Pure string work, byte-for-byte deterministic
// for a given input.
func BuildLocator(base string, d *Descriptor, forecastHour int) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('?')

	runHour := d.RunHour
	if runHour < 0 {
		runHour = 0
	}

	// directory /gfs.YYYYMMDD/HH/atmos, slashes percent-encoded
	fmt.Fprintf(&b, "dir=%%2Fgfs.%s%%2F%02d%%2Fatmos", d.RunDate, runHour)
	fmt.Fprintf(&b, "&file=gfs.t%02dz.pgrb2.0p25.f%03d", runHour, forecastHour)

	vars := d.Variables
	if len(vars) == 0 {
		vars = defaultVariables
	}
	for _, v := range vars {
		b.WriteByte('&')
		b.WriteString(v)
		b.WriteString("=on")
	}

	levs := d.Levels
	if len(levs) == 0 {
		levs = defaultLevels
	}
	for _, l := range levs {
		b.WriteByte('&')
		b.WriteString(l)
		b.WriteString("=on")
	}

	// subregion is always present; whole globe when no bbox was pushed.
	// The endpoint takes integer degrees, so bounds are truncated.
	latMin, latMax, lonMin, lonMax := d.LatMin, d.LatMax, d.LonMin, d.LonMax
	if !d.HasBBox {
		latMin, latMax, lonMin, lonMax = -90, 90, 0, 360
	}
	fmt.Fprintf(&b, "&subregion=&toplat=%d&bottomlat=%d&leftlon=%d&rightlon=%d",
		int(latMax), int(latMin), int(lonMin), int(lonMax))

	return b.String()
}
