// Package convert holds the derived-quantity formulas applied on top of
// decoded feed values: temperature scales, wind speed and direction from
// u/v components, pressure units and apparent-temperature indexes.
package convert

import "math"

func KelvinToCelsius(k float64) float64     { return k - 273.15 }
func CelsiusToFahrenheit(c float64) float64 { return c*9.0/5.0 + 32 }
func KelvinToFahrenheit(k float64) float64  { return (k-273.15)*9.0/5.0 + 32 }
func FahrenheitToCelsius(f float64) float64 { return (f - 32) * 5.0 / 9.0 }

// WindSpeed is the magnitude of the u/v wind components in m/s.
func WindSpeed(u, v float64) float64 { return math.Sqrt(u*u + v*v) }

// WindDirection is the meteorological direction the wind blows from, in
// degrees clockwise from north. ok is false for perfectly calm air, where
// no direction exists.
func WindDirection(u, v float64) (deg float64, ok bool) {
	if u == 0 && v == 0 {
		return 0, false
	}
	deg = math.Mod(math.Atan2(-u, -v)*180/math.Pi+360, 360)
	return deg, true
}

func MsToKmh(ms float64) float64   { return ms * 3.6 }
func MsToMph(ms float64) float64   { return ms * 2.237 }
func MsToKnots(ms float64) float64 { return ms * 1.944 }

func PaToHpa(pa float64) float64     { return pa / 100.0 }
func HpaToInhg(hpa float64) float64  { return hpa * 0.02953 }
func InhgToHpa(inhg float64) float64 { return inhg / 0.02953 }

// DewPoint uses the Magnus approximation; temperature in Celsius,
// relative humidity in percent.
func DewPoint(tempC, rh float64) float64 {
	gamma := math.Log(rh/100.0) + (17.625*tempC)/(243.04+tempC)
	return 243.04 * gamma / (17.625 - gamma)
}

// HeatIndex is the simplified Rothfusz regression, meaningful above 27 C
// and 40% humidity; below 27 C the input temperature is returned.
func HeatIndex(tempC, rh float64) float64 {
	if tempC < 27 {
		return tempC
	}
	return -8.785 + 1.611*tempC + 2.339*rh - 0.146*tempC*rh -
		0.013*tempC*tempC - 0.016*rh*rh + 0.002*tempC*tempC*rh +
		0.001*tempC*rh*rh - 0.000002*tempC*tempC*rh*rh
}

// WindChill is the Environment Canada formula, meaningful at or below
// 10 C with wind of at least 4.8 km/h; outside that envelope the input
// temperature is returned.
func WindChill(tempC, windKmh float64) float64 {
	if tempC > 10 || windKmh < 4.8 {
		return tempC
	}
	pw := math.Pow(windKmh, 0.16)
	return 13.12 + 0.6215*tempC - 11.37*pw + 0.3965*tempC*pw
}

// FeelsLike picks the heat index in hot humid conditions, wind chill in
// cold windy ones, and the plain temperature otherwise.
func FeelsLike(tempC, rh, windKmh float64) float64 {
	switch {
	case tempC >= 27 && rh >= 40:
		return HeatIndex(tempC, rh)
	case tempC <= 10 && windKmh >= 4.8:
		return WindChill(tempC, windKmh)
	default:
		return tempC
	}
}

var beaufort = []struct {
	below float64
	desc  string
}{
	{0.5, "Calm"},
	{1.6, "Light air"},
	{3.4, "Light breeze"},
	{5.5, "Gentle breeze"},
	{8.0, "Moderate breeze"},
	{10.8, "Fresh breeze"},
	{13.9, "Strong breeze"},
	{17.2, "High wind"},
	{20.8, "Gale"},
	{24.5, "Strong gale"},
	{28.5, "Storm"},
	{32.7, "Violent storm"},
}

// BeaufortScale maps a wind speed in m/s onto the 0..12 Beaufort force.
func BeaufortScale(windMs float64) int {
	for force, b := range beaufort {
		if windMs < b.below {
			return force
		}
	}
	return 12
}

// BeaufortDescription is the conventional name of the Beaufort force.
func BeaufortDescription(windMs float64) string {
	for _, b := range beaufort {
		if windMs < b.below {
			return b.desc
		}
	}
	return "Hurricane"
}

// CardinalDirection buckets a bearing in degrees into one of the eight
// compass points.
func CardinalDirection(deg float64) string {
	deg = math.Mod(math.Mod(deg, 360)+360, 360)
	switch {
	case deg < 22.5 || deg >= 337.5:
		return "N"
	case deg < 67.5:
		return "NE"
	case deg < 112.5:
		return "E"
	case deg < 157.5:
		return "SE"
	case deg < 202.5:
		return "S"
	case deg < 247.5:
		return "SW"
	case deg < 292.5:
		return "W"
	default:
		return "NW"
	}
}
