package weather

import "strconv"

// precipitationNames decodes the PTY category. Codes 5-7 appear only
// in the ultra-short products.
var precipitationNames = map[string]string{
	"0": "None",
	"1": "Rain",
	"2": "Rain/Snow",
	"3": "Snow",
	"4": "Shower",
	"5": "Drizzle",
	"6": "Drizzle/Snow",
	"7": "Snow Flurry",
}

// PrecipitationName decodes a PTY code, echoing unknown codes back.
func PrecipitationName(code string) string {
	if name, ok := precipitationNames[code]; ok {
		return name
	}
	return code
}

// skyNames decodes the SKY category.
var skyNames = map[string]string{
	"1": "Clear",
	"3": "Partly Cloudy",
	"4": "Cloudy",
}

// SkyName decodes a SKY code, echoing unknown codes back.
func SkyName(code string) string {
	if name, ok := skyNames[code]; ok {
		return name
	}
	return code
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassDirection converts a VEC wind direction in degrees to a
// 16-point compass label. Non-numeric input is echoed back.
func CompassDirection(deg string) string {
	d, err := strconv.ParseFloat(deg, 64)
	if err != nil {
		return deg
	}
	for d < 0 {
		d += 360
	}
	idx := int((d+11.25)/22.5) % 16
	return compassPoints[idx]
}
