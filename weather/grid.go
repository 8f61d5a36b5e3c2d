// Package weather provides a typed client for the KMA village
// forecast service (VilageFcstInfoService_2.0): ultra-short nowcasts,
// hourly forecasts and the three-day village forecast, addressed by
// WGS84 coordinates.
package weather

import (
	"fmt"
	"math"
)

// Lambert conformal conic projection parameters for the KMA forecast
// grid. These match the published service definition and must not be
// changed independently of it.
const (
	earthRadiusKM = 6371.00877
	gridKM        = 5.0

	standardLat1 = 30.0 // deg
	standardLat2 = 60.0 // deg
	originLon    = 126.0
	originLat    = 38.0

	originX = 210.0 / gridKM
	originY = 675.0 / gridKM
)

// GridPoint is a cell on the KMA forecast grid.
type GridPoint struct {
	X int
	Y int
}

// ToGrid converts a WGS84 coordinate to the KMA forecast grid cell
// containing it.
func ToGrid(lon, lat float64) (GridPoint, error) {
	if lon < -180 || lon > 180 {
		return GridPoint{}, fmt.Errorf("weather: longitude %v out of range", lon)
	}
	if lat < -90 || lat > 90 {
		return GridPoint{}, fmt.Errorf("weather: latitude %v out of range", lat)
	}

	const degrad = math.Pi / 180.0
	re := earthRadiusKM / gridKM
	slat1 := standardLat1 * degrad
	slat2 := standardLat2 * degrad
	olon := originLon * degrad
	olat := originLat * degrad

	sn := math.Tan(math.Pi*0.25+slat2*0.5) / math.Tan(math.Pi*0.25+slat1*0.5)
	sn = math.Log(math.Cos(slat1)/math.Cos(slat2)) / math.Log(sn)
	sf := math.Tan(math.Pi*0.25 + slat1*0.5)
	sf = math.Pow(sf, sn) * math.Cos(slat1) / sn
	ro := math.Tan(math.Pi*0.25 + olat*0.5)
	ro = re * sf / math.Pow(ro, sn)

	ra := math.Tan(math.Pi*0.25 + lat*degrad*0.5)
	ra = re * sf / math.Pow(ra, sn)
	theta := lon*degrad - olon
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= sn

	return GridPoint{
		X: int(math.Floor(ra*math.Sin(theta) + originX + 1.5)),
		Y: int(math.Floor(ro - ra*math.Cos(theta) + originY + 1.5)),
	}, nil
}
