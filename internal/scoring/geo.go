package scoring

import "math"

// LatLon is a geographic coordinate in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points (haversine).
func DistanceKm(a, b LatLon) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// SnapshotDistanceKm returns the distance between two snapshots, or -1 when
// either side has no known location.
func SnapshotDistanceKm(a, b Snapshot) float64 {
	if a.Location == nil || b.Location == nil {
		return -1
	}
	return DistanceKm(*a.Location, *b.Location)
}
