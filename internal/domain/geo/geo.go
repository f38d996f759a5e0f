// Package geo maps geographic coordinates onto the unit sphere so that a
// vector store can answer proximity queries with cosine similarity.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for distance conversion.
const EarthRadiusMeters = 6_371_000.0

// Dim is the vector size produced by Vector.
const Dim = 3

// Vector converts latitude and longitude in degrees to a unit ECEF vector.
// The cosine similarity of two such vectors equals the cosine of the
// central angle between the points, so a similarity search over them
// orders results by great-circle distance.
func Vector(latDeg, lonDeg float64) []float32 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	return []float32{
		float32(math.Cos(lat) * math.Cos(lon)),
		float32(math.Cos(lat) * math.Sin(lon)),
		float32(math.Sin(lat)),
	}
}

// LatLon recovers latitude and longitude in degrees from a unit vector.
// Longitude is undefined at the poles and comes back as 0 there.
func LatLon(v []float32) (lat, lon float64) {
	if len(v) != Dim {
		return 0, 0
	}
	x, y, z := float64(v[0]), float64(v[1]), float64(v[2])
	lat = math.Asin(clamp(z)) * 180 / math.Pi
	lon = math.Atan2(y, x) * 180 / math.Pi
	return lat, lon
}

// Distance converts a cosine similarity score between two unit vectors
// into great-circle meters. Numerical noise can push a score slightly
// outside [-1, 1]; it is clamped.
func Distance(similarity float64) float64 {
	return EarthRadiusMeters * math.Acos(clamp(similarity))
}

// Haversine returns the great-circle distance in meters between two points
// given as latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Valid reports whether latitude is in [-90, 90] and longitude in
// [-180, 180].
func Valid(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
