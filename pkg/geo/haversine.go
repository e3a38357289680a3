package geo

import "math"

// EarthRadiusKm is the Earth radius in kilometers.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in km between two points
// (lat/lng in degrees) using the spherical law of cosines. The acos argument
// is clamped to [-1, 1] so coincident or antipodal points cannot produce a
// NaN from floating-point rounding.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(lat1), rad(lat2)
	Δλ := rad(lng2) - rad(lng1)
	arg := math.Cos(φ1)*math.Cos(φ2)*math.Cos(Δλ) + math.Sin(φ1)*math.Sin(φ2)
	if arg > 1 {
		arg = 1
	} else if arg < -1 {
		arg = -1
	}
	return EarthRadiusKm * math.Acos(arg)
}

// DegreeDelta approximates the lat/lng degree span covering radiusKm, for
// bounding-box prefilters (1 degree ~ 111 km at the equator).
func DegreeDelta(radiusKm float64) float64 {
	return radiusKm / 111.0
}

// ValidLatitude reports whether lat is within [-90, 90].
func ValidLatitude(lat float64) bool { return lat >= -90 && lat <= 90 }

// ValidLongitude reports whether lng is within [-180, 180].
func ValidLongitude(lng float64) bool { return lng >= -180 && lng <= 180 }
