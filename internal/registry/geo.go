package registry

// GeoPoint is a signed fixed-point coordinate pair at 1e-7 degree resolution.
// That resolution is about a centimeter at the equator, which is plenty for a
// venue pin.
type GeoPoint struct {
	LatE7 int32 `json:"lat_e7"`
	LngE7 int32 `json:"lng_e7"`
}

// Pack stores the pair in one word, latitude in the high half. Both halves
// keep their two's-complement bit pattern so negative coordinates survive.
func (g GeoPoint) Pack() uint64 {
	return uint64(uint32(g.LatE7))<<32 | uint64(uint32(g.LngE7))
}

// UnpackGeo reverses Pack.
func UnpackGeo(packed uint64) GeoPoint {
	return GeoPoint{
		LatE7: int32(uint32(packed >> 32)),
		LngE7: int32(uint32(packed)),
	}
}

// Valid reports whether the point is within the WGS84 coordinate domain.
func (g GeoPoint) Valid() bool {
	return g.LatE7 >= -900_000_000 && g.LatE7 <= 900_000_000 &&
		g.LngE7 >= -1_800_000_000 && g.LngE7 <= 1_800_000_000
}
