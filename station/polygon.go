package station

type point struct {
	lat, lon float64
}

// pointInPolygon implements the standard ray-casting test over a closed
// ring of (lat, lon) vertices.
func pointInPolygon(p point, ring []point) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		pi, pj := ring[i], ring[j]
		if (pi.lon > p.lon) != (pj.lon > p.lon) {
			slope := (pj.lat - pi.lat) * (p.lon - pi.lon) / (pj.lon - pi.lon)
			if p.lat < pi.lat+slope {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// viennaBoundary is a coarse bounding polygon for the city of Vienna's
// administrative area, sufficient for the regional relevance test of
// §4.4; it intentionally trades precision for a small, dependency-free
// literal (no GIS library is warranted for a single static polygon).
func viennaBoundary() []point {
	return []point{
		{48.3333, 16.1833},
		{48.3333, 16.5770},
		{48.1200, 16.5770},
		{48.1200, 16.1833},
	}
}
