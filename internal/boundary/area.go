package boundary

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Area returns the planar area of a MultiPolygon in squared CRS units.
// The first ring of each polygon is the shell; subsequent rings are holes.
func Area(mp *geom.MultiPolygon) float64 {
	if mp == nil {
		return 0
	}
	var total float64
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		for r := 0; r < poly.NumLinearRings(); r++ {
			a := ringArea(poly.LinearRing(r))
			if r == 0 {
				total += a
			} else {
				total -= a
			}
		}
	}
	return total
}

// ringArea computes the absolute shoelace area of a linear ring.
func ringArea(ring *geom.LinearRing) float64 {
	flat := ring.FlatCoords()
	stride := ring.Stride()
	n := len(flat) / stride
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := flat[i*stride], flat[i*stride+1]
		xj, yj := flat[j*stride], flat[j*stride+1]
		sum += xi*yj - xj*yi
	}
	return math.Abs(sum) / 2
}
