package core

import "github.com/geosignals/quake-locator/model"

// LocationError returns the Euclidean distance in metres between the true
// point and the estimate. Validation support only; it has no role when no
// ground truth exists.
func LocationError(truePoint, estimate model.Vec3) float64 {
	return truePoint.DistanceTo(estimate)
}
