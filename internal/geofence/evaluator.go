package geofence

import (
	"errors"
	"fmt"

	"tourguard/pkg/geo"
)

var ErrInvalidInput = errors.New("invalid input")

// Evaluator finds the zones that contain a point. Implementations must
// report every containing zone, in the order zones are given.
type Evaluator interface {
	Evaluate(p geo.Point, zones []Zone) (ContainmentResult, error)
}

// LinearEvaluator tests every zone against the haversine distance.
type LinearEvaluator struct{}

func (LinearEvaluator) Evaluate(p geo.Point, zones []Zone) (ContainmentResult, error) {
	if !p.Finite() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, geo.ErrNotFinite)
	}
	result := ContainmentResult{}
	for _, z := range zones {
		if Contains(z, p) {
			result = append(result, newEntry(z))
		}
	}
	return result, nil
}

// Contains reports whether p lies inside z. The boundary counts as inside.
func Contains(z Zone, p geo.Point) bool {
	return geo.Distance(p, z.Center) <= z.Radius
}
