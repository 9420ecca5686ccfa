// Package pointcloud generates synthetic point clouds and measures how far
// transforms move them, for registration accuracy checks.
package pointcloud

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/regviz/internal/geometry"
)

// DefaultPrecision is the number of decimals FormatPoint callers use unless told otherwise.
const DefaultPrecision = 1

// Transform is what the point-cloud utilities need from a spatial transform.
type Transform interface {
	Dimension() int
	TransformPoint(p geometry.Point) (geometry.Point, error)
	SetParameters(params []float64) error
}

// FormatPoint renders each coordinate with exactly precision decimals,
// separated by single spaces.
func FormatPoint(p geometry.Point, precision int) string {
	if precision < 0 {
		precision = 0
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = strconv.FormatFloat(c, 'f', precision, 64)
	}
	return strings.Join(parts, " ")
}

// UniformRandomPoints draws count points uniformly within bounds. Each bound
// is normalised first and each coordinate is an independent draw. A nil rng
// uses a time-seeded source.
func UniformRandomPoints(rng *rand.Rand, bounds geometry.Bounds, count int) ([]geometry.Point, error) {
	if count < 0 {
		return nil, fmt.Errorf("point count must be non-negative, got %d", count)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	norm := bounds.Normalize()

	// Fill one coordinate row at a time so each dimension is its own stream of draws.
	points := make([]geometry.Point, count)
	for i := range points {
		points[i] = make(geometry.Point, len(norm))
	}
	for d, b := range norm {
		for i := 0; i < count; i++ {
			points[i][d] = b.Min + rng.Float64()*(b.Max-b.Min)
		}
	}
	return points, nil
}
