package pointcloud

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/banshee-data/regviz/internal/geometry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ComparisonPointCount is the number of random points CompareTransforms samples.
const ComparisonPointCount = 10

// TargetRegistrationErrors returns, for each i, the Euclidean distance between
// tx(points[i]) and refs[i]. When the points took no part in the registration
// this is the target registration error.
func TargetRegistrationErrors(tx Transform, points, refs []geometry.Point) ([]float64, error) {
	if len(points) != len(refs) {
		return nil, &LengthMismatchError{What: "points and reference points", Left: len(points), Right: len(refs)}
	}
	errs := make([]float64, len(points))
	for i, p := range points {
		moved, err := tx.TransformPoint(p)
		if err != nil {
			return nil, fmt.Errorf("transform point %d: %w", i, err)
		}
		if len(moved) != len(refs[i]) {
			return nil, &LengthMismatchError{What: fmt.Sprintf("coordinates of point %d", i), Left: len(moved), Right: len(refs[i])}
		}
		errs[i] = floats.Distance(moved, refs[i], 2)
	}
	return errs, nil
}

// ErrorSummary holds summary statistics of a set of distances.
type ErrorSummary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	N      int
}

// Summarize computes min, max, mean and population standard deviation.
func Summarize(values []float64) ErrorSummary {
	if len(values) == 0 {
		return ErrorSummary{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return ErrorSummary{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
		N:      len(values),
	}
}

func (s ErrorSummary) String() string {
	return fmt.Sprintf("Differences - min: %.2f, max: %.2f, mean: %.2f, std: %.2f", s.Min, s.Max, s.Mean, s.StdDev)
}

// CompareTransforms checks whether tx1 and tx2 behave alike by mapping random
// points from a fixed region through both and measuring the distances. Both
// must be 2D or both 3D. This is a sanity check only: a small sample can miss
// local differences.
func CompareTransforms(rng *rand.Rand, tx1, tx2 Transform) (ErrorSummary, error) {
	d1, d2 := tx1.Dimension(), tx2.Dimension()
	if d1 != d2 || (d1 != 2 && d1 != 3) {
		return ErrorSummary{}, &UnsupportedDimensionError{Op: "compare transforms", Dims: []int{d1, d2}}
	}
	bounds, err := geometry.ComparisonBounds(d1)
	if err != nil {
		return ErrorSummary{}, err
	}

	points, err := UniformRandomPoints(rng, bounds, ComparisonPointCount)
	if err != nil {
		return ErrorSummary{}, err
	}
	refs := make([]geometry.Point, len(points))
	for i, p := range points {
		if refs[i], err = tx1.TransformPoint(p); err != nil {
			return ErrorSummary{}, fmt.Errorf("reference transform: %w", err)
		}
	}

	diffs, err := TargetRegistrationErrors(tx2, points, refs)
	if err != nil {
		return ErrorSummary{}, err
	}
	return Summarize(diffs), nil
}

// PrintTransformationDifferences runs CompareTransforms and writes the summary line to w.
func PrintTransformationDifferences(w io.Writer, rng *rand.Rand, tx1, tx2 Transform) error {
	s, err := CompareTransforms(rng, tx1, tx2)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s.String())
	return err
}
