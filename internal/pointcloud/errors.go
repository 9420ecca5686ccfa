package pointcloud

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is matched by LengthMismatchError.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrUnsupportedDimension is matched by UnsupportedDimensionError.
	ErrUnsupportedDimension = errors.New("unsupported dimension")
)

// LengthMismatchError reports two sequences that must correspond but do not.
type LengthMismatchError struct {
	What  string
	Left  int
	Right int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: %d vs %d", e.What, e.Left, e.Right)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// UnsupportedDimensionError reports a transform dimension an operation cannot handle.
type UnsupportedDimensionError struct {
	Op   string
	Dims []int
}

func (e *UnsupportedDimensionError) Error() string {
	return fmt.Sprintf("%s: unsupported transform dimension %v", e.Op, e.Dims)
}

func (e *UnsupportedDimensionError) Is(target error) bool { return target == ErrUnsupportedDimension }
