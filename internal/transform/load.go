package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Kinds accepted by Decode.
const (
	KindAffine            = "affine"
	KindTranslation       = "translation"
	KindDisplacementField = "displacement_field"
)

// Description is the JSON form of a transform.
type Description struct {
	Type            string    `json:"type"`
	Dimension       int       `json:"dimension"`
	Parameters      []float64 `json:"parameters"`
	FixedParameters []float64 `json:"fixed_parameters,omitempty"`
}

// Load reads a transform description from a JSON file.
func Load(path string) (Transform, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("transform file must have .json extension, got %q", ext)
	}
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open transform file: %w", err)
	}
	defer f.Close()

	tx, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return tx, nil
}

// Decode parses a JSON transform description.
func Decode(r io.Reader) (Transform, error) {
	var d Description
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse transform JSON: %w", err)
	}
	return d.Build()
}

// Build constructs the transform described by d.
func (d Description) Build() (Transform, error) {
	switch d.Type {
	case KindAffine:
		a, err := NewIdentityAffine(d.Dimension)
		if err != nil {
			return nil, err
		}
		if d.Parameters != nil {
			if err := a.SetParameters(d.Parameters); err != nil {
				return nil, err
			}
		}
		if len(d.FixedParameters) > 0 {
			if err := a.SetCenter(d.FixedParameters); err != nil {
				return nil, err
			}
		}
		return a, nil

	case KindTranslation:
		if d.Dimension > 0 && len(d.Parameters) != d.Dimension {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrParameterCount, len(d.Parameters), d.Dimension)
		}
		return NewTranslation(d.Parameters)

	case KindDisplacementField:
		if d.Dimension != 0 && d.Dimension != 2 {
			return nil, fmt.Errorf("displacement fields are 2D only, got dimension %d", d.Dimension)
		}
		fp := d.FixedParameters
		if len(fp) != 6 {
			return nil, fmt.Errorf("displacement field needs 6 fixed parameters (origin, spacing, size), got %d", len(fp))
		}
		nx, err := gridSize(fp[4])
		if err != nil {
			return nil, err
		}
		ny, err := gridSize(fp[5])
		if err != nil {
			return nil, err
		}
		f, err := NewDisplacementField([2]float64{fp[0], fp[1]}, [2]float64{fp[2], fp[3]}, nx, ny)
		if err != nil {
			return nil, err
		}
		if d.Parameters != nil {
			if err := f.SetParameters(d.Parameters); err != nil {
				return nil, err
			}
		}
		return f, nil

	default:
		return nil, fmt.Errorf("unknown transform type %q", d.Type)
	}
}

// gridSize converts a JSON node count, which must be a whole number within
// MaxFieldNodes.
func gridSize(v float64) (int, error) {
	if v < 1 || v > MaxFieldNodes || v != math.Trunc(v) {
		return 0, fmt.Errorf("displacement grid size must be a whole number in [1, %d], got %v", MaxFieldNodes, v)
	}
	return int(v), nil
}
