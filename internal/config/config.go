// Package config loads the JSON settings shared by the regviz subcommands.
// Every field is optional; the Get* methods supply defaults for omitted values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatHTML = "html"
)

// Config is the root configuration.
type Config struct {
	OutputDir    *string  `json:"output_dir,omitempty"`
	Format       *string  `json:"format,omitempty"`
	PlotWidthIn  *float64 `json:"plot_width_in,omitempty"`
	PlotHeightIn *float64 `json:"plot_height_in,omitempty"`
	Precision    *int     `json:"precision,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
	DBPath       *string  `json:"db_path,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The path must have a .json extension
// and the file must be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the set values are usable.
func (c *Config) Validate() error {
	if c.Format != nil {
		switch *c.Format {
		case FormatPNG, FormatSVG, FormatHTML:
		default:
			return fmt.Errorf("format must be one of png, svg, html, got %q", *c.Format)
		}
	}
	if c.PlotWidthIn != nil && *c.PlotWidthIn <= 0 {
		return fmt.Errorf("plot_width_in must be positive, got %f", *c.PlotWidthIn)
	}
	if c.PlotHeightIn != nil && *c.PlotHeightIn <= 0 {
		return fmt.Errorf("plot_height_in must be positive, got %f", *c.PlotHeightIn)
	}
	if c.Precision != nil && (*c.Precision < 0 || *c.Precision > 17) {
		return fmt.Errorf("precision must be between 0 and 17, got %d", *c.Precision)
	}
	return nil
}

// GetOutputDir returns output_dir or "plots".
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "plots"
	}
	return *c.OutputDir
}

// GetFormat returns format or png.
func (c *Config) GetFormat() string {
	if c.Format == nil || *c.Format == "" {
		return FormatPNG
	}
	return *c.Format
}

// GetPlotSize returns the plot width and height, 8x4 inches by default.
func (c *Config) GetPlotSize() (vg.Length, vg.Length) {
	w, h := 8.0, 4.0
	if c.PlotWidthIn != nil {
		w = *c.PlotWidthIn
	}
	if c.PlotHeightIn != nil {
		h = *c.PlotHeightIn
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// GetPrecision returns precision or 1.
func (c *Config) GetPrecision() int {
	if c.Precision == nil {
		return 1
	}
	return *c.Precision
}

// GetSeed returns the seed and whether one was configured.
func (c *Config) GetSeed() (int64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}

// GetDBPath returns db_path or an empty string when traces should not be stored.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}
