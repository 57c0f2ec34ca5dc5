// Package config loads the tunables of the preparation pipeline from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/grid"
	"github.com/alexsr/of-vis-sub000/pkg/inlet"
	"github.com/alexsr/of-vis-sub000/pkg/phantom"
)

// Config is the root of the configuration file.
type Config struct {
	Detection Detection `yaml:"detection"`
	Grid      Grid      `yaml:"grid"`
	Phantom   Phantom   `yaml:"phantom"`
	Script    Script    `yaml:"script"`
}

// Detection tunes inlet detection.
type Detection struct {
	PlaneCount     int     `yaml:"plane_count"`
	MaxIterations  int     `yaml:"max_iterations"`
	MaxRetries     int     `yaml:"max_retries"`
	NormalDot      float64 `yaml:"normal_dot"`
	SpreadFactor   float64 `yaml:"spread_factor"`
	DistanceBand   float64 `yaml:"distance_band"`
	ManualDistance float64 `yaml:"manual_distance"`
	Seed           int64   `yaml:"seed"` // k-means++ seeding
}

// Grid tunes the interpolation grid.
type Grid struct {
	Kind     string  `yaml:"kind"`      // "volume" or "compact"
	CellSize float64 `yaml:"cell_size"` // 0 derives it from the target mesh
}

// Phantom describes the synthetic vessel built by the phantom command.
type Phantom struct {
	Cells int            `yaml:"cells"`
	Blend float64        `yaml:"blend"`
	Tree  phantom.Branch `yaml:"tree"`
}

// Script bounds boundary-condition script evaluation.
type Script struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := inlet.DefaultOptions()
	return Config{
		Detection: Detection{
			PlaneCount:     opts.PlaneCount,
			MaxIterations:  opts.MaxIterations,
			MaxRetries:     opts.MaxRetries,
			NormalDot:      opts.NormalDot,
			SpreadFactor:   opts.SpreadFactor,
			DistanceBand:   opts.DistanceBand,
			ManualDistance: opts.ManualDistance,
			Seed:           1,
		},
		Grid:    Grid{Kind: grid.Compact.String()},
		Phantom: Phantom{Cells: 96, Blend: 1, Tree: defaultTree()},
		Script:  Script{Timeout: 5 * time.Second},
	}
}

// defaultTree is an abdominal aorta stand-in: a trunk forking into two
// iliac branches, with a saccular aneurysm on its side.
func defaultTree() phantom.Branch {
	return phantom.Branch{
		Name: "aorta", Length: 30, Radius: 3,
		Children: []phantom.Branch{
			{Name: "left_iliac", Length: 20, Radius: 2, Rotate: r3.Vec{Y: 35}},
			{Name: "right_iliac", Length: 20, Radius: 2, Rotate: r3.Vec{Y: -35}},
			{Name: "sac", Length: 4, Radius: 1.5, Sac: 5, Translate: r3.Vec{Z: -12}, Rotate: r3.Vec{X: 90}},
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	// A tree in the file replaces the default one instead of merging into it.
	var probe struct {
		Phantom struct {
			Tree *yaml.Node `yaml:"tree"`
		} `yaml:"phantom"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if probe.Phantom.Tree != nil {
		cfg.Phantom.Tree = phantom.Branch{}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Detection.Options().Validate(); err != nil {
		return fmt.Errorf("config: detection: %w", err)
	}
	if _, err := grid.ParseKind(c.Grid.Kind); err != nil {
		return fmt.Errorf("config: grid: %w", err)
	}
	if c.Grid.CellSize < 0 {
		return fmt.Errorf("config: grid: cell size %g: %w", c.Grid.CellSize, geometry.ErrInvalidArgument)
	}
	if c.Phantom.Cells < 2 {
		return fmt.Errorf("config: phantom: %d cells: %w", c.Phantom.Cells, geometry.ErrInvalidArgument)
	}
	if c.Phantom.Blend < 0 {
		return fmt.Errorf("config: phantom: blend %g: %w", c.Phantom.Blend, geometry.ErrInvalidArgument)
	}
	if err := c.Phantom.Tree.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Script.Timeout <= 0 {
		return fmt.Errorf("config: script: timeout %s: %w", c.Script.Timeout, geometry.ErrInvalidArgument)
	}
	return nil
}

// Options converts the detection section.
func (d Detection) Options() inlet.Options {
	return inlet.Options{
		PlaneCount:     d.PlaneCount,
		MaxIterations:  d.MaxIterations,
		MaxRetries:     d.MaxRetries,
		NormalDot:      d.NormalDot,
		SpreadFactor:   d.SpreadFactor,
		DistanceBand:   d.DistanceBand,
		ManualDistance: d.ManualDistance,
	}
}

// GridKind returns the parsed grid kind. Call after Validate.
func (g Grid) GridKind() grid.Kind {
	k, _ := grid.ParseKind(g.Kind)
	return k
}
