package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/grid"
	"github.com/alexsr/of-vis-sub000/pkg/session"
)

// samples is the interp input: scalar values at points of a simulation mesh.
type samples struct {
	Points [][3]float64 `json:"points"`
	Values []float64    `json:"values"`
	Radius float64      `json:"radius,omitempty"` // per-sample reach; 0 uses the grid cell radius
}

var interpCmd = &cobra.Command{
	Use:   "interp [mesh.json] [samples.json]",
	Short: "Transfer field samples onto mesh vertices",
	Long: `Interpolate scalar samples onto every vertex of a surface mesh with
modified Shepard weights. Vertices no sample reaches are written as null.`,
	Args: cobra.ExactArgs(2),
	RunE: runInterp,
}

func init() {
	rootCmd.AddCommand(interpCmd)
}

func runInterp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g, err := readMesh(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var in samples
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	if len(in.Points) != len(in.Values) {
		return fmt.Errorf("%s: %d points, %d values: %w", args[1], len(in.Points), len(in.Values), geometry.ErrInvalidArgument)
	}

	s := session.New(cfg, nil)
	if _, err := s.Load(g); err != nil {
		return err
	}
	points := lo.Map(in.Points, func(p [3]float64, _ int) r3.Vec {
		return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	})
	values, err := s.Interpolate(points, in.Values, in.Radius)
	if err != nil {
		return err
	}
	log.Printf("interpolated %d samples onto %d vertices", len(points), len(values))
	return writeJSON(lo.Map(values, func(v float64, _ int) *float64 {
		if v == grid.NoData {
			return nil
		}
		return &v
	}))
}
