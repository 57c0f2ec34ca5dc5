package main

import (
	"github.com/spf13/cobra"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/session"
	"github.com/alexsr/of-vis-sub000/pkg/trimesh"
)

type statsReport struct {
	Vertices   int                `json:"vertices"`
	Triangles  int                `json:"triangles"`
	Boundaries int                `json:"boundaries"`
	Stats      trimesh.Stats      `json:"stats"`
	Warnings   []geometry.Finding `json:"warnings"`
}

var statsCmd = &cobra.Command{
	Use:   "stats [mesh.json]",
	Short: "Measure a surface mesh",
	Long:  "Report volume, edge-length and angle extents, and the number of open boundaries of a mesh.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g, err := readMesh(args[0])
	if err != nil {
		return err
	}
	s := session.New(cfg, nil)
	vr, err := s.Load(g)
	if err != nil {
		return err
	}
	st, err := s.Stats()
	if err != nil {
		return err
	}
	loops, err := s.Boundaries()
	if err != nil {
		return err
	}
	warnings := vr.Warnings
	if warnings == nil {
		warnings = []geometry.Finding{}
	}
	return writeJSON(statsReport{
		Vertices:   g.VertexCount(),
		Triangles:  g.TriangleCount(),
		Boundaries: loops,
		Stats:      st,
		Warnings:   warnings,
	})
}
