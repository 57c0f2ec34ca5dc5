// Command vesselprep prepares vessel surface meshes for CFD: it measures
// meshes, detects inlet patches, assigns boundary conditions, builds vessel
// phantoms and transfers field samples onto surfaces.
//
// Meshes are read and written as JSON render meshes:
//
//	{"vertices": [x0,y0,z0, ...], "normals": [...], "indices": [i0,i1,i2, ...]}
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexsr/of-vis-sub000/pkg/config"
	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

var (
	configPath string
	outPath    string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "vesselprep",
	Short:         "Prepare vessel surface meshes for CFD",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(0)
		log.SetPrefix("vesselprep: ")
		if quiet {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (defaults are built in)")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "Write the result here instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig returns the --config file, or the defaults.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// readMesh decodes a JSON render mesh file.
func readMesh(path string) (*geometry.Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m geometry.RenderMesh
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g, err := geometry.FromRenderMesh(&m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// writeJSON writes v, indented, to --out or stdout.
func writeJSON(v any) error {
	w := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
