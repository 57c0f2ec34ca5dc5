package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/session"
)

var (
	detectStrategy string
	detectVertex   int
	detectAt       string
	detectName     string
	detectApply    string
	detectScript   string
)

var detectCmd = &cobra.Command{
	Use:   "detect [mesh.json]",
	Short: "Find inlet patches on a surface mesh",
	Long: `Find inlet patches with one strategy:

  auto    cluster crease vertices and grow a planar patch per cluster
  manual  grow one coplanar patch from --vertex or from the vertex nearest --at
  cap     close every open boundary with a fan and make each cap an inlet

Boundary conditions can then be assigned with --apply, and the resulting
inlets written back out as a script with --script.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&detectStrategy, "strategy", "s", "auto", "Detection strategy: auto, manual or cap")
	detectCmd.Flags().IntVar(&detectVertex, "vertex", -1, "Seed vertex for manual selection")
	detectCmd.Flags().StringVar(&detectAt, "at", "", "Seed point x,y,z for manual selection")
	detectCmd.Flags().StringVar(&detectName, "name", "", "Name of the manually selected inlet")
	detectCmd.Flags().StringVar(&detectApply, "apply", "", "Boundary-condition script to apply to the detected inlets")
	detectCmd.Flags().StringVar(&detectScript, "script", "", "Write the inlets as a boundary-condition script")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g, err := readMesh(args[0])
	if err != nil {
		return err
	}
	s := session.New(cfg, nil)
	if _, err := s.Load(g); err != nil {
		return err
	}

	var res session.Result
	switch detectStrategy {
	case "auto":
		res, err = s.DetectAutomatic()
	case "cap":
		res, err = s.CapHoles()
	case "manual":
		res, err = detectManual(s)
	default:
		return fmt.Errorf("unknown strategy %q (want auto, manual or cap): %w", detectStrategy, geometry.ErrInvalidArgument)
	}
	if err != nil {
		return err
	}

	if detectApply != "" {
		src, err := os.ReadFile(detectApply)
		if err != nil {
			return err
		}
		if res, err = s.ApplyScript(string(src)); err != nil {
			return err
		}
		for _, e := range res.Errors {
			log.Printf("%s:%d: %s", detectApply, e.Line, e.Message)
		}
		for _, w := range res.Warnings {
			log.Printf("%s:%d: warning: %s", detectApply, w.Line, w.Message)
		}
	}
	if detectScript != "" {
		if err := os.WriteFile(detectScript, []byte(s.EmitScript()), 0o644); err != nil {
			return err
		}
	}
	log.Printf("%d inlets", len(res.Inlets))
	return writeJSON(res)
}

func detectManual(s *session.Session) (session.Result, error) {
	var (
		sel session.SelectionResult
		err error
	)
	switch {
	case detectAt != "":
		p, perr := parseVec(detectAt)
		if perr != nil {
			return session.Result{}, perr
		}
		sel, err = s.SelectAt(p)
	case detectVertex >= 0:
		sel, err = s.SelectVertex(detectVertex)
	default:
		return session.Result{}, fmt.Errorf("manual selection needs --vertex or --at: %w", geometry.ErrInvalidArgument)
	}
	if err != nil {
		return session.Result{}, err
	}
	if !sel.Selected {
		log.Printf("vertex %d grew no patch", sel.Seed)
		return s.Snapshot(), nil
	}
	return s.Accept(detectName)
}

// parseVec reads "x,y,z".
func parseVec(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, fmt.Errorf("point %q: want x,y,z: %w", s, geometry.ErrInvalidArgument)
	}
	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("point %q: %v: %w", s, err, geometry.ErrInvalidArgument)
		}
		c[i] = f
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}
