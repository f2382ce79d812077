// Command gridgen is the CLI surface of spec.md §6: adaptive
// longest-edge-bisection refinement of a tetrahedral background grid
// against implicit functions, in IA, MI or CSG mode.
package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/deadsy/adgrid/csgtree"
	"github.com/deadsy/adgrid/gridio"
	"github.com/deadsy/adgrid/ifunc"
	"github.com/deadsy/adgrid/refine"
	"github.com/deadsy/adgrid/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cliArgs struct {
	gridFile     string
	functionFile string
	threshold    float64
	alpha        float64
	maxElements  int
	shortestEdge float64
	method       string
	csgFile      string
	curveNetwork bool
	discretize   bool
}

func main() {
	args := &cliArgs{alpha: math.Inf(1), maxElements: -1}

	root := &cobra.Command{
		Use:   "gridgen GRID FUNCTION",
		Short: "Longest edge bisection refinement of a tetrahedral background grid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.gridFile = positional[0]
			args.functionFile = positional[1]
			return run(args)
		},
	}

	flags := root.Flags()
	flags.Float64VarP(&args.threshold, "threshold", "t", 0, "threshold value")
	flags.Float64VarP(&args.alpha, "alpha", "a", math.Inf(1), "alpha quality feedback scale")
	flags.StringVarP(&args.method, "option", "o", "IA", "implicit manifold mode: IA, MI or CSG")
	flags.StringVar(&args.csgFile, "tree", "", "CSG tree file")
	flags.IntVarP(&args.maxElements, "max-elements", "m", -1, "maximum number of elements (-1: unbounded)")
	flags.Float64VarP(&args.shortestEdge, "shortest-edge", "s", 0, "shortest edge length, reserved for a future stopping criterion")
	flags.BoolVarP(&args.curveNetwork, "curve_network", "c", false, "generate curve network only")
	flags.BoolVarP(&args.discretize, "discretize", "d", false, "save the grid and function values for discretizing later")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func run(args *cliArgs) error {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	mode, err := parseMode(args.method)
	if err != nil {
		return err
	}

	mesh, err := gridio.LoadGrid(args.gridFile)
	if err != nil {
		return fmt.Errorf("gridgen: %w", err)
	}

	fnData, err := os.ReadFile(args.functionFile)
	if err != nil {
		return fmt.Errorf("gridgen: reading function file: %w", err)
	}
	functions, err := ifunc.LoadFunctions(fnData)
	if err != nil {
		return fmt.Errorf("gridgen: %w", err)
	}
	evaluate := ifunc.NewEvaluator(functions)

	var csgEval refine.CSGEvaluator
	if mode == refine.CSG {
		if args.csgFile == "" {
			return fmt.Errorf("gridgen: %w: CSG mode requires --tree", refine.ErrInput)
		}
		treeData, err := os.ReadFile(args.csgFile)
		if err != nil {
			return fmt.Errorf("gridgen: reading csg tree file: %w", err)
		}
		tree, err := csgtree.Parse(treeData)
		if err != nil {
			return fmt.Errorf("gridgen: %w", err)
		}
		csgEval = tree.Eval
	}

	cfg := refine.DefaultConfig()
	cfg.Mode = mode
	cfg.CurveNetwork = args.curveNetwork
	cfg.Threshold = args.threshold
	cfg.Alpha = args.alpha
	cfg.FuncNum = len(functions)
	cfg.Logger = logger
	if args.maxElements >= 0 {
		cfg.MaxElements = args.maxElements
	}

	engine, err := refine.NewEngine(mesh, evaluate, csgEval, cfg)
	if err != nil {
		return fmt.Errorf("gridgen: %w", err)
	}

	start := time.Now()
	result, err := engine.Run()
	if err != nil {
		return fmt.Errorf("gridgen: refinement failed: %w", err)
	}

	timingValues := make([]float64, len(stats.TimerLabels))
	timingValues[1] = result.Elapsed.Seconds()
	if err := stats.SaveTimings("timings.json", timingValues); err != nil {
		return fmt.Errorf("gridgen: %w", err)
	}
	if err := stats.SaveMetrics("stats.json", result); err != nil {
		return fmt.Errorf("gridgen: %w", err)
	}

	logger.Info("refinement complete",
		zap.Int("total_tet", result.TotalTet),
		zap.Int("active_tet", result.ActiveTet),
		zap.Duration("wall_time", time.Since(start)))

	if args.discretize {
		if err := gridio.SaveGridJSON("grid.json", mesh); err != nil {
			return fmt.Errorf("gridgen: %w", err)
		}
		if err := gridio.SaveFunctionValueJSON("function_value.json", mesh, result.VertexFuncGradCache, cfg.FuncNum); err != nil {
			return fmt.Errorf("gridgen: %w", err)
		}
		if err := gridio.WriteMsh("tet_grid.msh", mesh, nil); err != nil {
			return fmt.Errorf("gridgen: %w", err)
		}
		if err := gridio.WriteMsh("active_tets.msh", mesh, result.ActiveTetId); err != nil {
			return fmt.Errorf("gridgen: %w", err)
		}
	}

	return nil
}

func parseMode(method string) (refine.Mode, error) {
	switch method {
	case "IA":
		return refine.IA, nil
	case "MI":
		return refine.MI, nil
	case "CSG":
		return refine.CSG, nil
	default:
		return 0, fmt.Errorf("gridgen: %w: unknown mode %q", refine.ErrPrecondition, method)
	}
}
