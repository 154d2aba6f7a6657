// Command analyze prints state-space statistics for every level in a
// directory: dimensions, free cells, boxes, the agent's reachable region, a
// distance lower bound for navigation levels, and the number of states the
// builder enumerates, or that the budget was exhausted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wricardo/mcp-training/gridplanner/game/config"
	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

// Analysis summarizes one level.
type Analysis struct {
	LevelID   string
	Name      string
	Variant   engine.Variant
	Size      string
	FreeCells int
	Reachable int
	Boxes     int
	Targets   int
	// LowerBound is the Manhattan distance from agent to goal; navigation only.
	LowerBound int
	States     int
	TooLarge   bool
	Elapsed    time.Duration
}

func analyzeLevel(ctx context.Context, id string, level *engine.LevelConfig, maxStates int) (*Analysis, error) {
	p, err := level.Problem()
	if err != nil {
		return nil, err
	}
	variant := level.EffectiveVariant(p)

	a := &Analysis{
		LevelID:   id,
		Name:      level.Name,
		Variant:   variant,
		Size:      p.Dimensions(),
		FreeCells: len(p.Grid.FreeCells()),
		Reachable: engine.CountReachable(p.Grid, p.Agent),
		Boxes:     len(p.Boxes),
		Targets:   len(p.Targets),
	}
	if goal, ok := p.Goal(); ok && variant == engine.Navigation {
		a.LowerBound = engine.ManhattanDistance(p.Agent, goal)
	}

	if maxStates <= 0 {
		maxStates = level.EffectiveMaxStates()
	}

	inst, err := engine.Compile(ctx, p, variant, maxStates)
	if inst != nil {
		a.States = inst.Stats.States
		a.Elapsed = inst.Stats.Duration
	}
	switch {
	case errors.Is(err, engine.ErrStateSpaceTooLarge):
		a.TooLarge = true
	case err != nil:
		return nil, err
	}
	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.LevelID)
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Variant: %s\n", a.Variant)
	fmt.Fprintf(w, "Grid Size: %s\n", a.Size)
	fmt.Fprintf(w, "Free Cells: %d (reachable from agent: %d)\n", a.FreeCells, a.Reachable)
	fmt.Fprintf(w, "Boxes: %d, Targets: %d\n", a.Boxes, a.Targets)
	if a.Variant == engine.Navigation {
		fmt.Fprintf(w, "Distance Lower Bound: %d\n", a.LowerBound)
	}
	if a.TooLarge {
		fmt.Fprintf(w, "⚠️  State space exceeds budget after %d states\n", a.States)
	} else {
		fmt.Fprintf(w, "✅ States: %d (built in %s)\n", a.States, a.Elapsed.Round(time.Microsecond))
	}
}

func run(ctx context.Context, w io.Writer, dir string, maxStates int) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	levels, err := manager.ListLevels()
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		return fmt.Errorf("no levels found in %s", dir)
	}

	for _, info := range levels {
		level, err := manager.LoadLevel(info.LevelID)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError loading level: %v\n", info.LevelID, err)
			continue
		}
		a, err := analyzeLevel(ctx, info.LevelID, level, maxStates)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError analyzing level: %v\n", info.LevelID, err)
			continue
		}
		printAnalysis(w, a)
	}
	return nil
}

func main() {
	dir := flag.String("levels-dir", "levels", "Directory containing level files")
	maxStates := flag.Int("max-states", 0, "State budget (0 uses each level's setting)")
	flag.Parse()

	if err := run(context.Background(), os.Stdout, *dir, *maxStates); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
