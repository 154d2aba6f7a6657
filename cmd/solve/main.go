// Command solve plans a path through a single map file and prints it.
//
//	solve [--horizon N] [--max-states N] [--variant navigation|sokoban] [--json] [--show] MAPFILE
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/gridplanner/game/engine"
	"github.com/wricardo/mcp-training/gridplanner/game/service"
)

// options mirrors the command-line flags.
type options struct {
	Horizon   int
	MaxStates int
	Variant   string
	JSON      bool
	Show      bool
}

// output is the --json document.
type output struct {
	Map       string             `json:"map"`
	Variant   engine.Variant     `json:"variant"`
	Status    service.Status     `json:"status"`
	Message   string             `json:"message"`
	Reason    string             `json:"reason,omitempty"`
	Path      *engine.Path       `json:"path,omitempty"`
	Plan      []service.PlanStep `json:"plan,omitempty"`
	Reward    float64            `json:"reward"`
	Stats     engine.BuildStats  `json:"stats"`
	Explored  int                `json:"explored"`
	Horizon   int                `json:"horizon"`
	MaxStates int                `json:"max_states"`
}

// solveFile loads path, runs the pipeline and writes the report to w.
// A missing file prints "Map-file not found" and returns ErrMapNotFound.
func solveFile(ctx context.Context, w io.Writer, path string, opts options) (*service.Solution, error) {
	if opts.Horizon < engine.MinHorizon || opts.Horizon > engine.MaxHorizon {
		return nil, fmt.Errorf("horizon must be between %d and %d, got %d", engine.MinHorizon, engine.MaxHorizon, opts.Horizon)
	}
	if opts.MaxStates < engine.MinMaxStates || opts.MaxStates > engine.MaxMaxStates {
		return nil, fmt.Errorf("max-states must be between %d and %d, got %d", engine.MinMaxStates, engine.MaxMaxStates, opts.MaxStates)
	}
	variant, err := engine.ParseVariant(opts.Variant)
	if err != nil {
		return nil, err
	}

	problem, err := engine.LoadMap(path)
	if err != nil {
		if errors.Is(err, engine.ErrMapNotFound) {
			fmt.Fprintln(w, "Map-file not found")
		}
		return nil, err
	}

	sol, err := service.SolveProblem(ctx, nil, problem, variant, opts.Horizon, opts.MaxStates)
	if err != nil {
		return nil, err
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return sol, enc.Encode(output{
			Map:       path,
			Variant:   sol.Variant,
			Status:    sol.Status,
			Message:   sol.Message,
			Reason:    sol.Reason,
			Path:      sol.Path,
			Plan:      service.PlanSteps(sol.Plan),
			Reward:    sol.Reward,
			Stats:     sol.Stats,
			Explored:  sol.Explored,
			Horizon:   opts.Horizon,
			MaxStates: opts.MaxStates,
		})
	}

	fmt.Fprintln(w, sol.Message)
	if opts.Show {
		for _, line := range engine.NewRenderView(problem, sol.Path).Lines() {
			fmt.Fprintln(w, line)
		}
	}
	return sol, nil
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "plan a path through a grid map",
		ArgsUsage: "MAPFILE",
		Writer:    w,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "horizon",
				Aliases: []string{"n"},
				Value:   engine.DefaultHorizon,
				Usage:   "maximum plan length in steps",
			},
			&cli.IntFlag{
				Name:  "max-states",
				Value: engine.DefaultMaxStates,
				Usage: "state-space size limit",
			},
			&cli.StringFlag{
				Name:  "variant",
				Usage: "navigation or sokoban (inferred from the map when empty)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the result as JSON",
			},
			&cli.BoolFlag{
				Name:  "show",
				Usage: "draw the map with the path overlay",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one MAPFILE argument")
			}
			_, err := solveFile(ctx, w, cmd.Args().First(), options{
				Horizon:   int(cmd.Int("horizon")),
				MaxStates: int(cmd.Int("max-states")),
				Variant:   cmd.String("variant"),
				JSON:      cmd.Bool("json"),
				Show:      cmd.Bool("show"),
			})
			return err
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, engine.ErrMapNotFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
