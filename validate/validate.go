// Command validate checks level files (.json and raw .txt maps). For each
// file it reports:
//   - Parse errors and unknown tiles
//   - Missing agent or target, and box/target count mismatches
//   - Horizon and max_states ranges
//   - Connectivity: targets and boxes the agent cannot walk to, as warnings
//
// Usage: validate [DIR|FILE ...]   (default: levels)
//
// The exit status is non-zero when any file is invalid.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds the problems found; Info holds informational lines (✓) and
// warnings (⚠) that do not make the file invalid.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

// validateLevel loads and validates a single level file.
func validateLevel(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	level, err := engine.LoadLevelConfig(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	p, err := level.Problem()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	variant := level.EffectiveVariant(p)

	result.Info = append(result.Info, connectivity(p, variant)...)

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", level.Name),
		fmt.Sprintf("✓ Variant: %s", variant),
		fmt.Sprintf("✓ Grid: %s", p.Dimensions()),
		fmt.Sprintf("✓ Boxes: %d, targets: %d", len(p.Boxes), len(p.Targets)),
		fmt.Sprintf("✓ Horizon: %d, max states: %d", level.EffectiveHorizon(), level.EffectiveMaxStates()),
	)

	return result
}

// connectivity flood-fills from the agent, ignoring boxes, and warns about
// targets and boxes outside that region. Such levels stay valid; the planner
// reports them as having no plan.
func connectivity(p *engine.Problem, variant engine.Variant) []string {
	region := engine.Reachable(p.Grid, p.Agent)

	var lines []string
	switch variant {
	case engine.Navigation:
		goal, _ := p.Goal()
		if region.Has(goal) {
			lines = append(lines, fmt.Sprintf("✓ Connectivity: goal %s reachable from %s", goal, p.Agent))
		} else {
			lines = append(lines, fmt.Sprintf("⚠ Connectivity: goal %s is walled off from %s", goal, p.Agent))
		}

	case engine.Sokoban:
		unreachable := 0
		for _, c := range p.Targets {
			if !region.Has(c) {
				unreachable++
				lines = append(lines, fmt.Sprintf("⚠ Unreachable target at %s", c))
			}
		}
		for _, c := range p.Boxes {
			if !region.Has(c) {
				unreachable++
				lines = append(lines, fmt.Sprintf("⚠ Unreachable box at %s", c))
			}
		}
		if unreachable == 0 {
			lines = append(lines, fmt.Sprintf("✓ Connectivity: all %d boxes and %d targets in the agent's region",
				len(p.Boxes), len(p.Targets)))
		}
	}
	return lines
}

// collectFiles expands directories into their level files.
func collectFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"levels"}
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, pattern := range []string{"*.json", "*.txt"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

func printResult(result ValidationResult) {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Info {
			fmt.Println("  " + info)
		}
		return
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		fmt.Println("  ❌ " + err)
	}
}

// run validates every file and reports whether all were valid.
func run(args []string) (bool, error) {
	files, err := collectFiles(args)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no level files found")
	}

	allValid := true
	for _, file := range files {
		result := validateLevel(file)
		printResult(result)
		if !result.Valid {
			allValid = false
		}
	}
	return allValid, nil
}

func main() {
	allValid, err := run(os.Args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
