// Package service provides the business logic layer of the grid planner.
//
// The service package implements:
//   - The solve pipeline: parse, build, bind, plan, translate
//   - Level lookup and validation
//   - Run record bookkeeping
//
// Core Interfaces:
//
// SolverService is the main service interface used by every transport.
// LevelManager loads and stores levels. RunManager keeps a record of each
// solve.
//
// Usage:
//
//	levels, _ := config.NewManager("levels")
//	runMgr := runs.NewManager()
//	solver := service.NewSolverService(levels, runMgr)
//
//	result, err := solver.Solve(ctx, service.SolveRequest{Level: "corridor"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Message)
//
// Results:
//
// A solve ends in one of three statuses. StatusSolved carries the path,
// StatusNoPlan reports "No plan could be found." and
// StatusStateSpaceTooLarge means the node budget ran out before the state
// space was complete. Malformed input is returned as an error wrapping
// ErrInvalidRequest; a state-table invariant violation is returned as an
// error wrapping engine.ErrInvariantViolation.
package service
