// Package engine builds explicit state spaces for grid puzzles and the
// world models a planner searches over.
//
// Two variants are supported. In navigation a lone agent walks to a goal
// cell; in Sokoban the agent pushes boxes until every box rests on a target.
//
// Core Types:
//
// Grid is the immutable obstacle map. Builder enumerates every reachable
// State into a StateTable keyed by a structural Key (agent cell plus the
// packed, sorted box cells). NavigationModel and SokobanModel implement
// WorldModel over a table: legal actions, transitions resolved to canonical
// states, and the variant's reward. Translate turns a plan into a Path.
//
// Usage:
//
//	problem, err := engine.LoadMap("levels/corridor.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	inst, err := engine.Compile(ctx, problem, "", engine.DefaultMaxStates)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Hand inst.Model, inst.Start and inst.Goal to a planner, then
//	path := engine.Translate(plan)
//
// Rules:
//
// A move into an obstacle is illegal. A move into a box pushes it one cell
// further, legal only if that cell holds neither an obstacle nor another box.
// Still is always legal in Sokoban and legal only on the goal in navigation.
// Navigation charges -1 per step except from the goal; Sokoban scores the
// number of boxes on targets.
package engine
