// Package planner searches an engine.WorldModel for a plan.
//
// The search depends only on the WorldModel interface: the state set, the
// legal-action enumeration, the transition and reward functions and the
// goal test. BreadthFirst is a deterministic, horizon-bounded planner that
// returns either a Success outcome carrying the plan or a Failure outcome
// with a reason. Errors are reserved for a broken world model or a
// cancelled context.
package planner
