// Package mcp exposes the grid planner to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the
// REST API and the JSON response is rendered as text for the agent.
//
// MCP Tools:
//   - solve_level: Solve a stored level
//   - solve_map: Solve an inline map
//   - list_levels: List stored levels
//   - describe_level: Show a level's map and settings
//   - get_run: Fetch a past solve run
//   - list_runs: List past solve runs
//   - planner_instructions: Map legend and result reference
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
