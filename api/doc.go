// Package api provides the HTTP REST API for the grid planner.
//
// Endpoints:
//
// Planning:
//   - POST /api/solve - Solve a stored level or an inline layout
//   - POST /api/levels/{name}/solve - Solve a stored level by ID
//
// Levels:
//   - GET /api/levels - List levels, optionally ?variant=sokoban
//   - GET /api/levels/{name} - Get a level definition
//   - POST /api/levels - Save a level (ID from ?id= or the level name)
//
// Run history:
//   - GET /api/runs - List runs, newest first (?level=, ?status=, ?limit=)
//   - GET /api/runs/{id} - Get one run
//   - DELETE /api/runs/{id} - Delete a run
//
// Other:
//   - GET /api/health - Liveness and version
//   - GET /ws?level=ID - Subscribe to solve results for a level
//
// A solve request body looks like:
//
//	{
//	  "level": "corridor",          // or omit and send "layout"
//	  "layout": ["#####", "#@$.#", "#####"],
//	  "variant": "sokoban",         // optional, inferred from the map
//	  "horizon": 50,                // optional
//	  "max_states": 200000          // optional
//	}
//
// Failing to find a plan is not an error: the response has status 200 and
// "status": "no_plan". Errors are returned as {"error": "..."} with 400 for
// malformed requests or levels, 404 for unknown levels or runs, and 500
// otherwise.
package api
