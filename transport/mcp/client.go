package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/gridplanner/game/engine"
	"github.com/wricardo/mcp-training/gridplanner/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Large Sokoban levels can take a while to enumerate
			Timeout: 60 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Planner",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Planner - MCP Interface

This is a thin client that proxies all requests to the REST API server.

WHAT IT DOES:
Given a grid map, the server enumerates every reachable state, runs a
breadth-first planner up to a step horizon, and returns the shortest path
as a start cell plus compass directions.

AVAILABLE TOOLS:
- solve_level: Solve a stored level by ID
- solve_map: Solve an inline map you provide row by row
- list_levels: List stored levels
- describe_level: Show a level's map and settings
- get_run: Fetch a past solve run
- list_runs: List past solve runs
- planner_instructions: Map format and result reference`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	budgetProps := map[string]interface{}{
		"horizon": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Maximum plan length in steps (default %d)", engine.DefaultHorizon),
		},
		"max_states": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("State-space size limit (default %d)", engine.DefaultMaxStates),
		},
		"variant": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"navigation", "sokoban"},
			"description": "Puzzle rules; inferred from the map when omitted",
		},
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_level",
		Description: "Solve a stored level and return the shortest path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withProps(budgetProps, map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID (see list_levels); the default level when omitted",
				},
			}),
		},
	}, c.handleSolveLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_map",
		Description: "Solve an inline map. Legend: # wall, @ agent, . target, $ box, * box on target, + agent on target, space floor",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withProps(budgetProps, map[string]interface{}{
				"layout": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Map rows, top to bottom",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Optional label recorded with the run",
				},
			}),
			Required: []string{"layout"},
		},
	}, c.handleSolveMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List stored levels",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"variant": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"navigation", "sokoban"},
					"description": "Only list levels of this variant",
				},
			},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_level",
		Description: "Show a stored level's map and settings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID",
				},
			},
			Required: []string{"level"},
		},
	}, c.handleDescribeLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Fetch a past solve run by ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID returned by a solve",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List past solve runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this level",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(service.StatusSolved), string(service.StatusNoPlan), string(service.StatusStateSpaceTooLarge)},
					"description": "Only runs with this status",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "planner_instructions",
		Description: "Map format, variants and how to read results",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handlePlannerInstructions)
}

func withProps(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads a JSON number argument; zero when absent.
func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		// A single string is accepted as newline-separated rows
		return strings.Split(strings.TrimRight(v, "\n"), "\n")
	}
	return nil
}

func solveRequest(args map[string]interface{}) service.SolveRequest {
	return service.SolveRequest{
		Variant:   stringArg(args, "variant"),
		Horizon:   intArg(args, "horizon"),
		MaxStates: intArg(args, "max_states"),
	}
}

// Tool handlers

func (c *Client) handleSolveLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	req := solveRequest(args)
	req.Level = stringArg(args, "level")

	var result service.SolveResult
	if err := c.apiCall(ctx, "POST", "/api/solve", req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleSolveMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	req := solveRequest(args)
	req.Level = stringArg(args, "name")
	req.Layout = stringSliceArg(args, "layout")
	if len(req.Layout) == 0 {
		return mcp.NewToolResultError("layout is required: send the map as an array of rows"), nil
	}

	var result service.SolveResult
	if err := c.apiCall(ctx, "POST", "/api/solve", req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path := "/api/levels"
	if v := stringArg(args, "variant"); v != "" {
		path += "?variant=" + url.QueryEscape(v)
	}

	var response struct {
		Count  int                  `json:"count"`
		Levels []*service.LevelInfo `json:"levels"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Levels) == 0 {
		return mcp.NewToolResultText("No levels available."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available levels (%d):\n", response.Count)
	for _, l := range response.Levels {
		fmt.Fprintf(&sb, "- %s: %s [%s %dx%d, boxes=%d, targets=%d]\n",
			l.LevelID, l.Name, l.Variant, l.Width, l.Height, l.Boxes, l.Targets)
		if l.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", l.Description)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleDescribeLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	level := stringArg(args, "level")
	if level == "" {
		return mcp.NewToolResultError("level is required"), nil
	}

	var cfg engine.LevelConfig
	if err := c.apiCall(ctx, "GET", "/api/levels/"+url.PathEscape(level), nil, &cfg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLevel(level, &cfg)), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id := stringArg(args, "run_id")
	if id == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	var run service.Run
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(id), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	if v := stringArg(args, "level"); v != "" {
		query.Set("level", v)
	}
	if v := stringArg(args, "status"); v != "" {
		query.Set("status", v)
	}
	if v := intArg(args, "limit"); v > 0 {
		query.Set("limit", fmt.Sprint(v))
	}
	path := "/api/runs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count int            `json:"count"`
		Total int            `json:"total"`
		Runs  []*service.Run `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Runs) == 0 {
		return mcp.NewToolResultText("No runs recorded."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Runs (%d of %d):\n", response.Count, response.Total)
	for _, r := range response.Runs {
		fmt.Fprintf(&sb, "- %s %s %s: %s\n", r.ID, r.Level, r.Status, r.Message)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handlePlannerInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Grid Planner - Instructions

MAP FORMAT:
One string per row, top to bottom. Coordinates are (x,y) with (0,0) in the
top-left corner; x grows east and y grows south.

  #  wall
  @  agent
  +  agent standing on a target
  .  target
  $  box
  *  box on a target
  space, - or _  floor

Short rows are padded with floor. Cells outside the map count as walls.

VARIANTS:
- navigation: no boxes. The goal is to stand on the target (the first one
  in reading order when there are several). Each move costs 1.
- sokoban: push every box onto a target. Boxes move only when pushed and
  never into a wall or another box. The agent's final position does not
  matter. Reward counts boxes on targets.

The variant is inferred from the map: any box makes it sokoban.

RESULTS:
- solved: "Path found: (x,y) E N ..." lists the start cell and the
  directions N, S, E, W.
- no_plan: "No plan could be found." The goal is unreachable within the
  horizon.
- state_space_too_large: the map has more reachable states than
  max_states. Raise max_states or simplify the map.

TIPS:
- Raise horizon when a long solution is cut off.
- Use describe_level to see a stored map before solving it.
- Every solve is recorded; use list_runs and get_run to review them.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSolveResult(r *service.SolveResult) string {
	var sb strings.Builder

	switch r.Status {
	case service.StatusSolved:
		sb.WriteString("✓ ")
	default:
		sb.WriteString("✗ ")
	}
	sb.WriteString(r.Message)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Level: %s (%s)\n", r.Level, r.Variant)
	fmt.Fprintf(&sb, "Status: %s\n", r.Status)
	if r.Reason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", r.Reason)
	}
	if r.Path != nil {
		fmt.Fprintf(&sb, "Steps: %d\n", r.Path.Len())
	}
	fmt.Fprintf(&sb, "States: %d, explored: %d, horizon: %d\n", r.Stats.States, r.Explored, r.Horizon)
	if r.RunID != "" {
		fmt.Fprintf(&sb, "Run: %s\n", r.RunID)
	}

	if lines := r.View.Lines(); len(lines) > 0 && r.View.Width > 0 {
		sb.WriteString("\n")
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func formatLevel(id string, cfg *engine.LevelConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Level %s: %s\n", id, cfg.Name)
	if cfg.Description != "" {
		fmt.Fprintf(&sb, "%s\n", cfg.Description)
	}
	if cfg.Variant != "" {
		fmt.Fprintf(&sb, "Variant: %s\n", cfg.Variant)
	}
	fmt.Fprintf(&sb, "Horizon: %d, max states: %d\n", cfg.EffectiveHorizon(), cfg.EffectiveMaxStates())
	sb.WriteString("\n")
	for _, row := range cfg.Layout {
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRun(r *service.Run) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s\n", r.ID)
	fmt.Fprintf(&sb, "Level: %s (%s)\n", r.Level, r.Variant)
	fmt.Fprintf(&sb, "Status: %s\n", r.Status)
	fmt.Fprintf(&sb, "Message: %s\n", r.Message)
	fmt.Fprintf(&sb, "States: %d, explored: %d, horizon: %d\n", r.States, r.Explored, r.Horizon)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "Created: %s\n", r.CreatedAt.Format(time.RFC3339))
	}
	return sb.String()
}
