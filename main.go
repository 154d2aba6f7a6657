// Command gridplanner starts the grid planner server.
//
// It supports two modes:
//  1. "server" (default): runs the HTTP server exposing the REST API, the WebSocket view feed, and an /mcp HTTP endpoint
//  2. "stdio-mcp": runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the level directory, run storage, debug logging,
// version output, and optional ngrok tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/gridplanner/api"
	"github.com/wricardo/mcp-training/gridplanner/game/config"
	"github.com/wricardo/mcp-training/gridplanner/game/runs"
	"github.com/wricardo/mcp-training/gridplanner/game/service"
	"github.com/wricardo/mcp-training/gridplanner/transport/mcp"
	"github.com/wricardo/mcp-training/gridplanner/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Grid Planner Server"
)

var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelsDir    = flag.String("levels-dir", envDefault("LEVELS_DIR", "levels"), "Directory containing level files")
	runsDir      = flag.String("runs-dir", envDefault("RUNS_DIR", "runs"), "Directory for JSON run records (ignored when -runs-db is set)")
	runsDB       = flag.String("runs-db", os.Getenv("RUNS_DB"), "SQLite database for run records")
	runRetention = flag.Duration("run-retention", 24*time.Hour, "Age after which run records are pruned")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -runs-db runs.db         # Keep run records in SQLite\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                # Run MCP stdio server\n", os.Args[0])
	}
}

// serviceConfig selects where levels and run records live.
type serviceConfig struct {
	LevelsDir string
	RunsDir   string
	RunsDB    string
}

// services bundles what the transports need plus the resources to release on exit.
type services struct {
	Solver service.SolverService
	Runs   *runs.Manager
	closer io.Closer
}

func (s *services) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	svc, err := initializeServices(serviceConfig{
		LevelsDir: *levelsDir,
		RunsDir:   *runsDir,
		RunsDB:    *runsDB,
	})
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runCleanupRoutine(ctx, svc.Runs, *runRetention)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(ctx, svc.Solver)
	case "server", "http":
		runHTTPServer(ctx, svc.Solver)
	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// newMCPHandler proxies JSON-RPC requests to the MCP tool server.
func newMCPHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the API at the root and the MCP proxy at /mcp.
func newRouter(solver service.SolverService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(solver, hub)
	apiServer.SetVersion(Version)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", newMCPHandler(mcp.NewClient(baseURL)))
	return mux
}

// runHTTPServer serves the API, the WebSocket hub and the MCP endpoint until
// SIGINT or SIGTERM. When ngrok is enabled it also serves through a tunnel.
func runHTTPServer(ctx context.Context, solver service.SolverService) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mainRouter := newRouter(solver, hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?level=<level_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if ngrokRequested() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, mainRouter)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

func ngrokRequested() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// serveNgrok serves handler through an ngrok tunnel until ctx is cancelled.
func serveNgrok(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	log.Println("Starting ngrok tunnel...")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	url := tun.URL()
	log.Printf("Ngrok tunnel established: %s", url)
	log.Printf("  REST API (ngrok): %s/api", url)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", url)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires the level catalog, the run store and the solver.
// Run records go to SQLite when RunsDB is set, to JSON files when RunsDir
// is set, and stay in memory otherwise.
func initializeServices(cfg serviceConfig) (*services, error) {
	levels, err := config.NewManager(cfg.LevelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	svc := &services{}
	var persistence runs.RunPersistence
	switch {
	case cfg.RunsDB != "":
		db, err := runs.NewSQLitePersistence(cfg.RunsDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open run database: %w", err)
		}
		if counts, err := db.CountByStatus(); err == nil {
			log.Printf("Run database %s: %d solved, %d no plan, %d too large", cfg.RunsDB,
				counts[service.StatusSolved], counts[service.StatusNoPlan], counts[service.StatusStateSpaceTooLarge])
		}
		persistence = db
		svc.closer = db
	case cfg.RunsDir != "":
		files, err := runs.NewFilePersistence(cfg.RunsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create run persistence: %w", err)
		}
		persistence = files
	}

	if persistence != nil {
		svc.Runs = runs.NewManagerWithPersistence(persistence)
		if err := svc.Runs.LoadPersisted(); err != nil {
			log.Printf("Warning: Failed to load persisted runs: %v", err)
		}
	} else {
		svc.Runs = runs.NewManager()
	}

	svc.Solver = service.NewSolverService(levels, svc.Runs)
	return svc, nil
}

// runCleanupRoutine prunes run records older than maxAge every hour.
func runCleanupRoutine(ctx context.Context, manager *runs.Manager, maxAge time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpired(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired runs", removed)
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on localhost:8080, or starts one on a random loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, solver service.SolverService) {
	externalURL := "http://localhost:8080"
	baseURL := externalURL
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run(ctx)

		apiServer := api.NewServer(solver, hub)
		apiServer.SetVersion(Version)
		httpServer := &http.Server{Handler: apiServer}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
