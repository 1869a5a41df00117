package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/lango/internal/agent"
	"github.com/kalambet/lango/internal/api"
	"github.com/kalambet/lango/internal/config"
	"github.com/kalambet/lango/internal/journal"
	"github.com/kalambet/lango/internal/session"
	"github.com/kalambet/lango/internal/transcript"
	"github.com/kalambet/lango/internal/workspace"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lango server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running lango server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lango system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataRoot string) string {
	return filepath.Join(dataRoot, "lango.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// journalRecorder adapts the journal store to the orchestrator's
// Recorder interface.
type journalRecorder struct {
	store *journal.Store
}

func (r *journalRecorder) SaveExchange(e session.Exchange) error {
	return r.store.SaveExchange(journal.Exchange{
		ID:          e.ID,
		CreatedAt:   e.CreatedAt,
		Language:    e.Language,
		Message:     e.Message,
		Reply:       e.Reply,
		ResponderMS: e.ResponderMS,
	})
}

func (r *journalRecorder) SetTrackerOutcome(exchangeID, outcome string) error {
	return r.store.SetTrackerOutcome(exchangeID, outcome)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "lango version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	switch {
	case strings.EqualFold(cfg.Log.Level, "debug"):
		logLevel = slog.LevelDebug
	case strings.EqualFold(cfg.Log.Level, "warn"):
		logLevel = slog.LevelWarn
	case strings.EqualFold(cfg.Log.Level, "error"):
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Ensure API token exists in platform secret store.
	apiToken, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataRoot)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("lango is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("lango is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the exchange journal.
	store, err := journal.Open(cfg.Storage.DataRoot)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing journal: %v\n", err)
		}
	}()

	// Build workspace resolver and transcript reader.
	workspaces := workspace.NewResolver(cfg.LanguagesDir())
	transcripts, err := transcript.NewReader()
	if err != nil {
		return fmt.Errorf("locating agent project logs: %w", err)
	}

	trackerTimeout, err := time.ParseDuration(cfg.Agent.TrackerTimeout)
	if err != nil {
		slog.Warn("invalid tracker timeout, using default 45s", "value", cfg.Agent.TrackerTimeout, "error", err)
		trackerTimeout = 45 * time.Second
	}

	orchestrator := session.New(workspaces, agent.ExecRunner{}, session.Options{
		Binary:         cfg.Agent.Binary,
		TrackerTimeout: trackerTimeout,
		Recorder:       &journalRecorder{store: store},
		Logger:         slog.Default(),
	})

	deps := api.Deps{
		Workspaces:  workspaces,
		Chat:        orchestrator,
		Transcripts: transcripts,
		Journal:     store,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps, apiToken),
	}

	g, gctx := errgroup.WithContext(ctx)

	// MCP server on stdio transport.
	mcpSrv := api.NewMCPServer(deps)
	stdioSrv := server.NewStdioServer(mcpSrv)
	g.Go(func() error {
		if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
		return nil
	})
	slog.Info("MCP server started (stdio transport)")

	// HTTP server.
	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "lango listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown on signal or server error.
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataRoot)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("lango is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop lango (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to lango (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Agent binary", "%s", cfg.Agent.Binary)
	printStatus("Tracker timeout", "%s", cfg.Agent.TrackerTimeout)

	// Show languages if the server is running.
	apiToken, tokenErr := config.GetAPIToken(config.NewKeychain())
	if tokenErr == nil && resp != nil && resp.StatusCode == 200 {
		langResp, err := apiGet(client, serverURL+"/languages", apiToken)
		if err == nil {
			var result struct {
				Languages []string `json:"languages"`
			}
			if decodeErr := decodeJSON(langResp, &result); decodeErr == nil {
				printStatus("Languages", "%s", languagesLabel(result.Languages))
			}
		}
	}

	printStatus("Data root", "%s", cfg.Storage.DataRoot)
	return nil
}

func languagesLabel(languages []string) string {
	if len(languages) == 0 {
		return "none"
	}
	return strings.Join(languages, ", ")
}

func apiGet(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}
