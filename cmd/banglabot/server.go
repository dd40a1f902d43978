package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/banglabot/internal/api"
	"github.com/kalambet/banglabot/internal/config"
	"github.com/kalambet/banglabot/internal/engine"
	"github.com/kalambet/banglabot/internal/ollama"
)

const shutdownTimeout = 5 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the banglabot server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show banglabot status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(commandContext(cmd))
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve MCP over stdio")
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "banglabot version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		printWarning("banglabot is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := buildBot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	slog.Info("intent catalog loaded", "intents", b.catalog.Len(), "backend", cfg.Fallback.Backend)

	if err := engine.Prepare(ctx, b.generator, os.Stderr); err != nil {
		return err
	}

	deps := api.Deps{
		Responder: b.responder,
		Catalog:   b.catalog,
		APIToken:  cfg.Server.APIToken,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "banglabot listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(deps, version)
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			err := server.NewStdioServer(mcpSrv).Listen(gctx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func showStatus(ctx context.Context) error {
	cfg, err := config.LoadPartial()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if running {
		if resp, err := client.Get(serverURL + "/intents"); err == nil {
			var intents []api.IntentSummary
			if decodeJSON(resp, &intents) == nil {
				printStatus("Intents", "%d", len(intents))
			}
		}
	}

	catalogSrc := cfg.Catalog.Path
	if catalogSrc == "" {
		catalogSrc = "built-in"
	}
	printStatus("Catalog", "%s", catalogSrc)
	printStatus("Fallback", "%s", cfg.Fallback.Backend)

	switch cfg.Fallback.Backend {
	case engine.BackendGemini:
		printStatus("Model", "%s", cfg.Gemini.Model)
		printStatus("API key", "%s", presence(cfg.Gemini.APIKey))
	case engine.BackendOpenRouter:
		printStatus("Model", "%s", cfg.Proxy.Model)
		printStatus("API key", "%s", presence(cfg.Proxy.OpenRouterAPIKey))
	case engine.BackendOllama:
		printStatus("Model", "%s", cfg.Ollama.Model)
		oc := ollama.New(cfg.Ollama.BaseURL)
		if oc.IsRunning(ctx) {
			printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		} else {
			printStatus("Ollama", "not running")
		}
	}

	printStatus("Config file", "%s", config.FilePath())
	return nil
}

func presence(secret string) string {
	if secret == "" {
		return "not set"
	}
	return "set"
}
