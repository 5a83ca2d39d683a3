package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/richard-senior/podds-au/internal/app"
	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/api"
	"github.com/richard-senior/podds-au/pkg/server"
	"github.com/richard-senior/podds-au/pkg/transport"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

const usage = `usage: podds-au [mcp|http|import <url> <league>|remove-team <id>]
  mcp          serve MCP JSON-RPC on stdin/stdout (default)
  http         serve the HTTP API on PODDS_HTTP_ADDR
  import       fetch a results page and append its fixtures to PODDS_DB_PATH
  remove-team  delete a team and its match records from PODDS_DB_PATH`

func main() {
	logger.SetShowDateTime(true)

	mode := "mcp"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	cfg, err := podds.LoadConfigFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration:", err)
	}

	// stdout belongs to the protocol in MCP mode
	if mode == "mcp" {
		logger.SetLogFile(cfg.LogFile)
		if err := logger.SetLogOutput('f'); err != nil {
			logger.Fatal("Failed to open log file:", err)
		}
	}

	logger.Info("Starting", app.Name, app.Version, "in", mode, "mode")
	a, err := app.New(cfg)
	if err != nil {
		logger.Fatal("Failed to start:", err)
	}
	defer a.Close()

	switch mode {
	case "mcp":
		err = runMCP(a)
	case "http":
		err = runHTTP(a)
	case "import":
		if len(os.Args) != 4 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		err = runImport(a, os.Args[2], os.Args[3])
	case "remove-team":
		if len(os.Args) != 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		err = runRemoveTeam(a, os.Args[2])
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Exiting with error:", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info(app.Name, "shutting down")
}

func runMCP(a *app.App) error {
	s := server.NewServer(transport.NewStdioTransport(), app.Name, app.Version)
	s.RegisterDefaultTools(a.Toolset())
	return s.Start()
}

func runHTTP(a *app.App) error {
	handler := api.NewAPIHandler(a.Service, app.Version)
	srv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           handler.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runImport(a *app.App, url, league string) error {
	if _, err := a.RequireStore(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
	defer cancel()
	sum, err := a.Toolset().ImportResults(ctx, url, league)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d fixtures (%d records) into %s\n", sum.Fixtures, sum.Records, a.Config.PoddsDbPath)
	if len(sum.NewTeams) > 0 {
		fmt.Printf("New teams: %v\n", sum.NewTeams)
	}
	return nil
}

func runRemoveTeam(a *app.App, rawID string) error {
	store, err := a.RequireStore()
	if err != nil {
		return err
	}
	id, err := podds.NormalizeTeamID(rawID)
	if err != nil {
		return err
	}
	ctx := context.Background()
	team, err := store.Team(ctx, id)
	if err != nil {
		return err
	}
	removed, err := store.RemoveTeam(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %s (%s) and %d match records\n", team.DisplayName(), id, removed)
	return nil
}
