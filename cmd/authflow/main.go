package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dtroode/authflow/internal/app"
	"github.com/dtroode/authflow/internal/client"
	"github.com/dtroode/authflow/internal/config"
	"github.com/dtroode/authflow/internal/flow"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/session"
	"github.com/dtroode/authflow/internal/storage/memory"
	"github.com/dtroode/authflow/internal/ui"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("authflow %s (%s, %s)\n", buildVersion, buildCommit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg, err := config.NewClientConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	// Codes of an in-process dispatch backend land in the log file, never on
	// the terminal the UI owns.
	var codeSink io.Writer
	logOut := io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
		codeSink = f
	}
	logger := logger.NewWithWriter(logOut, cfg.LogLevel)

	var serverCfg *config.Config
	if cfg.ServerAddr == "" {
		serverCfg, err = config.NewConfig()
		if err != nil {
			log.Fatalf("failed to parse backend config: %v", err)
		}
	}

	remote, closeRemote, err := app.Connect(ctx, cfg, serverCfg, codeSink, logger)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer closeRemote()

	durable, closeStore, err := app.OpenSessionStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer closeStore()

	authClient := client.NewRetrying(remote, app.RetryPolicy(cfg.Retry), logger)
	manager := session.NewManager(authClient, durable, memory.NewStore(), logger)

	state := manager.Restore(ctx)
	logger.Info("Client: session restored", "step", flow.StepFor(state).String())
	if _, err := manager.Revalidate(ctx, remote); err != nil {
		logger.Info("Client: stored session not confirmed", "error", err.Error())
	}

	p := tea.NewProgram(
		ui.New(ctx, flow.NewController(manager)),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("Client: ui failed", "error", err)
		fmt.Fprintf(os.Stderr, "authflow: %v\n", err)
		os.Exit(1)
	}
}
