package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"candyworks/internal/catalog"
	"candyworks/internal/config"
	"candyworks/internal/session"
	"candyworks/internal/store"
	"candyworks/internal/telemetry"
	"candyworks/internal/tui"
	"candyworks/internal/tycoon"

	"github.com/gdamore/tcell/v2"
)

func main() {
	cfgPath := flag.String("config", "candyworks.yml", "path to the YAML config")
	logPath := flag.String("log", "candyworks-tui.log", "where to write logs while the screen is in use")
	flag.Parse()

	if err := run(*cfgPath, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "tycoon-tui:", err)
		os.Exit(1)
	}
}

func run(cfgPath, logPath string) error {
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := log.New(logFile, "", 0)

	layout, err := catalog.Resolve(cfg.Catalog.Name, cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	repo, err := store.NewFileRepo(filepath.Join(cfg.Server.DataDir, "sessions"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := session.Open(ctx, session.Options{
		ID:        cfg.Simulation.SessionID,
		Engine:    tycoon.NewEngine(cfg.Tuning(), nil),
		Layout:    layout,
		Repo:      repo,
		Telemetry: telemetry.NewMemoryRepository(0),
		Logger:    logger,
		MaxFrame:  cfg.Simulation.MaxFrame(),
	})
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	sched := session.NewScheduler(s, session.Schedule{
		TickInterval:     cfg.Simulation.TickInterval(),
		IncomeInterval:   cfg.Simulation.IncomeInterval(),
		AutosaveInterval: cfg.Simulation.AutosaveInterval(),
	})
	sched.Start()

	tui.New(s, screen).Run(ctx)

	screen.Fini()
	sched.Stop()

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Save(saveCtx)
}
