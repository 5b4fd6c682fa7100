package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/config"
	"github.com/KaliDrag0n/ContentReaper/internal/engine"
	"github.com/KaliDrag0n/ContentReaper/internal/logger"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
	"github.com/KaliDrag0n/ContentReaper/internal/ui"
	"github.com/KaliDrag0n/ContentReaper/internal/update"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		// Stderr belongs to the TUI; without a log file, logs are dropped.
		logger.SetOutput(io.Discard)
	}

	eng := engine.New(cfg)
	defer eng.Close()

	checker := update.NewChecker(cfg.ReleaseFeedURL, version, api.DefaultTimeout)

	m := ui.New(ui.Deps{
		Actions: eng.Mutations,
		Logs:    eng.Logs,
		Updater: checker,
		Version: version,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())

	// Route login prompts through the TUI instead of raw stdin.
	eng.Gate.SetPrompter(ui.NewLoginPrompter(program.Send))

	eng.Emitter.Subscribe(func(n notify.Notice) {
		program.Send(ui.NoticeMsg{Notice: n})
	})
	eng.Start()
	go func() {
		for u := range eng.Updates() {
			program.Send(ui.StateMsg{View: u.View, Patch: u.Patch})
		}
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "UI error: %v\n", err)
		os.Exit(1)
	}
}
