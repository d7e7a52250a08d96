package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/playback"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"github.com/ChrisT3B/beats-repeats-test/internal/ui"
)

// TUI launches the live session monitor.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/brt-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	coordinator, cleanup, err := r.connectSession(ctx, token, cmd.Duration("wait"))
	if err != nil {
		return err
	}
	defer cleanup()

	controller := playback.NewController(coordinator, r.client(token), r.trace)

	model := ui.NewModel(ctx, coordinator, controller, r.trace)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
