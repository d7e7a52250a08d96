package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/playback"
)

// PlaybackToggle toggles play/pause on the harness device.
//
// The command return value only means the toggle was submitted; the
// authoritative state arrives later as a player-state-changed event.
func (r *Runner) PlaybackToggle(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(cmd)
	if err != nil {
		return err
	}

	coordinator, cleanup, err := r.connectSession(ctx, token, cmd.Duration("wait"))
	if err != nil {
		return err
	}
	defer cleanup()

	controller := playback.NewController(coordinator, r.client(token), r.trace)
	if err := controller.Toggle(ctx); err != nil {
		return err
	}

	// Give the device a moment to report the resulting state.
	time.Sleep(2 * time.Second)

	snap := coordinator.Snapshot()
	r.writePlain("✓ Toggle submitted\n")
	if snap.Track != nil {
		r.writePlain("Now: %s (paused: %t)\n", snap.Track, snap.Paused)
	} else {
		r.writePlain("No track reported yet (paused: %t)\n", snap.Paused)
	}
	return nil
}

// PlaybackTransfer transfers playback to the harness device, paused.
func (r *Runner) PlaybackTransfer(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(cmd)
	if err != nil {
		return err
	}

	coordinator, cleanup, err := r.connectSession(ctx, token, cmd.Duration("wait"))
	if err != nil {
		return err
	}
	defer cleanup()

	controller := playback.NewController(coordinator, r.client(token), r.trace)
	if err := controller.Transfer(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Playback transferred to %q (paused)\n", r.config.Device.Name)
	return nil
}
