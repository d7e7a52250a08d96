package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/session"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"github.com/ChrisT3B/beats-repeats-test/internal/spotify"
)

const defaultReadyWait = 30 * time.Second

// connectSession stands up the playback device and waits for it to become
// ready. The returned cleanup tears the session down; it is safe to call
// more than once.
func (r *Runner) connectSession(ctx context.Context, token string, wait time.Duration) (*session.Coordinator, func(), error) {
	device := spotify.NewConnectDevice(spotify.DeviceConfig{
		Name:          r.config.Device.Name,
		InitialVolume: r.config.Device.InitialVolume,
		Token:         func() string { return token },
	}, r.client(token))

	ready := make(chan struct{}, 1)
	failed := make(chan session.Event, 1)
	device.On(session.EventReady, func(session.Event) {
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	for _, kind := range []session.EventKind{
		session.EventInitializationError,
		session.EventAuthenticationError,
		session.EventAccountError,
	} {
		device.On(kind, func(e session.Event) {
			select {
			case failed <- e:
			default:
			}
		})
	}

	coordinator := session.NewCoordinator(r.trace)
	if err := coordinator.Initialize(ctx, device); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := coordinator.Teardown(); err != nil {
			r.logger.Warn("session teardown failed", "error", err)
		}
	}

	if wait <= 0 {
		wait = defaultReadyWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ready:
		return coordinator, cleanup, nil
	case e := <-failed:
		cleanup()
		return nil, nil, fmt.Errorf("%w: %s: %s", shared.ErrDeviceInit, e.Kind, e.Message)
	case <-timer.C:
		cleanup()
		return nil, nil, fmt.Errorf("%w: device %q did not become ready within %s (is a Spotify client with that name running?)",
			shared.ErrTimeout, r.config.Device.Name, wait)
	case <-ctx.Done():
		cleanup()
		return nil, nil, ctx.Err()
	}
}

// SessionConnect stands up the device session and reports its state.
func (r *Runner) SessionConnect(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(cmd)
	if err != nil {
		return err
	}

	coordinator, cleanup, err := r.connectSession(ctx, token, cmd.Duration("wait"))
	if err != nil {
		return err
	}
	defer cleanup()

	snap := coordinator.Snapshot()
	r.writePlain("✓ Device session ready\n")
	r.writePlain("State: %s\n", snap.State)
	r.writePlain("Device ID: %s\n", snap.DeviceID)
	return nil
}

// SessionStatus lists Connect devices and whether the harness device is present.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(cmd)
	if err != nil {
		return err
	}

	devices, err := r.client(token).Devices(ctx)
	if err != nil {
		return fmt.Errorf("device list request failed: %w", err)
	}

	if len(devices) == 0 {
		return r.writePlain("No Connect devices visible.\n")
	}

	found := false
	r.writePlain("Found %d devices:\n\n", len(devices))
	for i, d := range devices {
		marker := " "
		if d.Name == r.config.Device.Name {
			marker = "*"
			found = true
		}
		r.writePlain("%s %d. %s (%s)\n", marker, i+1, d.Name, d.ID)
		if d.IsActive {
			r.writePlain("     Active\n")
		}
	}
	if found {
		r.writePlain("\n* harness device %q is present\n", r.config.Device.Name)
	} else {
		r.writePlain("\nHarness device %q is not present.\n", r.config.Device.Name)
	}
	return nil
}
