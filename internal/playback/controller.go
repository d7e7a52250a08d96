// Package playback issues commands against the live device and the
// provider's control plane.
//
// Commands never mutate session state themselves: the authoritative
// state arrives later through the device's player_state_changed event.
package playback

import (
	"context"
	"fmt"

	"github.com/ChrisT3B/beats-repeats-test/internal/session"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"github.com/ChrisT3B/beats-repeats-test/internal/spotify"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

// Controller drives playback for one coordinator session.
type Controller struct {
	coordinator *session.Coordinator
	api         *spotify.Client
	trace       *trace.Log
}

// NewController creates a controller bound to the coordinator's device
// and the given control-plane client.
func NewController(coordinator *session.Coordinator, api *spotify.Client, tl *trace.Log) *Controller {
	return &Controller{coordinator: coordinator, api: api, trace: tl}
}

// Toggle flips play/pause on the device. Requires an initialized device;
// a rejection is reported without touching local state.
func (c *Controller) Toggle(ctx context.Context) error {
	device := c.coordinator.Device()
	if device == nil {
		return fmt.Errorf("%w: no initialized device", shared.ErrPlaybackCommand)
	}

	if err := device.TogglePlay(ctx); err != nil {
		if c.trace != nil {
			c.trace.Errorf("toggle rejected: %v", err)
		}
		return fmt.Errorf("%w: %v", shared.ErrPlaybackCommand, err)
	}

	if c.trace != nil {
		c.trace.Infof("toggle submitted; awaiting state event")
	}
	return nil
}

// Transfer makes this session's device the active playback target,
// paused. With no known device id the call is an advisory no-op: no
// network request is issued. No retry on failure.
func (c *Controller) Transfer(ctx context.Context) error {
	deviceID := c.coordinator.DeviceID()
	if deviceID == "" {
		if c.trace != nil {
			c.trace.Warnf("transfer skipped: no device id known yet")
		}
		return nil
	}

	if err := c.api.Transfer(ctx, deviceID); err != nil {
		if c.trace != nil {
			c.trace.Errorf("transfer to %s failed: %v", deviceID, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrTransferFailed, err)
	}

	if c.trace != nil {
		c.trace.Infof("playback transferred to %s (paused)", deviceID)
	}
	return nil
}
