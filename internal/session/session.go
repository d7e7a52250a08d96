// Package session owns the playback-device connection lifecycle.
//
// The coordinator is an event-driven state machine: it stands a device up
// with the current access credential, consumes the device's event stream,
// and exposes the resulting session state. Device events are authoritative
// over command return values; a command's effect is only visible once the
// corresponding player_state_changed event arrives.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

// State is the coordinator's connection state.
type State int

const (
	Uninitialized State = iota
	Connecting
	Ready
	Disconnected
	// Errored is terminal for a device instance; construct a new
	// coordinator to retry.
	Errored
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TrackRef is a read-only projection of the device's "now playing" state.
type TrackRef struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (t TrackRef) String() string {
	return t.Artist + " - " + t.Title
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	State    State     `json:"state"`
	DeviceID string    `json:"device_id,omitempty"`
	Paused   bool      `json:"paused"`
	Track    *TrackRef `json:"track,omitempty"`
}

// Coordinator owns the single device session. Session fields are written
// only inside device event handlers and Initialize/Teardown.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	deviceID string
	paused   bool
	track    *TrackRef
	device   Device
	trace    *trace.Log
}

// NewCoordinator creates a coordinator in the Uninitialized state.
func NewCoordinator(tl *trace.Log) *Coordinator {
	return &Coordinator{state: Uninitialized, paused: true, trace: tl}
}

// Initialize stands up the given device: registers every event handler,
// then connects. Valid only from Uninitialized. A connect failure leaves
// the coordinator Uninitialized and is not retried.
func (c *Coordinator) Initialize(ctx context.Context, device Device) error {
	c.mu.Lock()
	if c.state != Uninitialized {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot initialize from state %s", shared.ErrDeviceInit, state)
	}
	c.device = device
	c.state = Connecting
	c.mu.Unlock()

	// Handlers must be in place before connect: the device may start
	// emitting immediately.
	device.On(EventReady, c.onReady)
	device.On(EventNotReady, c.onNotReady)
	device.On(EventPlayerStateChanged, c.onStateChanged)
	device.On(EventInitializationError, c.onInitializationError)
	device.On(EventAuthenticationError, c.onAuthenticationError)
	device.On(EventAccountError, c.onAccountError)

	if c.trace != nil {
		c.trace.Infof("connecting playback device")
	}

	if err := device.Connect(ctx); err != nil {
		c.mu.Lock()
		c.state = Uninitialized
		c.device = nil
		c.mu.Unlock()
		if c.trace != nil {
			c.trace.Errorf("device connect failed: %v", err)
		}
		return fmt.Errorf("%w: %v", shared.ErrDeviceInit, err)
	}

	return nil
}

// Teardown disconnects the device. Idempotent; valid from any state. On a
// coordinator that was never initialized it is a no-op and leaves the
// state Uninitialized, so Initialize remains possible.
func (c *Coordinator) Teardown() error {
	c.mu.Lock()
	device := c.device
	alreadyDown := c.state == Uninitialized || c.state == Disconnected
	if !alreadyDown {
		c.state = Disconnected
	}
	c.mu.Unlock()

	if device == nil || alreadyDown {
		return nil
	}

	if err := device.Disconnect(); err != nil {
		if c.trace != nil {
			c.trace.Warnf("device disconnect reported: %v", err)
		}
		return err
	}

	if c.trace != nil {
		c.trace.Infof("playback device disconnected")
	}
	return nil
}

// Snapshot returns a copy of the current session state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{State: c.state, DeviceID: c.deviceID, Paused: c.paused}
	if c.track != nil {
		t := *c.track
		snap.Track = &t
	}
	return snap
}

// Device returns the connected device, or nil before Initialize.
func (c *Coordinator) Device() Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// DeviceID returns the id reported by the device's ready event.
func (c *Coordinator) DeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

func (c *Coordinator) onReady(e Event) {
	c.mu.Lock()
	c.deviceID = e.DeviceID
	c.state = Ready
	c.mu.Unlock()

	if c.trace != nil {
		c.trace.Infof("device ready with id %s", e.DeviceID)
	}
}

// onNotReady is advisory: the device may recover, so the id is kept and
// no state transition happens.
func (c *Coordinator) onNotReady(e Event) {
	if c.trace != nil {
		c.trace.Warnf("device %s went offline", e.DeviceID)
	}
}

func (c *Coordinator) onStateChanged(e Event) {
	if e.State == nil {
		// Device no longer tied to this session.
		c.mu.Lock()
		c.track = nil
		c.paused = true
		c.mu.Unlock()
		if c.trace != nil {
			c.trace.Infof("device detached from playback state")
		}
		return
	}

	c.mu.Lock()
	c.paused = e.State.Paused
	c.track = projectTrack(e.State)
	device := c.device
	track := c.track
	c.mu.Unlock()

	if c.trace != nil {
		if track != nil {
			c.trace.Infof("player state changed: %s (paused=%t)", track, e.State.Paused)
		} else {
			c.trace.Infof("player state changed: no current track (paused=%t)", e.State.Paused)
		}
	}

	// The device can report a state change while not being the active
	// output. That race lives upstream; it is advisory, never fatal.
	if device == nil {
		return
	}
	current, err := device.CurrentState(context.Background())
	if err != nil {
		if c.trace != nil {
			c.trace.Debugf("current state query failed: %v", err)
		}
		return
	}
	if current == nil && c.trace != nil {
		c.trace.Warnf("state change received but playback is not active on this device")
	}
}

func (c *Coordinator) onInitializationError(e Event) {
	c.fail(shared.ErrDeviceInit, e.Message)
}

func (c *Coordinator) onAuthenticationError(e Event) {
	c.fail(shared.ErrDeviceAuth, e.Message)
}

// onAccountError signals a plan-tier restriction. Nothing the harness can
// do recovers this; the operator has to intervene.
func (c *Coordinator) onAccountError(e Event) {
	c.fail(shared.ErrDeviceAccount, e.Message)
}

func (c *Coordinator) fail(kind error, message string) {
	c.mu.Lock()
	c.state = Errored
	c.mu.Unlock()

	if c.trace != nil {
		c.trace.Errorf("%v: %s", kind, message)
	}
}

// projectTrack recomputes the track projection wholesale from a state
// event; it is never patched incrementally.
func projectTrack(state *PlayerState) *TrackRef {
	current := state.TrackWindow.CurrentTrack
	if current == nil {
		return nil
	}

	ref := &TrackRef{Title: current.Name}
	if len(current.Artists) > 0 {
		ref.Artist = current.Artists[0].Name
	}
	return ref
}
