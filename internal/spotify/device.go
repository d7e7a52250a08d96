package spotify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ChrisT3B/beats-repeats-test/internal/session"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
)

// DeviceConfig describes the playback device the adapter watches for.
type DeviceConfig struct {
	// Name of the device as it appears in the user's Connect device list.
	Name string
	// InitialVolume in [0,1], applied once when the device is first seen.
	InitialVolume float64
	// Token supplies the current access token on demand.
	Token TokenFunc
	// PollInterval between control-plane polls. Defaults to 2s.
	PollInterval time.Duration
}

// ConnectDevice adapts the Connect control plane to the [session.Device]
// port. It polls the device list and playback state, translating what it
// observes into the device event contract: the named device appearing is
// "ready", disappearing is "not_ready", playback-state deltas are
// "player_state_changed", a 401 is an authentication error and a 403 an
// account error.
type ConnectDevice struct {
	client *Client
	cfg    DeviceConfig

	mu          sync.Mutex
	handlers    map[session.EventKind][]func(session.Event)
	deviceID    string
	online      bool
	hadPlayback bool
	lastSig     string
	authSent    bool
	accountSent bool
	cancel      context.CancelFunc
	done        chan struct{}
}

var _ session.Device = (*ConnectDevice)(nil)

// NewConnectDevice creates the adapter. A nil client builds one from the
// config's token accessor.
func NewConnectDevice(cfg DeviceConfig, client *Client) *ConnectDevice {
	if client == nil {
		client = NewClient(cfg.Token, nil)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &ConnectDevice{
		client:   client,
		cfg:      cfg,
		handlers: make(map[session.EventKind][]func(session.Event)),
	}
}

func (d *ConnectDevice) On(kind session.EventKind, handler func(session.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], handler)
}

// Connect verifies the control plane is reachable, observes the device
// list once, and starts the poll loop. A first-poll failure is an
// initialization failure: no loop is started.
func (d *ConnectDevice) Connect(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: already connected", shared.ErrDeviceInit)
	}
	d.mu.Unlock()

	devices, err := d.client.Devices(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDeviceInit, err)
	}
	d.observeDevices(ctx, devices)

	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	d.mu.Lock()
	d.cancel = cancel
	d.done = done
	d.mu.Unlock()

	go d.loop(pollCtx, done)
	return nil
}

// Disconnect stops the poll loop. Idempotent.
func (d *ConnectDevice) Disconnect() error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// TogglePlay flips the playback state. With no active playback it starts
// playing on this device instead.
func (d *ConnectDevice) TogglePlay(ctx context.Context) error {
	playback, err := d.client.CurrentPlayback(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	deviceID := d.deviceID
	d.mu.Unlock()

	if playback == nil {
		return d.client.Play(ctx, deviceID)
	}
	if playback.IsPlaying {
		return d.client.Pause(ctx, "")
	}
	return d.client.Play(ctx, "")
}

// CurrentState reports playback state when this device is the active
// output, nil otherwise.
func (d *ConnectDevice) CurrentState(ctx context.Context) (*session.PlayerState, error) {
	playback, err := d.client.CurrentPlayback(ctx)
	if err != nil {
		return nil, err
	}
	if playback == nil {
		return nil, nil
	}

	d.mu.Lock()
	deviceID := d.deviceID
	d.mu.Unlock()

	if deviceID != "" && playback.Device.ID != deviceID {
		return nil, nil
	}
	return translatePlayback(playback), nil
}

func (d *ConnectDevice) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *ConnectDevice) poll(ctx context.Context) {
	devices, err := d.client.Devices(ctx)
	if err != nil {
		d.classify(err)
		return
	}
	d.observeDevices(ctx, devices)

	playback, err := d.client.CurrentPlayback(ctx)
	if err != nil {
		d.classify(err)
		return
	}
	d.observePlayback(playback)
}

// observeDevices emits ready/not_ready from device-list membership.
func (d *ConnectDevice) observeDevices(ctx context.Context, devices []ConnectDeviceInfo) {
	var found *ConnectDeviceInfo
	for i := range devices {
		if devices[i].Name == d.cfg.Name {
			found = &devices[i]
			break
		}
	}

	d.mu.Lock()
	wasOnline := d.online
	d.online = found != nil
	if found != nil {
		d.deviceID = found.ID
	}
	deviceID := d.deviceID
	d.mu.Unlock()

	if found != nil && !wasOnline {
		if d.cfg.InitialVolume > 0 {
			// Best effort; the device works regardless.
			_ = d.client.SetVolume(ctx, found.ID, int(d.cfg.InitialVolume*100))
		}
		d.emit(session.Event{Kind: session.EventReady, DeviceID: found.ID})
	}
	if found == nil && wasOnline {
		d.emit(session.Event{Kind: session.EventNotReady, DeviceID: deviceID})
	}
}

// observePlayback emits player_state_changed on deltas.
func (d *ConnectDevice) observePlayback(playback *Playback) {
	if playback == nil {
		d.mu.Lock()
		had := d.hadPlayback
		d.hadPlayback = false
		d.lastSig = ""
		d.mu.Unlock()

		if had {
			d.emit(session.Event{Kind: session.EventPlayerStateChanged, State: nil})
		}
		return
	}

	sig := playbackSignature(playback)

	d.mu.Lock()
	changed := !d.hadPlayback || sig != d.lastSig
	d.hadPlayback = true
	d.lastSig = sig
	d.mu.Unlock()

	if changed {
		d.emit(session.Event{Kind: session.EventPlayerStateChanged, State: translatePlayback(playback)})
	}
}

// classify turns control-plane failures into the device error events,
// each emitted at most once per connection.
func (d *ConnectDevice) classify(err error) {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		d.mu.Lock()
		sent := d.authSent
		d.authSent = true
		d.mu.Unlock()
		if !sent {
			d.emit(session.Event{Kind: session.EventAuthenticationError, Message: err.Error()})
		}
	case errors.Is(err, shared.ErrDeviceAccount):
		d.mu.Lock()
		sent := d.accountSent
		d.accountSent = true
		d.mu.Unlock()
		if !sent {
			d.emit(session.Event{Kind: session.EventAccountError, Message: err.Error()})
		}
	}
	// Transient network failures are absorbed; the next poll retries.
}

func (d *ConnectDevice) emit(e session.Event) {
	d.mu.Lock()
	handlers := append([]func(session.Event){}, d.handlers[e.Kind]...)
	d.mu.Unlock()
	for _, h := range handlers {
		h(e)
	}
}

func translatePlayback(playback *Playback) *session.PlayerState {
	state := &session.PlayerState{Paused: !playback.IsPlaying}
	if playback.Item != nil {
		track := &session.DeviceTrack{Name: playback.Item.Name}
		for _, artist := range playback.Item.Artists {
			track.Artists = append(track.Artists, session.DeviceArtist{Name: artist.Name})
		}
		state.TrackWindow.CurrentTrack = track
	}
	return state
}

func playbackSignature(playback *Playback) string {
	name, artist := "", ""
	if playback.Item != nil {
		name = playback.Item.Name
		if len(playback.Item.Artists) > 0 {
			artist = playback.Item.Artists[0].Name
		}
	}
	return fmt.Sprintf("%t|%s|%s", playback.IsPlaying, artist, name)
}
