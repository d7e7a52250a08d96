package session

import "context"

// EventKind names the events a playback device can emit.
type EventKind string

const (
	EventReady               EventKind = "ready"
	EventNotReady            EventKind = "not_ready"
	EventPlayerStateChanged  EventKind = "player_state_changed"
	EventInitializationError EventKind = "initialization_error"
	EventAuthenticationError EventKind = "authentication_error"
	EventAccountError        EventKind = "account_error"
)

// Event is a single emission from a playback device. DeviceID is set for
// ready/not_ready, Message for the error kinds, and State for
// player_state_changed (nil when the device lost its playback state).
type Event struct {
	Kind     EventKind
	DeviceID string
	Message  string
	State    *PlayerState
}

// PlayerState mirrors the device's reported playback state.
type PlayerState struct {
	Paused      bool        `json:"paused"`
	TrackWindow TrackWindow `json:"track_window"`
}

// TrackWindow carries the currently playing track, when there is one.
type TrackWindow struct {
	CurrentTrack *DeviceTrack `json:"current_track"`
}

// DeviceTrack is the device's view of a track.
type DeviceTrack struct {
	Name    string         `json:"name"`
	Artists []DeviceArtist `json:"artists"`
}

// DeviceArtist is a single credited artist.
type DeviceArtist struct {
	Name string `json:"name"`
}

// Device is the port over the playback device. The coordinator depends
// only on this interface; production code satisfies it with a Connect
// control-plane adapter and tests with a scripted double.
//
// All event handlers must be registered before Connect is called; a
// device may emit events from the moment it starts connecting.
type Device interface {
	Connect(ctx context.Context) error
	Disconnect() error
	TogglePlay(ctx context.Context) error
	// CurrentState reports the device's playback state, nil when the
	// device is not the active playback target.
	CurrentState(ctx context.Context) (*PlayerState, error)
	On(kind EventKind, handler func(Event))
}
