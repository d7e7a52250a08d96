// Package ui implements the live session monitor using bubbletea's Elm architecture.
//
// The monitor shows the coordinator's current snapshot (session state, device,
// track, paused flag) above a scrolling tail of the trace log. Playback
// commands are issued from the keyboard; their authoritative outcome arrives
// later as device events, so the header only changes when the coordinator's
// snapshot does.
//
// Keyboard bindings: p toggles playback, t transfers playback to the harness
// device, q quits. Contextual help is rendered via charmbracelet/bubbles/help.
package ui
