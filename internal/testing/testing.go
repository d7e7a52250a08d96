// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/ChrisT3B/beats-repeats-test/internal/session"
)

// FakeDevice is a scripted test double for [session.Device]. Tests emit
// synthetic events deterministically through Emit.
type FakeDevice struct {
	mu       sync.Mutex
	handlers map[session.EventKind][]func(session.Event)

	ConnectErr    error
	DisconnectErr error
	ToggleErr     error
	State         *session.PlayerState
	StateErr      error

	ConnectCalls    int
	DisconnectCalls int
	ToggleCalls     int
	StateCalls      int
}

func NewFakeDevice() *FakeDevice {
	return &FakeDevice{handlers: make(map[session.EventKind][]func(session.Event))}
}

func (d *FakeDevice) On(kind session.EventKind, handler func(session.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], handler)
}

func (d *FakeDevice) Connect(ctx context.Context) error {
	d.mu.Lock()
	d.ConnectCalls++
	d.mu.Unlock()
	return d.ConnectErr
}

func (d *FakeDevice) Disconnect() error {
	d.mu.Lock()
	d.DisconnectCalls++
	d.mu.Unlock()
	return d.DisconnectErr
}

func (d *FakeDevice) TogglePlay(ctx context.Context) error {
	d.mu.Lock()
	d.ToggleCalls++
	d.mu.Unlock()
	return d.ToggleErr
}

func (d *FakeDevice) CurrentState(ctx context.Context) (*session.PlayerState, error) {
	d.mu.Lock()
	d.StateCalls++
	d.mu.Unlock()
	return d.State, d.StateErr
}

// Emit dispatches a synthetic event to every registered handler, in
// registration order, on the caller's goroutine.
func (d *FakeDevice) Emit(e session.Event) {
	d.mu.Lock()
	handlers := append([]func(session.Event){}, d.handlers[e.Kind]...)
	d.mu.Unlock()
	for _, h := range handlers {
		h(e)
	}
}

// HandlerCount reports how many handlers are registered for a kind.
func (d *FakeDevice) HandlerCount(kind session.EventKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[kind])
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter accepts a fixed number of writes, then fails.
type LimitedWriter struct {
	remaining int
	w         io.Writer
}

func NewLimitedWriter(writes int, w io.Writer) *LimitedWriter {
	return &LimitedWriter{remaining: writes, w: w}
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.remaining <= 0 {
		return 0, errors.New("write limit reached")
	}
	l.remaining--
	return l.w.Write(p)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, r)
	return m.response, m.err
}

// FCloser simulates a failure when reading a response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)
