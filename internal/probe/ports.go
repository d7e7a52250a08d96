package probe

import "context"

// Config describes the stream format a capability check asks for.
type Config struct {
	SampleRate int
	Channels   int
}

// Session is an engaged capture stream. Sessions are acquired and released
// strictly within a single probe invocation, never held across runs.
type Session interface {
	// Channels reports how many audio channels the stream carries.
	Channels() int
	Close() error
}

// Capture opens capture sessions for one audio source.
type Capture interface {
	Open(ctx context.Context, cfg Config) (Session, error)
}

// Recorder reports whether a recording backend accepts an encoding.
type Recorder interface {
	Supports(encoding string) bool
}

// Graph routes capture sessions into a single mixed destination.
type Graph interface {
	AddSource(s Session) error
	Close() error
}

// Mixer constructs mixing graphs.
type Mixer interface {
	NewGraph(cfg Config) (Graph, error)
}
