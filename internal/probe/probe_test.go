package probe_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ChrisT3B/beats-repeats-test/internal/probe"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

type fakeSession struct {
	channels int
	closed   int
}

func (s *fakeSession) Channels() int { return s.channels }
func (s *fakeSession) Close() error  { s.closed++; return nil }

type fakeCapture struct {
	channels int
	err      error
	opened   []*fakeSession
}

func (c *fakeCapture) Open(ctx context.Context, cfg probe.Config) (probe.Session, error) {
	if c.err != nil {
		return nil, c.err
	}
	s := &fakeSession{channels: c.channels}
	c.opened = append(c.opened, s)
	return s, nil
}

type fakeRecorder struct{ ok bool }

func (r fakeRecorder) Supports(string) bool { return r.ok }

type fakeGraph struct {
	sources []probe.Session
	addErr  error
	closed  int
}

func (g *fakeGraph) AddSource(s probe.Session) error {
	if g.addErr != nil {
		return g.addErr
	}
	g.sources = append(g.sources, s)
	return nil
}

func (g *fakeGraph) Close() error { g.closed++; return nil }

type fakeMixer struct {
	graph *fakeGraph
	err   error
}

func (m *fakeMixer) NewGraph(probe.Config) (probe.Graph, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.graph, nil
}

func allClosed(t *testing.T, c *fakeCapture, label string) {
	t.Helper()
	for i, s := range c.opened {
		if s.closed == 0 {
			t.Errorf("%s session %d left engaged", label, i)
		}
	}
}

func TestProbe(t *testing.T) {
	cfg := probe.Config{SampleRate: 48000, Channels: 2}

	t.Run("all checks pass", func(t *testing.T) {
		system := &fakeCapture{channels: 2}
		mic := &fakeCapture{channels: 1}
		graph := &fakeGraph{}
		p := probe.New(system, mic, fakeRecorder{ok: true}, &fakeMixer{graph: graph}, cfg, "pcm_s16le", trace.New(nil))

		v := p.Run(context.Background())
		if !v.SystemAudio || !v.Recorder || !v.MixGraph {
			t.Fatalf("verdict = %+v, want all true", v)
		}
		if v.Err != "" {
			t.Errorf("unexpected error text: %q", v.Err)
		}
		if !v.Viable() {
			t.Error("verdict should be viable")
		}
		if len(graph.sources) != 2 {
			t.Errorf("graph got %d sources, want 2", len(graph.sources))
		}
		if graph.closed == 0 {
			t.Error("graph left open")
		}
		allClosed(t, system, "system")
		allClosed(t, mic, "microphone")
	})

	t.Run("system denial does not abort siblings", func(t *testing.T) {
		system := &fakeCapture{err: errors.New("permission denied")}
		mic := &fakeCapture{channels: 1}
		p := probe.New(system, mic, fakeRecorder{ok: true}, &fakeMixer{graph: &fakeGraph{}}, cfg, "pcm_s16le", trace.New(nil))

		v := p.Run(context.Background())
		if v.SystemAudio {
			t.Error("system audio should be unavailable")
		}
		if !strings.Contains(v.Err, "permission denied") {
			t.Errorf("error text not captured: %q", v.Err)
		}
		if !v.Recorder {
			t.Error("recorder check should still run")
		}
		if v.MixGraph {
			t.Error("mix graph needs the system source")
		}
		if v.Viable() {
			t.Error("verdict must not be viable without system audio")
		}
	})

	t.Run("zero-channel stream is not a capture", func(t *testing.T) {
		system := &fakeCapture{channels: 0}
		p := probe.New(system, &fakeCapture{channels: 1}, fakeRecorder{ok: true}, &fakeMixer{graph: &fakeGraph{}}, cfg, "pcm_s16le", trace.New(nil))

		v := p.Run(context.Background())
		if v.SystemAudio {
			t.Error("system audio should be unavailable")
		}
		if v.Err == "" {
			t.Error("expected error text")
		}
		allClosed(t, system, "system")
	})

	t.Run("unsupported encoding only affects the recorder check", func(t *testing.T) {
		p := probe.New(&fakeCapture{channels: 2}, &fakeCapture{channels: 1}, fakeRecorder{ok: false}, &fakeMixer{graph: &fakeGraph{}}, cfg, "opus", trace.New(nil))

		v := p.Run(context.Background())
		if v.Recorder {
			t.Error("recorder should reject the encoding")
		}
		if !v.SystemAudio || !v.MixGraph {
			t.Errorf("sibling checks affected: %+v", v)
		}
	})

	t.Run("microphone failure releases the system source", func(t *testing.T) {
		system := &fakeCapture{channels: 2}
		mic := &fakeCapture{err: errors.New("busy")}
		p := probe.New(system, mic, fakeRecorder{ok: true}, &fakeMixer{graph: &fakeGraph{}}, cfg, "pcm_s16le", trace.New(nil))

		v := p.Run(context.Background())
		if v.MixGraph {
			t.Error("mix graph should fail without the microphone")
		}
		if !v.SystemAudio {
			t.Error("first check has its own session and should pass")
		}
		// first check + mix leg both open the system source
		if len(system.opened) != 2 {
			t.Fatalf("system opened %d times, want 2", len(system.opened))
		}
		allClosed(t, system, "system")
	})

	t.Run("source rejection still releases everything", func(t *testing.T) {
		system := &fakeCapture{channels: 2}
		mic := &fakeCapture{channels: 1}
		graph := &fakeGraph{addErr: errors.New("format mismatch")}
		p := probe.New(system, mic, fakeRecorder{ok: true}, &fakeMixer{graph: graph}, cfg, "pcm_s16le", trace.New(nil))

		v := p.Run(context.Background())
		if v.MixGraph {
			t.Error("mix graph should fail on source rejection")
		}
		if graph.closed == 0 {
			t.Error("graph left open")
		}
		allClosed(t, system, "system")
		allClosed(t, mic, "microphone")
	})

	t.Run("next run supersedes the verdict wholesale", func(t *testing.T) {
		system := &fakeCapture{err: errors.New("denied")}
		mic := &fakeCapture{channels: 1}
		p := probe.New(system, mic, fakeRecorder{ok: true}, &fakeMixer{graph: &fakeGraph{}}, cfg, "pcm_s16le", trace.New(nil))

		first := p.Run(context.Background())
		if first.SystemAudio || first.Err == "" {
			t.Fatalf("first verdict = %+v", first)
		}

		system.err = nil
		system.channels = 2
		second := p.Run(context.Background())
		if !second.SystemAudio || second.Err != "" {
			t.Errorf("second verdict carries stale fields: %+v", second)
		}
	})

	t.Run("nil trace log is tolerated", func(t *testing.T) {
		system := &fakeCapture{channels: 2}
		mic := &fakeCapture{channels: 1}
		p := probe.New(system, mic, fakeRecorder{ok: true}, &fakeMixer{graph: &fakeGraph{}}, cfg, "pcm_s16le", nil)

		v := p.Run(context.Background())
		if !v.Viable() {
			t.Errorf("verdict = %+v, want viable", v)
		}
	})
}

func TestSumMixer(t *testing.T) {
	graph, err := probe.SumMixer{}.NewGraph(probe.Config{Channels: 2})
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	if err := graph.AddSource(&fakeSession{channels: 2}); err != nil {
		t.Errorf("matching source rejected: %v", err)
	}
	if err := graph.AddSource(&fakeSession{channels: 0}); err == nil {
		t.Error("channel-less source accepted")
	}
	if err := graph.AddSource(&fakeSession{channels: 6}); err == nil {
		t.Error("wider-than-destination source accepted")
	}

	if err := graph.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := graph.AddSource(&fakeSession{channels: 1}); err == nil {
		t.Error("closed graph accepted a source")
	}
}

func TestPCMRecorder(t *testing.T) {
	r := probe.PCMRecorder{}
	if !r.Supports("pcm_s16le") {
		t.Error("pcm_s16le should be supported")
	}
	if r.Supports("opus") {
		t.Error("opus is not a raw PCM encoding")
	}
}
