// package probe runs the audio-capture capability checks. Each check is
// best-effort: a failure is recorded in the verdict and never aborts the
// sibling checks.
package probe

import (
	"context"
	"fmt"

	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

// Verdict is the immutable result of one probe run. A later run supersedes
// the whole record, it is never merged.
type Verdict struct {
	SystemAudio bool   `json:"system_audio"`
	Recorder    bool   `json:"recorder"`
	MixGraph    bool   `json:"mix_graph"`
	Err         string `json:"error,omitempty"`
}

// Viable reports the binary integration decision. Only system-audio capture
// matters for it; the other checks are informational.
func (v Verdict) Viable() bool {
	return v.SystemAudio
}

// Probe sequences the capability checks against the configured ports.
type Probe struct {
	system   Capture
	mic      Capture
	recorder Recorder
	mixer    Mixer
	cfg      Config
	encoding string
	trace    *trace.Log
}

func New(system, mic Capture, recorder Recorder, mixer Mixer, cfg Config, encoding string, tl *trace.Log) *Probe {
	if tl == nil {
		tl = trace.New(nil)
	}
	return &Probe{
		system:   system,
		mic:      mic,
		recorder: recorder,
		mixer:    mixer,
		cfg:      cfg,
		encoding: encoding,
		trace:    tl,
	}
}

// Run executes the checks in order: system audio, recorder support, mix
// graph. Capture sessions engaged by a check are released before Run
// returns, on success and failure alike.
func (p *Probe) Run(ctx context.Context) Verdict {
	var v Verdict

	p.trace.Infof("probe: starting capture capability checks")

	v.SystemAudio, v.Err = p.checkSystemAudio(ctx)
	if v.SystemAudio {
		p.trace.Infof("probe: system audio capture available")
	} else {
		p.trace.Warnf("probe: system audio capture unavailable: %s", v.Err)
	}

	v.Recorder = p.recorder.Supports(p.encoding)
	if v.Recorder {
		p.trace.Infof("probe: recorder accepts %s", p.encoding)
	} else {
		p.trace.Warnf("probe: recorder does not accept %s", p.encoding)
	}

	v.MixGraph = p.checkMixGraph(ctx)
	if v.MixGraph {
		p.trace.Infof("probe: mix graph constructed")
	} else {
		p.trace.Warnf("probe: mix graph construction failed")
	}

	if v.Viable() {
		p.trace.Infof("probe: verdict: integration viable")
	} else {
		p.trace.Warnf("probe: verdict: integration not viable")
	}
	return v
}

// checkSystemAudio engages a system-audio-only stream, verifies it carries
// at least one channel, and releases it immediately.
func (p *Probe) checkSystemAudio(ctx context.Context) (bool, string) {
	s, err := p.system.Open(ctx, p.cfg)
	if err != nil {
		return false, err.Error()
	}
	defer s.Close()

	if s.Channels() < 1 {
		return false, "captured stream exposes no audio channels"
	}
	return true, ""
}

// checkMixGraph engages microphone and system audio together, sources both
// into one graph, and treats a clean construction as proof mixing is
// feasible. Audio is not pushed through the graph.
func (p *Probe) checkMixGraph(ctx context.Context) bool {
	system, err := p.system.Open(ctx, p.cfg)
	if err != nil {
		p.trace.Debugf("probe: mix graph: system source: %v", err)
		return false
	}
	defer system.Close()

	mic, err := p.mic.Open(ctx, p.cfg)
	if err != nil {
		p.trace.Debugf("probe: mix graph: microphone source: %v", err)
		return false
	}
	defer mic.Close()

	graph, err := p.mixer.NewGraph(p.cfg)
	if err != nil {
		p.trace.Debugf("probe: mix graph: %v", err)
		return false
	}
	defer graph.Close()

	if err := addSources(graph, system, mic); err != nil {
		p.trace.Debugf("probe: mix graph: %v", err)
		return false
	}
	return true
}

func addSources(graph Graph, sources ...Session) error {
	for i, s := range sources {
		if err := graph.AddSource(s); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	return nil
}
