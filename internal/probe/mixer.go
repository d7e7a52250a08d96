package probe

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// recorderFormats maps the encodings the recorder can sink to their
// backend sample formats.
var recorderFormats = map[string]malgo.FormatType{
	"pcm_u8":    malgo.FormatU8,
	"pcm_s16le": malgo.FormatS16,
	"pcm_s24le": malgo.FormatS24,
	"pcm_s32le": malgo.FormatS32,
	"pcm_f32le": malgo.FormatF32,
}

// PCMRecorder answers encoding-support queries for the raw PCM sink.
type PCMRecorder struct{}

var _ Recorder = PCMRecorder{}

func (PCMRecorder) Supports(encoding string) bool {
	_, ok := recorderFormats[encoding]
	return ok
}

// SumMixer builds graphs that mix sources by plain sample summing. The
// graph only validates that its sources can feed one destination; no audio
// is pushed through it.
type SumMixer struct{}

var _ Mixer = SumMixer{}

func (SumMixer) NewGraph(cfg Config) (Graph, error) {
	channels := cfg.Channels
	if channels < 1 {
		channels = 2
	}
	return &sumGraph{channels: channels}, nil
}

type sumGraph struct {
	channels int
	sources  []Session
	closed   bool
}

func (g *sumGraph) AddSource(s Session) error {
	if g.closed {
		return fmt.Errorf("graph is closed")
	}
	if s == nil {
		return fmt.Errorf("nil source")
	}
	if s.Channels() < 1 {
		return fmt.Errorf("source exposes no audio channels")
	}
	if s.Channels() > g.channels {
		return fmt.Errorf("source has %d channels, destination takes %d", s.Channels(), g.channels)
	}
	g.sources = append(g.sources, s)
	return nil
}

// Close detaches the sources. Session lifetime stays with the caller.
func (g *sumGraph) Close() error {
	g.closed = true
	g.sources = nil
	return nil
}
