package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/probe"
)

// newProbe wires the capture checks to the miniaudio backend.
func (r *Runner) newProbe() *probe.Probe {
	cfg := probe.Config{
		SampleRate: r.config.Probe.SampleRate,
		Channels:   r.config.Probe.Channels,
	}
	return probe.New(
		probe.NewLoopbackCapture(),
		probe.NewMicrophoneCapture(),
		probe.PCMRecorder{},
		probe.SumMixer{},
		cfg,
		r.config.Probe.Encoding,
		r.trace,
	)
}

// ProbeRun runs the capture capability checks and prints the verdict.
func (r *Runner) ProbeRun(ctx context.Context, cmd *cli.Command) error {
	verdict := r.newProbe().Run(ctx)

	if cmd.Bool("json") {
		return r.writeJSON(verdict, cmd.Bool("pretty"))
	}

	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}
	r.writePlain("%s system audio capture\n", mark(verdict.SystemAudio))
	r.writePlain("%s recorder accepts %s\n", mark(verdict.Recorder), r.config.Probe.Encoding)
	r.writePlain("%s mix graph construction\n", mark(verdict.MixGraph))
	if verdict.Err != "" {
		r.writePlain("Error: %s\n", verdict.Err)
	}
	if verdict.Viable() {
		r.writePlain("\nIntegration viable.\n")
	} else {
		r.writePlain("\nIntegration NOT viable.\n")
	}
	return nil
}

// ProbeDevices enumerates the audio endpoints the capture backend can see.
func (r *Runner) ProbeDevices(ctx context.Context, cmd *cli.Command) error {
	devices, err := probe.ListDevices()
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}

	r.writePlain("Capture devices:\n")
	for _, d := range devices.Capture {
		if d.Default {
			r.writePlain("  %s (default)\n", d.Name)
		} else {
			r.writePlain("  %s\n", d.Name)
		}
	}
	r.writePlain("Playback devices:\n")
	for _, d := range devices.Playback {
		if d.Default {
			r.writePlain("  %s (default)\n", d.Name)
		} else {
			r.writePlain("  %s\n", d.Name)
		}
	}
	return nil
}
