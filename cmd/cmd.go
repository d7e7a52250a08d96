// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "token",
		Usage: "Spotify access token (falls back to the BRT_TOKEN environment variable)",
	}
}

func waitFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "wait",
		Usage: "How long to wait for the playback device to become ready",
		Value: defaultReadyWait,
	}
}

// setupCommand handles setup operations for configuration and the report database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the report database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the PKCE authorization flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify using the PKCE flow",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check the current token against the profile endpoint",
				Flags:  []cli.Flag{tokenFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// sessionCommand drives the playback-device session lifecycle.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Playback device session operations",
		Commands: []*cli.Command{
			{
				Name:   "connect",
				Usage:  "Stand up the playback device and report the resulting session state",
				Flags:  []cli.Flag{tokenFlag(), waitFlag()},
				Action: r.SessionConnect,
			},
			{
				Name:   "status",
				Usage:  "List Connect devices and whether the harness device is present",
				Flags:  []cli.Flag{tokenFlag()},
				Action: r.SessionStatus,
			},
		},
	}
}

// playbackCommand issues commands against a live device session.
func playbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playback",
		Usage: "Playback commands against a live device session",
		Commands: []*cli.Command{
			{
				Name:   "toggle",
				Usage:  "Toggle play/pause on the harness device",
				Flags:  []cli.Flag{tokenFlag(), waitFlag()},
				Action: r.PlaybackToggle,
			},
			{
				Name:   "transfer",
				Usage:  "Transfer playback to the harness device, paused",
				Flags:  []cli.Flag{tokenFlag(), waitFlag()},
				Action: r.PlaybackTransfer,
			},
		},
	}
}

// probeCommand runs the audio-capture capability checks.
func probeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Audio capture capability checks",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the capture checks and print the verdict",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.ProbeRun,
			},
			{
				Name:  "devices",
				Usage: "Enumerate audio endpoints visible to the capture backend",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.ProbeDevices,
			},
		},
	}
}

// diagnoseCommand runs the end-to-end scenario and records the run.
func diagnoseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diagnose",
		Usage: "Run the full diagnostic: authenticate, connect, transfer, probe",
		Flags: []cli.Flag{
			tokenFlag(),
			waitFlag(),
			configFlag(),
			&cli.BoolFlag{Name: "save", Usage: "Record this run in the report database", Value: true},
			&cli.BoolFlag{Name: "json", Usage: "Output the run record as JSON"},
		},
		Action: r.Diagnose,
	}
}

// reportCommand reads recorded diagnostic runs.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Inspect recorded diagnostic runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of runs to list", Value: 20},
				},
				Action: r.ReportList,
			},
			{
				Name:  "show",
				Usage: "Show one run including its trace entries",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the run to a file"},
					&cli.StringFlag{Name: "format", Usage: "Export format: csv, markdown or text", Value: "markdown"},
				},
				Action: r.ReportShow,
			},
		},
	}
}

// tuiCommand returns the top-level command for the live session monitor.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"monitor"},
		Usage:   "Launch the live session monitor",
		Flags:   []cli.Flag{tokenFlag(), waitFlag()},
		Action:  r.TUI,
	}
}
