package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/playback"
	"github.com/ChrisT3B/beats-repeats-test/internal/report"
	"github.com/ChrisT3B/beats-repeats-test/internal/session"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
)

// Diagnose runs the end-to-end scenario: validate the credential, stand up
// the device session, transfer playback to it, run the capture probe, and
// record the outcome. Step failures become trace entries and shape the
// verdict; they never abort the remaining steps that can still run.
func (r *Runner) Diagnose(ctx context.Context, cmd *cli.Command) error {
	run := &report.Run{StartedAt: time.Now()}

	token, err := r.token(cmd)
	if err != nil {
		return err
	}
	client := r.client(token)

	r.trace.Infof("diagnose: validating credential")
	user, err := client.Profile(ctx)
	if err != nil {
		r.trace.Errorf("diagnose: credential check failed: %v", err)
	} else {
		run.Authenticated = true
		r.trace.Infof("diagnose: authenticated as %s (%s account)", user.ID, user.Product)
		if user.Product != "premium" {
			r.trace.Warnf("diagnose: device sessions require a premium account")
		}
	}

	run.SessionState = session.Uninitialized.String()
	if run.Authenticated {
		coordinator, cleanup, err := r.connectSession(ctx, token, cmd.Duration("wait"))
		if err != nil {
			r.trace.Errorf("diagnose: device session failed: %v", err)
		} else {
			snap := coordinator.Snapshot()
			run.DeviceID = snap.DeviceID
			run.SessionState = snap.State.String()

			controller := playback.NewController(coordinator, client, r.trace)
			if err := controller.Transfer(ctx); err != nil {
				r.trace.Errorf("diagnose: transfer failed: %v", err)
			}

			run.SessionState = coordinator.Snapshot().State.String()
			cleanup()
		}
	} else {
		r.trace.Warnf("diagnose: skipping device session, no valid credential")
	}

	run.Verdict = r.newProbe().Run(ctx)

	run.FinishedAt = time.Now()
	run.Entries = r.trace.Entries()
	if run.Authenticated && run.SessionState == session.Ready.String() && run.Verdict.Viable() {
		run.Outcome = "pass"
	} else {
		run.Outcome = "fail"
	}

	if cmd.Bool("save") {
		if err := r.saveRun(cmd.String("config"), run); err != nil {
			r.logger.Warn("failed to record run", "error", err)
		} else {
			r.logger.Info("run recorded", "id", run.ID)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(run, true)
	}

	r.writePlain("Diagnostic run %s\n\n", run.ID)
	r.writePlain("Authenticated:  %t\n", run.Authenticated)
	r.writePlain("Session state:  %s\n", run.SessionState)
	if run.DeviceID != "" {
		r.writePlain("Device ID:      %s\n", run.DeviceID)
	}
	r.writePlain("System audio:   %t\n", run.Verdict.SystemAudio)
	r.writePlain("Recorder:       %t\n", run.Verdict.Recorder)
	r.writePlain("Mix graph:      %t\n", run.Verdict.MixGraph)
	if run.Verdict.Err != "" {
		r.writePlain("Probe error:    %s\n", run.Verdict.Err)
	}
	r.writePlainln("Outcome: %s", run.Outcome)
	return nil
}

// saveRun opens the report database from the given config path and records
// the run.
func (r *Runner) saveRun(configPath string, run *report.Run) error {
	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		}
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return report.NewStore(db).SaveRun(run)
}
