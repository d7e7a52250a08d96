package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/formatter"
	"github.com/ChrisT3B/beats-repeats-test/internal/report"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
)

// openReportDB opens the report database named by the config path.
func (r *Runner) openReportDB(configPath string) (*sql.DB, error) {
	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		}
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return db, nil
}

// ReportList lists recorded diagnostic runs, newest first.
func (r *Runner) ReportList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openReportDB(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := report.NewStore(db).ListRuns(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		return r.writePlain("No recorded runs. Run 'brt diagnose' first.\n")
	}

	for _, run := range runs {
		r.writePlain("%s  %s  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"), strings.ToUpper(run.Outcome), run.ID)
	}
	return nil
}

// ReportShow prints one run including its trace entries.
func (r *Runner) ReportShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrMissingArgument)
	}

	db, err := r.openReportDB(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := report.NewStore(db).GetRun(id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	if out := cmd.String("output"); out != "" {
		if err := formatter.WriteExport(run, cmd.String("format"), out); err != nil {
			return err
		}
		return r.writePlain("✓ Run exported to %s\n", out)
	}

	if cmd.Bool("json") {
		return r.writeJSON(run, true)
	}

	r.writePlain("Run %s (%s)\n", run.ID, strings.ToUpper(run.Outcome))
	r.writePlain("Started:        %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		r.writePlain("Finished:       %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
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

	if len(run.Entries) > 0 {
		r.writePlainln("Trace:")
		for _, e := range run.Entries {
			r.writePlain("%s [%s] %s\n", e.At.Format("15:04:05"), e.Severity, e.Message)
		}
	}
	return nil
}
