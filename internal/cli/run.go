package cli

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/project"
	"github.com/agentx-labs/groundwork/internal/scaffold"
	"github.com/agentx-labs/groundwork/internal/verify"
	"github.com/agentx-labs/groundwork/internal/workflow"
)

type runFlags struct {
	update bool
	retry  bool
	json   bool
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Discover, generate and verify the project guides",
		Long: `Run every pending step of the workflow against the target directory.

A finished run is a no-op unless --update is given, which re-runs every step
and merges fresh output into the existing files. A failed blocking step stops
the run; fix the cause and pass --retry to run it again.

Exit codes: 0 passed or warnings, 1 a blocking step failed, 2 verification failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorkflow(cmd.Context(), false, f)
		},
	}
	cmd.Flags().BoolVar(&f.update, "update", false, "Re-run every step of a finished run")
	cmd.Flags().BoolVar(&f.retry, "retry", false, "Retry a failed blocking step")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the run report as JSON")
	return cmd
}

func newResumeCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Continue an interrupted run",
		Long:  `Continue the run recorded in the target's manifest. Fails if there is no manifest.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorkflow(cmd.Context(), true, f)
		},
	}
	cmd.Flags().BoolVar(&f.retry, "retry", false, "Retry a failed blocking step")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the run report as JSON")
	return cmd
}

type runOutput struct {
	Run          *workflow.Report `json:"run"`
	Verification *verify.Report   `json:"verification,omitempty"`
}

func (a *app) runWorkflow(ctx context.Context, resume bool, f runFlags) error {
	if err := a.setup(); err != nil {
		return exit(1, err)
	}
	fsys, err := a.target()
	if err != nil {
		return exit(1, err)
	}
	engine, err := a.discovery()
	if err != nil {
		return exit(1, err)
	}
	cat, err := a.catalog(engine)
	if err != nil {
		return exit(1, err)
	}
	backup, err := scaffold.ParseBackupPolicy(a.settings.Backup)
	if err != nil {
		return exit(1, err)
	}

	p := project.New(fsys, project.Options{
		Discovery: engine,
		Catalog:   cat,
		Workers:   a.settings.Workers,
		Backup:    backup,
		Snapshot:  a.settings.Snapshot,
		Log:       a.log,
	})
	wf, err := p.Engine(workflow.Options{Retry: f.retry, Update: f.update, Log: a.log})
	if err != nil {
		return exit(1, err)
	}

	var (
		report *workflow.Report
		m      *manifest.Manifest
	)
	if resume {
		report, m, err = wf.Resume(ctx)
	} else {
		report, m, err = wf.Run(ctx)
	}
	if report == nil {
		return exit(1, err)
	}

	verified := p.Verification()
	if verified == nil && err == nil {
		verified = finalVerification(fsys, m)
	}

	if f.json {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if jerr := enc.Encode(runOutput{Run: report, Verification: verified}); jerr != nil {
			return exit(1, jerr)
		}
	} else {
		printRunReport(a.out, report, verified)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return exit(1, errors.New("run interrupted; continue with `resume`"))
	case err != nil:
		return exit(1, err)
	case verified != nil && verified.Outcome == verify.Failed:
		return exit(2, nil)
	}
	return nil
}

func finalVerification(fsys afero.Fs, m *manifest.Manifest) *verify.Report {
	if m == nil {
		return nil
	}
	return verify.Run(fsys, m)
}
