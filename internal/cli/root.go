package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentx-labs/groundwork/internal/branding"
	"github.com/agentx-labs/groundwork/internal/catalog"
	"github.com/agentx-labs/groundwork/internal/config"
	"github.com/agentx-labs/groundwork/internal/discovery"
	"github.com/agentx-labs/groundwork/internal/discovery/detectors"
	"github.com/agentx-labs/groundwork/internal/logging"
	"github.com/agentx-labs/groundwork/internal/project"
	"github.com/agentx-labs/groundwork/internal/tools"
)

// BuildInfo is injected via ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// ExitError carries a process exit code. A nil Err exits silently.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func exit(code int, err error) error { return &ExitError{Code: code, Err: err} }

// app holds the state shared by the commands of one invocation.
type app struct {
	info   BuildInfo
	out    io.Writer
	errOut io.Writer

	dir     string
	verbose bool

	cfg      *config.Config
	settings config.Settings
	log      *zap.Logger
}

func newRootCmd(info BuildInfo, out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{info: info, out: out, errOut: errOut, log: zap.NewNop()}

	root := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: branding.DisplayName() + ` inspects a project, infers facts about it, and renders
assistant guides and developer docs from those facts. Generated files keep the
content of their REGION blocks across runs, and progress is tracked in
` + branding.StateDir() + `/manifest.json so interrupted runs can be resumed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "Target project directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newRunCmd(a),
		newResumeCmd(a),
		newStatusCmd(a, "status", "Show the state of the last run"),
		newStatusCmd(a, "verify", "Verify generated files against the manifest"),
		newDiscoverCmd(a),
		newRenderCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root, a
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute(version, commit, date string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Run(ctx, BuildInfo{Version: version, Commit: commit, Date: date}, os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes the command tree with args and returns the exit code.
func Run(ctx context.Context, info BuildInfo, args []string, out, errOut io.Writer) int {
	root, a := newRootCmd(info, out, errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	_ = a.log.Sync()
	if err == nil {
		return 0
	}

	var ee *ExitError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", ee.Err)
		}
		return ee.Code
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	return 1
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("%s: %w", config.FilePath(), err)
	}
	level := settings.LogLevel
	if a.verbose {
		level = "debug"
	}
	log, err := logging.New(level, settings.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.settings, a.log = cfg, settings, log
	return nil
}

// target returns the project tree rooted at "/".
func (a *app) target() (afero.Fs, error) {
	abs, err := filepath.Abs(a.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", a.dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("target directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target %s is not a directory", abs)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), abs), nil
}

func (a *app) discovery() (*discovery.Engine, error) {
	specs, unknown := tools.Specs(a.settings.Tools)
	for _, name := range unknown {
		a.log.Warn("unknown tool in config", zap.String("tool", name))
	}
	prober := tools.NewProber(a.settings.ToolTimeout, a.log)
	prober.Workers = a.settings.Workers
	dets := detectors.Default(detectors.Options{Prober: prober, Tools: specs})
	return discovery.New(dets, discovery.Options{Workers: a.settings.Workers, Log: a.log})
}

func (a *app) catalog(engine *discovery.Engine) (*catalog.Catalog, error) {
	opts := catalog.Options{Schema: engine.Schema(), Steps: project.GenerationSteps()}
	if dir := a.settings.CatalogDir; dir != "" {
		return catalog.LoadDir(afero.NewOsFs(), dir, opts)
	}
	return catalog.Default(opts)
}
