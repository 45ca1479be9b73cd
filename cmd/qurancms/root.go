package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/app"
	"github.com/mesh-intelligence/qurancms/internal/config"
	"github.com/mesh-intelligence/qurancms/internal/logger"
	"github.com/mesh-intelligence/qurancms/internal/paths"
	"github.com/mesh-intelligence/qurancms/internal/session"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by the invocation (bad arguments, unknown
// documents, rejected input).
func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

// sysError marks err as an environment failure (storage, filesystem).
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// newRootCmd creates the top-level command with its global flags and all
// subcommands registered.
func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "qurancms",
		Short: "Content manager for the Quran app library",
		Long: "qurancms manages the surahs, audio lectures, books, quotes and duas\n" +
			"served to the Quran mobile app, from the command line or the admin dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&f.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "data directory (default: config data_dir or ./.qurancms-db)")
	root.PersistentFlags().BoolVar(&f.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "log library activity to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(f),
		newServeCmd(f),
		newLoginCmd(f),
		newLogoutCmd(f),
		newStatusCmd(f),
		newListCmd(f),
		newGetCmd(f),
		newAddCmd(f),
		newEditCmd(f),
		newDeleteCmd(f),
		newUploadCmd(f),
		newExportCmd(f),
		newSeedCmd(f),
	)
	return root
}

// execute runs root with args, prints any error to stderr and returns the
// process exit code.
func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(root.ErrOrStderr(), "error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument parsing errors come straight from cobra.
	return exitUserError
}

// settings is the resolved configuration of one invocation.
type settings struct {
	configDir string
	dataDir   string
	cfg       *config.Config
}

func (f *rootFlags) settings() (*settings, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, userError(err)
	}
	dataDir, err := paths.ResolveDataDir(f.dataDir, cfg.DataDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	return &settings{configDir: configDir, dataDir: dataDir, cfg: cfg}, nil
}

// logger returns the configured logger in verbose mode and a no-op logger
// otherwise.
func (f *rootFlags) logger(cfg *config.Config) (*zap.Logger, error) {
	if !f.verbose {
		return zap.NewNop(), nil
	}
	return logger.New(cfg)
}

// open resolves the configuration and attaches the library. The caller must
// Close the returned app.
func (f *rootFlags) open(ctx context.Context, opts ...app.Option) (*app.App, error) {
	s, err := f.settings()
	if err != nil {
		return nil, err
	}
	log, err := f.logger(s.cfg)
	if err != nil {
		return nil, sysError(fmt.Errorf("create logger: %w", err))
	}
	a, err := app.Open(ctx, s.cfg, s.configDir, s.dataDir, log, opts...)
	if err != nil {
		return nil, sysError(err)
	}
	return a, nil
}

// requireLogin fails unless the CLI session is authenticated.
func requireLogin(gate *session.Gate) error {
	status, err := gate.Check()
	if err != nil {
		return sysError(err)
	}
	if status != session.Authenticated {
		return userError(errors.New("not signed in; run \"qurancms login\" first"))
	}
	return nil
}
