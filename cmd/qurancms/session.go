package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qurancms/internal/app"
	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/internal/session"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

func newLoginCmd(f *rootFlags) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the library",
		Long: "Mark this configuration directory as signed in. When an admin key is\n" +
			"configured it must be supplied with --key or on standard input.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.settings()
			if err != nil {
				return err
			}
			gate := app.NewFileGate(s.cfg, s.configDir)
			if _, err := gate.Check(); err != nil {
				return sysError(err)
			}
			if gate.KeyRequired() && key == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Admin key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return userError(errors.New("admin key required"))
				}
				key = strings.TrimSpace(line)
			}
			if err := gate.Login(key); err != nil {
				if errors.Is(err, session.ErrInvalidKey) {
					return userError(err)
				}
				return sysError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "admin key")
	return cmd
}

func newLogoutCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.settings()
			if err != nil {
				return err
			}
			if err := app.NewFileGate(s.cfg, s.configDir).Logout(); err != nil {
				return sysError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

// statusReport is the JSON form of the status command.
type statusReport struct {
	Session   string         `json:"session"`
	Backend   string         `json:"backend"`
	ConfigDir string         `json:"config_dir"`
	DataDir   string         `json:"data_dir"`
	Counts    map[string]int `json:"counts,omitempty"`
}

func newStatusCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and library status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := f.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.Gate().Check()
			if err != nil {
				return sysError(err)
			}
			report := statusReport{
				Session:   status.String(),
				Backend:   a.Config.Backend,
				ConfigDir: a.ConfigDir,
				DataDir:   a.DataDir,
				Counts:    make(map[string]int, len(types.Kinds)),
			}
			for _, schema := range content.All() {
				coll, err := a.Collection(schema.Kind)
				if err != nil {
					return sysError(err)
				}
				docs, err := coll.List(ctx, schema.Order)
				if err != nil {
					return sysError(fmt.Errorf("list %s: %w", schema.Kind.Plural(), err))
				}
				report.Counts[schema.Kind.Plural()] = len(docs)
			}

			out := cmd.OutOrStdout()
			if f.jsonMode {
				return printJSON(out, report)
			}
			fmt.Fprintf(out, "session:    %s\n", report.Session)
			fmt.Fprintf(out, "backend:    %s\n", report.Backend)
			fmt.Fprintf(out, "config dir: %s\n", report.ConfigDir)
			fmt.Fprintf(out, "data dir:   %s\n", report.DataDir)
			for _, kind := range types.Kinds {
				fmt.Fprintf(out, "%-11s %d\n", kind.Plural()+":", report.Counts[kind.Plural()])
			}
			return nil
		},
	}
}
