package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qurancms/internal/config"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize qurancms storage",
		Long: "Create the configuration directory with a default config.yaml, then\n" +
			"attach and detach the configured backend once so its storage exists.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.settings()
			if err != nil {
				return err
			}
			written, err := config.WriteDefault(s.configDir)
			if err != nil {
				return sysError(err)
			}

			a, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Close(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}

			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "Wrote %s/config.yaml\n", s.configDir)
			}
			fmt.Fprintf(out, "qurancms initialized (backend %s, data %s)\n", a.Config.Backend, a.DataDir)
			return nil
		},
	}
}
