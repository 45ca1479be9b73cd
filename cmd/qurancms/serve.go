package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/app"
	"github.com/mesh-intelligence/qurancms/internal/httpapi"
	"github.com/mesh-intelligence/qurancms/internal/logger"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin dashboard",
		Long:  "Serve the admin dashboard, its JSON API and uploaded media until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.settings()
			if err != nil {
				return err
			}
			if addr != "" {
				s.cfg.HTTP.Addr = addr
			}
			log, err := logger.New(s.cfg)
			if err != nil {
				return sysError(fmt.Errorf("create logger: %w", err))
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Open(ctx, s.cfg, s.configDir, s.dataDir, log)
			if err != nil {
				return sysError(err)
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Error("detach library", zap.Error(err))
				}
			}()

			if err := httpapi.New(a).Run(ctx); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http.addr from config)")
	return cmd
}
