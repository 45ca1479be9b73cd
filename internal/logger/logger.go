// Package logger builds the zap logger for the configured environment.
package logger

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/config"
)

// New returns a production logger for the production environment and a
// development logger otherwise.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == config.EnvProduction {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
