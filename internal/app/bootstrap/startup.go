// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/pulsemesh/pulsemesh/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. The relay
// holds no durable state, so the only work is applying operational tuning:
// handler timeouts come from config here, before any handler runs. Zero
// values keep the package defaults.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   time.Duration(appCfg.TimeoutPingSecs) * time.Second,
		Short:  time.Duration(appCfg.TimeoutShortSecs) * time.Second,
		Medium: time.Duration(appCfg.TimeoutMediumSecs) * time.Second,
		Long:   time.Duration(appCfg.TimeoutLongSecs) * time.Second,
	})

	logger.Info("handler timeouts configured",
		zap.Duration("ping", timeouts.Ping()),
		zap.Duration("short", timeouts.Short()),
		zap.Duration("medium", timeouts.Medium()),
		zap.Duration("long", timeouts.Long()))
	return nil
}
