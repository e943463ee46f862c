package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/internal/dashboard"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/analytics"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/config"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/metrics"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/notify"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/threatintel"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/vault"
)

func main() {
	logger := dashboard.Init(dashboard.LogMode())
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	// Panic guard to log stacktrace if app crashes
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic: application crashed",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			os.Exit(1)
		}
	}()
	logger.Debug("Starting honeypot-dashboard", zap.String("version", dashboard.Version.Version))

	cfg := loadConfig(logger)
	resolveSecrets(cfg, logger)
	validateConfig(cfg, logger)

	client := analytics.New(cfg.API.URL, cfg.API.Token, cfg.API.Timeout, logger)

	var feed *threatintel.Feed
	if cfg.Threat.Enabled {
		feed = threatintel.New(cfg.Threat.Owner, cfg.Threat.Repo, cfg.Threat.Path,
			cfg.Threat.Ref, cfg.Threat.PAT, cfg.API.Timeout, logger)
	}
	var notifier dashboard.Notifier
	if cfg.DataDog.Enabled {
		notifier = notify.New(cfg.DataDog.Site, cfg.DataDog.ApiKey, cfg.DataDog.AppKey,
			cfg.DataDog.Tags, logger)
	}

	server, err := dashboard.New(logger, cfg, client, feed, notifier, metrics.New())
	if err != nil {
		logger.Fatal("can't assemble the dashboard", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("shut down cleanly")
}

// loadConfig layers Default < optional yaml file < environment. The file
// path comes from CONFIG_PATH; validation happens separately, after Vault
// had its chance to fill the secrets in.
func loadConfig(logger *zap.Logger) *config.Config {
	cfg := config.Default()
	if path := config.GetEnv("CONFIG_PATH", ""); path != "" {
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal("can't open config file", zap.String("path", path), zap.Error(err))
		}
		defer func() { _ = f.Close() }()
		cfg = cfg.WithReader(f)
	}
	cfg, err := cfg.Load()
	if err != nil {
		logger.Fatal("can't load config", zap.Error(err))
	}
	return cfg
}

// resolveSecrets pulls the analytics token and the DataDog keys out of
// Vault for deployments that keep them there instead of the environment.
func resolveSecrets(cfg *config.Config, logger *zap.Logger) {
	if !cfg.Vault.Enabled {
		return
	}
	source, err := vault.New(cfg.Vault.URL, cfg.Vault.Token, cfg.Vault.Mount, cfg.Vault.Timeout, logger)
	if err != nil {
		logger.Fatal("can't build vault client", zap.Error(err))
	}
	ctx := context.Background()

	if cfg.API.Token == "" {
		token, err := source.Secret(ctx, cfg.Vault.Path, "token")
		if err != nil {
			logger.Fatal("can't read analytics API token from vault", zap.Error(err))
		}
		cfg.API.Token = token
	}
	if cfg.DataDog.Enabled && cfg.DataDog.ApiKey == "" {
		apiKey, apiErr := source.Secret(ctx, cfg.Vault.Path, "dd_api_key")
		appKey, appErr := source.Secret(ctx, cfg.Vault.Path, "dd_app_key")
		if apiErr != nil || appErr != nil {
			logger.Warn("DataDog keys not in vault, notifier disabled",
				zap.Error(errors.Join(apiErr, appErr)))
			cfg.DataDog.Enabled = false
			return
		}
		cfg.DataDog.ApiKey = apiKey
		cfg.DataDog.AppKey = appKey
	}
}

func validateConfig(cfg *config.Config, logger *zap.Logger) {
	problems := cfg.Validate()
	if len(problems) == 0 {
		return
	}
	for _, problem := range problems {
		logger.Error("invalid configuration", zap.Error(problem))
	}
	logger.Fatal("configuration is not usable")
}
