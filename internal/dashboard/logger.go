package dashboard

import (
	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/config"
)

// Init builds the process logger. "development" selects the console
// preset, anything else the production JSON encoder.
func Init(mode string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if mode == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// LogMode reads the logger mode from the environment.
func LogMode() string {
	return config.GetEnv("APP_MODE", "production")
}
