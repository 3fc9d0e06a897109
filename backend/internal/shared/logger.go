package shared

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. Development environments get the
// console encoder; everything else logs JSON.
func NewLogger(config *ServiceConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if IsDevelopment(config) {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", config.ServiceName)), nil
}
