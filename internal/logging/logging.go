package logging

import (
	"go.uber.org/zap"
)

// New builds the run logger. Debug mode uses zap's development preset.
// The returned func flushes buffered entries and should be deferred.
func New(debug bool) (*zap.SugaredLogger, func(), error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		logger, err = cfg.Build()
	}
	if err != nil {
		return nil, nil, err
	}
	sugar := logger.Sugar()
	return sugar, func() { _ = logger.Sync() }, nil
}
