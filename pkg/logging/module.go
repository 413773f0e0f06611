package logging

import (
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module loads the "logging" viper key and provides both the raw zap logger
// and the logging Interface.
var Module fx.Option = fx.Provide(
	provideZapLogger,
	provideInterface,
)

func provideZapLogger(v *viper.Viper) (*zap.Logger, error) {
	config, err := NewConfig(WithViper(v))
	if err != nil {
		return nil, err
	}
	return NewLogger(config)
}

func provideInterface(logger *zap.Logger) Interface {
	return ForZap(logger)
}
