//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"scribe/internal/app/config"
)

func InitializeApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	wire.Build(
		provideTranscriber,
		provideMicrophone,
		provideExporter,
		provideRegistry,
		provideMetrics,
		providePipeline,
		wire.Struct(new(App), "*"),
	)
	return &App{}, nil
}
