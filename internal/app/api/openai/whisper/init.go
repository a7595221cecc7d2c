package whisper

import (
	"go.uber.org/zap"

	"scribe/internal/app/api"
	"scribe/internal/app/api/provider"
	"scribe/internal/app/config"
)

func init() {
	provider.RegisterProvider("openai-whisper", createOpenAIProvider)
}

func createOpenAIProvider(cfg config.TranscriberConfig, logger *zap.Logger) (api.Transcriber, error) {
	return NewRemoteTranscriber(NewClient(cfg), cfg.Model, logger), nil
}
