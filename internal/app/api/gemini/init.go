package gemini

import (
	"go.uber.org/zap"

	"scribe/internal/app/api"
	"scribe/internal/app/api/provider"
	"scribe/internal/app/config"
)

func init() {
	provider.RegisterProvider("gemini", func(cfg config.TranscriberConfig, logger *zap.Logger) (api.Transcriber, error) {
		return NewClient(cfg, logger), nil
	})
	provider.RegisterProvider("gemini-sdk", func(cfg config.TranscriberConfig, logger *zap.Logger) (api.Transcriber, error) {
		return NewSDKClient(cfg, logger), nil
	})
}
