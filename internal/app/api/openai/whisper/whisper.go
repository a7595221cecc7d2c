package whisper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"scribe/internal/app/capture"
	"scribe/internal/app/config"
	"scribe/internal/app/encoder"
	apperrors "scribe/internal/app/errors"
)

// RemoteTranscriber implements remote transcription using the OpenAI API.
type RemoteTranscriber struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewRemoteTranscriber creates a new RemoteTranscriber instance.
func NewRemoteTranscriber(client *openai.Client, model string, logger *zap.Logger) *RemoteTranscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteTranscriber{
		client: client,
		model:  lo.CoalesceOrEmpty(model, openai.Whisper1),
		logger: logger,
	}
}

// NewClient builds the go-openai client for cfg. An empty base URL keeps the OpenAI default.
func NewClient(cfg config.TranscriberConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if timeout := cfg.Timeout(); timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(clientConfig)
}

// Transcribe uploads the decoded audio. The file name only carries the extension the API
// uses to pick a decoder.
func (rt *RemoteTranscriber) Transcribe(ctx context.Context, payload encoder.Payload) (string, error) {
	audio, err := payload.Bytes()
	if err != nil {
		return "", apperrors.ErrTranscriptionFailed.With(fmt.Errorf("decoding payload: %w", err))
	}

	req := openai.AudioRequest{
		Model:    rt.model,
		FilePath: "audio" + lo.CoalesceOrEmpty(capture.ExtensionFor(payload.MIMEType), ".webm"),
		Reader:   bytes.NewReader(audio),
	}
	rt.logger.Debug("sending transcription request",
		zap.String("model", rt.model),
		zap.String("file_name", req.FilePath),
		zap.Int("audio_bytes", len(audio)),
	)

	resp, err := rt.client.CreateTranscription(ctx, req)
	if err != nil {
		rt.logger.Warn("createTranscription failed", zap.Error(err))
		return "", apperrors.ErrTranscriptionFailed.With(fmt.Errorf("createTranscription failed: %w", err))
	}

	return resp.Text, nil
}
