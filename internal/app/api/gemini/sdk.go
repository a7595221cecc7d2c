package gemini

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"scribe/internal/app/config"
	"scribe/internal/app/encoder"
	apperrors "scribe/internal/app/errors"
)

// SDKClient sends the same request as Client through the official Go SDK.
type SDKClient struct {
	clientConfig *genai.ClientConfig
	model        string
	prompt       string
	logger       *zap.Logger

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewSDKClient prepares an SDK backend. The SDK client is built on first use, so a missing key
// surfaces as a failed transcription rather than a startup error.
func NewSDKClient(cfg config.TranscriberConfig, logger *zap.Logger) *SDKClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	return &SDKClient{
		clientConfig: cc,
		model:        lo.CoalesceOrEmpty(cfg.Model, config.DefaultModel),
		prompt:       lo.CoalesceOrEmpty(cfg.Prompt, config.DefaultPrompt),
		logger:       logger,
	}
}

func (s *SDKClient) genaiClient(ctx context.Context) (*genai.Client, error) {
	s.once.Do(func() {
		s.client, s.initErr = genai.NewClient(ctx, s.clientConfig)
	})
	return s.client, s.initErr
}

// Transcribe implements api.Transcriber.
func (s *SDKClient) Transcribe(ctx context.Context, payload encoder.Payload) (string, error) {
	client, err := s.genaiClient(ctx)
	if err != nil {
		return "", apperrors.ErrTranscriptionFailed.With(fmt.Errorf("creating genai client: %w", err))
	}

	audio, err := payload.Bytes()
	if err != nil {
		return "", apperrors.ErrTranscriptionFailed.With(fmt.Errorf("decoding payload: %w", err))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(s.prompt),
			genai.NewPartFromBytes(audio, payload.MIMEType),
		}, genai.RoleUser),
	}

	s.logger.Debug("sending transcription request via sdk",
		zap.String("model", s.model),
		zap.String("mime_type", payload.MIMEType),
		zap.Int("audio_bytes", len(audio)),
	)

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		s.logger.Warn("generateContent failed", zap.Error(err))
		return "", apperrors.ErrTranscriptionFailed.With(err)
	}

	if len(resp.Candidates) == 0 {
		return "", apperrors.ErrNoTranscription.With(fmt.Errorf("no candidates"))
	}
	c := resp.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0] == nil {
		return "", apperrors.ErrNoTranscription.With(fmt.Errorf("candidate has no parts"))
	}
	return c.Parts[0].Text, nil
}
