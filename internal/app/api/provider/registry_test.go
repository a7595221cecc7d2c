package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scribe/internal/app/api"
	"scribe/internal/app/config"
	"scribe/internal/app/encoder"
	apperrors "scribe/internal/app/errors"
)

func TestRegisterAndCreate(t *testing.T) {
	var got config.TranscriberConfig
	RegisterProvider("test-echo", func(cfg config.TranscriberConfig, logger *zap.Logger) (api.Transcriber, error) {
		got = cfg
		return api.TranscriberFunc(func(ctx context.Context, payload encoder.Payload) (string, error) {
			return payload.MIMEType, nil
		}), nil
	})

	transcriber, err := NewTranscriber(config.TranscriberConfig{Backend: "test-echo", Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "m", got.Model)

	text, err := transcriber.Transcribe(context.Background(), encoder.NewPayload([]byte("x"), "audio/webm"))
	require.NoError(t, err)
	assert.Equal(t, "audio/webm", text)

	assert.Contains(t, ListRegisteredProviders(), "test-echo")
}

func TestUnknownBackend(t *testing.T) {
	_, err := NewTranscriber(config.TranscriberConfig{Backend: "nope"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrProviderNotFound))
}

func TestListIsSorted(t *testing.T) {
	noop := func(config.TranscriberConfig, *zap.Logger) (api.Transcriber, error) { return nil, nil }
	RegisterProvider("zz-last", noop)
	RegisterProvider("aa-first", noop)

	names := ListRegisteredProviders()
	assert.IsNonDecreasing(t, names)
}
