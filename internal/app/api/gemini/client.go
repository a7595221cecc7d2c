// Package gemini transcribes audio with Google's Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"scribe/internal/app/config"
	"scribe/internal/app/encoder"
	apperrors "scribe/internal/app/errors"
)

// Client calls the REST endpoint directly: one POST per payload, key in the query string.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	prompt  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a REST client. A zero timeout keeps the transport default.
func NewClient(cfg config.TranscriberConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(lo.CoalesceOrEmpty(cfg.BaseURL, config.DefaultBaseURL), "/"),
		model:   lo.CoalesceOrEmpty(cfg.Model, config.DefaultModel),
		apiKey:  cfg.APIKey,
		prompt:  lo.CoalesceOrEmpty(cfg.Prompt, config.DefaultPrompt),
		client:  &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// Text is a pointer so a part without a text field can be told apart from an empty transcription.
type part struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Endpoint is the request URL without the key.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
}

// Transcribe sends the prompt and the inline audio, and returns the first part of the first candidate.
func (c *Client) Transcribe(ctx context.Context, payload encoder.Payload) (string, error) {
	start := time.Now()

	req, err := c.createHTTPRequest(ctx, payload)
	if err != nil {
		return "", apperrors.ErrTranscriptionFailed.With(err)
	}

	c.logger.Debug("sending transcription request",
		zap.String("model", c.model),
		zap.String("mime_type", payload.MIMEType),
		zap.Int("audio_bytes", payload.Size()),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("transcription request failed", zap.Error(err))
		return "", apperrors.ErrTranscriptionFailed.With(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.handleHTTPError(resp)
	}

	var body generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperrors.ErrTranscriptionFailed.With(fmt.Errorf("failed to parse API response: %w", err))
	}

	text, err := firstText(body)
	if err != nil {
		c.logger.Warn("unexpected response structure", zap.Error(err))
		return "", err
	}

	c.logger.Debug("transcription received",
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}

func (c *Client) createHTTPRequest(ctx context.Context, payload encoder.Payload) (*http.Request, error) {
	prompt := c.prompt
	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: &prompt},
				{InlineData: &inlineData{MimeType: payload.MIMEType, Data: payload.Data}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	u, err := url.Parse(c.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "scribe/1.0")
	return req, nil
}

func (c *Client) handleHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp errorResponse
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	c.logger.Warn("transcription API error",
		zap.Int("status", resp.StatusCode),
		zap.String("message", msg),
	)
	return apperrors.ErrTranscriptionFailed.With(fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, msg))
}

func firstText(body generateContentResponse) (string, error) {
	if len(body.Candidates) == 0 {
		return "", apperrors.ErrNoTranscription.With(fmt.Errorf("no candidates"))
	}
	c := body.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return "", apperrors.ErrNoTranscription.With(fmt.Errorf("candidate has no parts"))
	}
	if c.Parts[0].Text == nil {
		return "", apperrors.ErrNoTranscription.With(fmt.Errorf("first part has no text"))
	}
	return *c.Parts[0].Text, nil
}
