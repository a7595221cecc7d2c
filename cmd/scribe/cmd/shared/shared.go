// Package shared holds the flags and bootstrap code every subcommand uses.
package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"scribe/internal/app"
	"scribe/internal/app/config"
	apperrors "scribe/internal/app/errors"
	"scribe/internal/app/export"
	"scribe/internal/app/logging"
)

var (
	// Verbose enables debug logging and full error chains.
	Verbose bool
	// ConfigPath overrides the default config file location.
	ConfigPath string
)

// ResolvedConfigPath is --config or the default location.
func ResolvedConfigPath() string {
	return lo.CoalesceOrEmpty(ConfigPath, config.GetDefaultConfigPath())
}

// LoadConfig reads the config file, which may be absent.
func LoadConfig() (*config.Config, error) {
	return config.Load(ResolvedConfigPath())
}

// NewLogger builds the logger. A quiet logger shows only warnings unless --verbose is set, so
// that info lines do not interleave with the spinners.
func NewLogger(cfg *config.Config, quiet bool) (*zap.Logger, error) {
	logger, err := logging.NewLogger(cfg.Server.Environment != "production", Verbose)
	if err != nil {
		return nil, err
	}
	if quiet && !Verbose {
		logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	}
	return logger, nil
}

// InitializeApp loads the configuration and wires the application.
func InitializeApp(quiet bool) (*app.App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg, quiet)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return app.InitializeApp(cfg, logger)
}

// FormatError is the line printed for a failed command: the user-facing message, followed by
// the cause chain in verbose mode.
func FormatError(err error) string {
	msg := apperrors.UserMessage(err)
	if Verbose && msg != err.Error() {
		return fmt.Sprintf("%s (%v)", msg, err)
	}
	return msg
}

// WriteArtifact saves artifact into dir and returns the path written.
func WriteArtifact(dir string, artifact *export.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, artifact.Name)
	if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// SaveTranscription renders the current transcription of a and writes it to the configured
// output directory. A fallback to plain text is reported on stderr.
func SaveTranscription(a *app.App, format export.Format) (string, error) {
	artifact, err := a.Pipeline.Download(format)
	if err != nil {
		return "", err
	}
	if artifact.Fallback {
		fmt.Fprintf(os.Stderr, "⚠️  %s\n", apperrors.ErrRenderingFallback.Message())
	}
	return WriteArtifact(a.Config.Export.OutputDir, artifact)
}
