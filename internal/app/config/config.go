package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	apperrors "scribe/internal/app/errors"
)

const (
	DefaultBackend = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
	DefaultPrompt  = "Transcribe the following audio:"
)

// Config is the scribe configuration file.
type Config struct {
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Recorder    RecorderConfig    `yaml:"recorder"`
	Export      ExportConfig      `yaml:"export"`
	Server      ServerConfig      `yaml:"server"`
}

// TranscriberConfig selects and configures the transcription backend.
type TranscriberConfig struct {
	Backend    string `yaml:"backend" validate:"required,oneof=gemini gemini-sdk openai-whisper"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url" validate:"omitempty,url"`
	Model      string `yaml:"model" validate:"required"`
	Prompt     string `yaml:"prompt" validate:"required"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty" validate:"gte=0,lte=1800"`
}

// Timeout is zero when the transport default applies.
func (t TranscriberConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// RecorderConfig configures the ffmpeg microphone.
type RecorderConfig struct {
	FFmpegBinary string `yaml:"ffmpeg_binary" validate:"required"`
	InputFormat  string `yaml:"input_format,omitempty"`
	InputDevice  string `yaml:"input_device,omitempty"`
	SampleRate   int    `yaml:"sample_rate,omitempty" validate:"omitempty,oneof=8000 12000 16000 24000 48000"`
}

// ExportConfig configures downloadable artifacts.
type ExportConfig struct {
	PDFEnabled  bool   `yaml:"pdf_enabled"`
	OutputDir   string `yaml:"output_dir" validate:"required"`
	DefaultName string `yaml:"default_name" validate:"required"`
}

// ServerConfig configures `scribe serve`.
type ServerConfig struct {
	Host        string `yaml:"host" validate:"required"`
	Port        string `yaml:"port" validate:"required,numeric"`
	Environment string `yaml:"environment" validate:"oneof=development production"`
}

// Load reads the YAML file at configPath. A missing file is not an error: defaults apply.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	configPath = os.ExpandEnv(configPath)
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.expandEnvironmentVariables()
	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(cfg *Config, configPath string) error {
	configPath = os.ExpandEnv(configPath)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Template is the file written by `scribe config init`. The transcriber endpoint, model and key
// are left empty so they resolve for whichever backend the file ends up selecting.
func Template() *Config {
	cfg := Default()
	cfg.Transcriber.APIKey = ""
	cfg.Transcriber.BaseURL = ""
	cfg.Transcriber.Model = ""
	return cfg
}

// expandEnvironmentVariables resolves "${VAR}" values.
func (c *Config) expandEnvironmentVariables() {
	for _, field := range []*string{
		&c.Transcriber.APIKey,
		&c.Transcriber.BaseURL,
		&c.Export.OutputDir,
		&c.Recorder.InputDevice,
	} {
		if strings.HasPrefix(*field, "${") && strings.HasSuffix(*field, "}") {
			envVar := strings.TrimSuffix(strings.TrimPrefix(*field, "${"), "}")
			*field = os.Getenv(envVar)
		}
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCRIBE_BACKEND"); v != "" {
		c.Transcriber.Backend = v
	}
	if v := os.Getenv("SCRIBE_MODEL"); v != "" {
		c.Transcriber.Model = v
	}
	if v := os.Getenv("SCRIBE_BASE_URL"); v != "" {
		c.Transcriber.BaseURL = v
	}
	if c.Transcriber.APIKey == "" {
		keyVar := lo.Ternary(c.Transcriber.Backend == "openai-whisper", "OPENAI_API_KEY", "GEMINI_API_KEY")
		c.Transcriber.APIKey = strings.TrimSpace(os.Getenv(keyVar))
	}
}

func (c *Config) setDefaults() {
	c.Transcriber.Backend = lo.CoalesceOrEmpty(c.Transcriber.Backend, DefaultBackend)
	c.Transcriber.Prompt = lo.CoalesceOrEmpty(c.Transcriber.Prompt, DefaultPrompt)
	if c.Transcriber.Backend != "openai-whisper" {
		c.Transcriber.BaseURL = lo.CoalesceOrEmpty(c.Transcriber.BaseURL, DefaultBaseURL)
		c.Transcriber.Model = lo.CoalesceOrEmpty(c.Transcriber.Model, DefaultModel)
	} else {
		// Gemini defaults left over from a switched backend would be sent to OpenAI.
		if c.Transcriber.BaseURL == DefaultBaseURL {
			c.Transcriber.BaseURL = ""
		}
		if strings.HasPrefix(c.Transcriber.Model, "gemini-") {
			c.Transcriber.Model = ""
		}
		c.Transcriber.Model = lo.CoalesceOrEmpty(c.Transcriber.Model, "whisper-1")
	}

	c.Recorder.FFmpegBinary = lo.CoalesceOrEmpty(c.Recorder.FFmpegBinary, "ffmpeg")

	c.Export.OutputDir = lo.CoalesceOrEmpty(c.Export.OutputDir, ".")
	c.Export.DefaultName = lo.CoalesceOrEmpty(c.Export.DefaultName, "transcription")

	c.Server.Host = lo.CoalesceOrEmpty(c.Server.Host, "127.0.0.1")
	c.Server.Port = lo.CoalesceOrEmpty(c.Server.Port, "8080")
	c.Server.Environment = lo.CoalesceOrEmpty(c.Server.Environment, "development")
}

// Validate checks the configuration. The API key is not checked; without one every
// transcription fails upstream.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.ErrInvalidConfig.With(err)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	if path := os.Getenv("SCRIBE_CONFIG_PATH"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "scribe.yaml"
	}

	return filepath.Join(home, ".scribe", "config.yaml")
}
