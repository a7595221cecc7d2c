package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeys holds all API keys loaded from environment
type APIKeys struct {
	Gemini string
	OpenAI string
}

// envPaths are searched in order; the first existing file wins.
var envPaths = []string{
	".env",
	".env.local",
	"../.env",
	"../../.env",
}

// LoadEnv loads environment variables from the first .env file found. Variables already set in
// the process environment are not overridden. Returns the loaded path, or "" when none exists.
func LoadEnv() (string, error) {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}
	return "", nil
}

// GetAPIKeys reads the API keys. Absence is not an error.
func GetAPIKeys() *APIKeys {
	return &APIKeys{
		Gemini: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		OpenAI: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
	}
}

// Warnings lists keys that are set but look malformed.
func (k *APIKeys) Warnings() []string {
	var warnings []string
	if k.Gemini != "" {
		if err := ValidateAPIKey(k.Gemini, "Gemini"); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if k.OpenAI != "" {
		if err := ValidateAPIKey(k.OpenAI, "OpenAI"); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	return warnings
}

// ReportAPIKeys prints which keys are available without failing.
func ReportAPIKeys(w io.Writer, apiKeys *APIKeys) {
	var availableKeys []string
	if apiKeys.Gemini != "" {
		availableKeys = append(availableKeys, "Gemini")
	}
	if apiKeys.OpenAI != "" {
		availableKeys = append(availableKeys, "OpenAI")
	}

	if len(availableKeys) > 0 {
		fmt.Fprintf(w, "✅ API keys available: %s\n", strings.Join(availableKeys, ", "))
	} else {
		fmt.Fprintf(w, "ℹ️  No API keys configured (set GEMINI_API_KEY in the environment or .env)\n")
	}
	for _, warning := range apiKeys.Warnings() {
		fmt.Fprintf(w, "⚠️  %s\n", warning)
	}
}

// InitializeConfig loads .env and returns the API keys found.
func InitializeConfig() (*APIKeys, string, error) {
	loadedFrom, err := LoadEnv()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}
	return GetAPIKeys(), loadedFrom, nil
}
