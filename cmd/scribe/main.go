package main

import (
	"fmt"
	"os"

	"scribe/cmd/scribe/cmd"
	"scribe/internal/config"

	// Import backends to register them
	_ "scribe/internal/app/api/gemini"
	_ "scribe/internal/app/api/openai/whisper"
)

func main() {
	// Load .env before the config file so ${VAR} references resolve
	apiKeys, _, err := config.InitializeConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Configuration Warning: %v\n", err)
	} else {
		for _, warning := range apiKeys.Warnings() {
			fmt.Fprintf(os.Stderr, "⚠️  %s\n", warning)
		}
	}

	cmd.Execute()
}
