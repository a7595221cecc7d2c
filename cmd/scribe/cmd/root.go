package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"scribe/cmd/scribe/cmd/config"
	"scribe/cmd/scribe/cmd/record"
	"scribe/cmd/scribe/cmd/serve"
	"scribe/cmd/scribe/cmd/shared"
	"scribe/cmd/scribe/cmd/transcribe"
	"scribe/cmd/scribe/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Record or upload audio and transcribe it with Gemini",
	Long: `Record audio from the microphone or pick an audio file, send it to a
transcription backend and download the result.

- record: capture from the microphone until Ctrl+C
- transcribe: transcribe an audio file
- serve: expose the same pipeline over HTTP for a browser front-end`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(record.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&shared.Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&shared.ConfigPath, "config", "", "config file (default is $HOME/.scribe/config.yaml)")
}
