package transcribe

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scribe/cmd/scribe/cmd/shared"
	"scribe/internal/app/capture"
	"scribe/internal/app/export"
	"scribe/internal/app/progress"
)

var (
	format string
	noSave bool
)

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", "auto", "download format: auto, pdf, txt or xlsx")
	Cmd.Flags().BoolVar(&noSave, "no-save", false, "print the transcription without writing a file")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe an audio file",
	Long: `Transcribe an audio file with the configured backend and print the text.

The file's type is taken from its extension (falling back to its content) and
must be audio. The transcription is written next to the other downloads in the
configured output directory, named after the audio file.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		downloadFormat, err := export.ParseFormat(format)
		if err != nil {
			return errors.New(shared.FormatError(err))
		}

		file, err := capture.FileFromPath(args[0])
		if err != nil {
			return errors.New(shared.FormatError(err))
		}

		a, err := shared.InitializeApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Pipeline.SelectFile(file); err != nil {
			return errors.New(shared.FormatError(err))
		}

		pm := progress.NewManager(progress.Config{Enabled: progress.ShouldShowProgress(false), Writer: os.Stderr})
		spinner := pm.Spinner("Transcribing audio...", "Transcribed")

		text, err := a.Pipeline.TriggerUpload(cmd.Context())
		if err != nil {
			spinner.Abort()
			pm.Wait()
			return errors.New(shared.FormatError(err))
		}
		spinner.Done()
		pm.Wait()

		fmt.Fprintln(cmd.OutOrStdout(), text)

		if noSave {
			return nil
		}
		path, err := shared.SaveTranscription(a, downloadFormat)
		if err != nil {
			return errors.New(shared.FormatError(err))
		}
		fmt.Fprintf(os.Stderr, "✅ Saved %s\n", path)
		return nil
	},
}
