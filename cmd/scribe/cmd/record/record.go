package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scribe/cmd/scribe/cmd/shared"
	"scribe/internal/app/export"
	"scribe/internal/app/progress"
)

var (
	duration time.Duration
	format   string
	noSave   bool
)

func init() {
	Cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop automatically after this long (default: until Ctrl+C)")
	Cmd.Flags().StringVarP(&format, "format", "f", "auto", "download format: auto, pdf, txt or xlsx")
	Cmd.Flags().BoolVar(&noSave, "no-save", false, "print the transcription without writing a file")
}

// Cmd represents the record command
var Cmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone and transcribe it",
	Long: `Record from the default microphone until Ctrl+C (or --duration), then send the
recording to the configured backend and print the transcription.

The transcription is also written to the configured output directory, named
after the default download name.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		downloadFormat, err := export.ParseFormat(format)
		if err != nil {
			return errors.New(shared.FormatError(err))
		}

		a, err := shared.InitializeApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Pipeline.StartRecording(cmd.Context()); err != nil {
			return errors.New(shared.FormatError(err))
		}

		pm := progress.NewManager(progress.Config{Enabled: progress.ShouldShowProgress(false), Writer: os.Stderr})
		recording := pm.Spinner("Recording...", "Recorded")

		waitForStop(cmd.Context())
		recording.Done()

		transcribing := pm.Spinner("Transcribing audio...", "Transcribed")
		text, err := a.Pipeline.StopRecording(cmd.Context())
		if err != nil {
			transcribing.Abort()
			pm.Wait()
			return errors.New(shared.FormatError(err))
		}
		transcribing.Done()
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

// waitForStop blocks until Ctrl+C, SIGTERM or the --duration limit.
func waitForStop(parent context.Context) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	<-ctx.Done()
}
