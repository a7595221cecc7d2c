package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/cmd/scribe/cmd/shared"
	"scribe/internal/api/server"
)

var (
	host string
	port string
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "listen address (default from config, 127.0.0.1)")
	Cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default from config, 8080)")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recording and upload pipeline over HTTP",
	Long: `Serve the transcription pipeline as a JSON API for a browser front-end.

Endpoints:
- GET  /api/v1/state
- POST /api/v1/recording/start, /api/v1/recording/stop
- POST /api/v1/file (multipart field "file"), DELETE /api/v1/file
- POST /api/v1/upload
- GET  /api/v1/download?format=auto
- GET  /health, /metrics`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := shared.InitializeApp(false)
		if err != nil {
			return err
		}
		defer a.Close()
		defer func() { _ = a.Logger.Sync() }()

		cfg := a.Config.Server
		if host != "" {
			cfg.Host = host
		}
		if port != "" {
			cfg.Port = port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.NewServer(server.DefaultConfig(cfg.Host, cfg.Port, cfg.Environment), a, a.Logger.Named("http"))
		return srv.Run(ctx)
	},
}
