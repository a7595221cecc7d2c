package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"scribe/internal/app/api"
	"scribe/internal/app/api/provider"
	"scribe/internal/app/capture"
	"scribe/internal/app/config"
	"scribe/internal/app/export"
	"scribe/internal/app/metrics"
	"scribe/internal/app/pipeline"
)

// App is everything a front-end needs: the pipeline, its configuration and the metrics registry.
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Exporter *export.Exporter
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Close releases the microphone if a recording was left open.
func (a *App) Close() error {
	return a.Pipeline.Close()
}

// provideTranscriber builds the configured backend. Backends register themselves from init, so
// the binary must import them.
func provideTranscriber(cfg *config.Config, logger *zap.Logger) (api.Transcriber, error) {
	return provider.NewTranscriber(cfg.Transcriber, logger)
}

// provideMicrophone records the default input with ffmpeg.
func provideMicrophone(cfg *config.Config, logger *zap.Logger) capture.Device {
	return capture.NewFFmpegDevice(capture.FFmpegConfig{
		Binary:      cfg.Recorder.FFmpegBinary,
		InputFormat: cfg.Recorder.InputFormat,
		InputDevice: cfg.Recorder.InputDevice,
		SampleRate:  cfg.Recorder.SampleRate,
	}, logger.Named("microphone"))
}

func provideExporter(cfg *config.Config) *export.Exporter {
	return export.NewExporter(cfg.Export.PDFEnabled, cfg.Export.DefaultName)
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func providePipeline(transcriber api.Transcriber, microphone capture.Device, exporter *export.Exporter, m *metrics.Metrics, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Transcriber: transcriber,
		Microphone:  microphone,
		Exporter:    exporter,
		Metrics:     m,
		Logger:      logger.Named("pipeline"),
	})
}
