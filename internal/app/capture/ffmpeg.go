package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "scribe/internal/app/errors"
)

const (
	defaultChunkSize    = 4096
	defaultStopTimeout  = 5 * time.Second
	defaultStartupGrace = 250 * time.Millisecond
)

// FFmpegConfig selects the ffmpeg binary and the platform input to record from.
type FFmpegConfig struct {
	Binary      string
	InputFormat string
	InputDevice string
	SampleRate  int
	ChunkSize   int
	StopTimeout time.Duration
	// StartupGrace is how long Acquire watches a fresh process for an immediate exit, which
	// is how ffmpeg reports a missing or refused input device.
	StartupGrace time.Duration
}

// DefaultFFmpegConfig returns the default input for the current platform.
func DefaultFFmpegConfig() FFmpegConfig {
	cfg := FFmpegConfig{
		Binary:       "ffmpeg",
		SampleRate:   48000,
		ChunkSize:    defaultChunkSize,
		StopTimeout:  defaultStopTimeout,
		StartupGrace: defaultStartupGrace,
	}
	switch runtime.GOOS {
	case "darwin":
		cfg.InputFormat, cfg.InputDevice = "avfoundation", ":default"
	case "windows":
		cfg.InputFormat, cfg.InputDevice = "dshow", "audio=default"
	default:
		cfg.InputFormat, cfg.InputDevice = "pulse", "default"
	}
	return cfg
}

// FFmpegDevice records the default input through ffmpeg, encoding WebM/Opus on stdout so each
// read from the pipe is one fragment.
type FFmpegDevice struct {
	config FFmpegConfig
	logger *zap.Logger
}

// NewFFmpegDevice creates a microphone backed by ffmpeg.
func NewFFmpegDevice(config FFmpegConfig, logger *zap.Logger) *FFmpegDevice {
	defaults := DefaultFFmpegConfig()
	if config.Binary == "" {
		config.Binary = defaults.Binary
	}
	if config.InputFormat == "" {
		config.InputFormat = defaults.InputFormat
		config.InputDevice = defaults.InputDevice
	}
	if config.SampleRate == 0 {
		config.SampleRate = defaults.SampleRate
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaults.ChunkSize
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = defaults.StopTimeout
	}
	if config.StartupGrace <= 0 {
		config.StartupGrace = defaults.StartupGrace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegDevice{config: config, logger: logger}
}

// Args returns the ffmpeg command line used for a capture.
func (d *FFmpegDevice) Args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", d.config.InputFormat,
		"-i", d.config.InputDevice,
		"-ac", "1",
		"-ar", fmt.Sprint(d.config.SampleRate),
		"-c:a", "libopus",
		"-f", "webm",
		"pipe:1",
	}
}

// CheckFFmpeg reports whether the configured binary can be found.
func (d *FFmpegDevice) CheckFFmpeg() error {
	if _, err := exec.LookPath(d.config.Binary); err != nil {
		return apperrors.ErrDeviceUnavailable.With(fmt.Errorf("ffmpeg not found: %w", err))
	}
	return nil
}

// Acquire starts ffmpeg. The process is not bound to ctx: it lives until Release. A process
// that exits within the startup grace never opened the input, and is reported as
// ErrDeviceUnavailable with ffmpeg's stderr.
func (d *FFmpegDevice) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.ErrDeviceUnavailable.With(err)
	}
	if err := d.CheckFFmpeg(); err != nil {
		return nil, err
	}

	cmd := exec.Command(d.config.Binary, d.Args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, apperrors.ErrDeviceUnavailable.With(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.ErrDeviceUnavailable.With(err)
	}
	stream := &ffmpegStream{
		cmd:         cmd,
		stdin:       stdin,
		stdout:      stdout,
		fragments:   make(chan []byte, 16),
		pumped:      make(chan struct{}),
		stopTimeout: d.config.StopTimeout,
		logger:      d.logger,
	}
	cmd.Stderr = &stream.stderr

	if err := cmd.Start(); err != nil {
		return nil, apperrors.ErrDeviceUnavailable.With(fmt.Errorf("starting ffmpeg: %w", err))
	}
	d.logger.Debug("microphone acquired",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("input_format", d.config.InputFormat),
		zap.String("input_device", d.config.InputDevice),
	)

	go stream.pump(d.config.ChunkSize)

	select {
	case <-stream.pumped:
		err := stream.Release()
		if err == nil {
			err = fmt.Errorf("ffmpeg exited during startup, stderr: %s", strings.TrimSpace(stream.stderr.String()))
		}
		d.logger.Warn("microphone could not be opened", zap.Error(err))
		return nil, apperrors.ErrDeviceUnavailable.With(err)
	case <-time.After(d.config.StartupGrace):
	}
	return stream, nil
}

type ffmpegStream struct {
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      io.ReadCloser
	stderr      bytes.Buffer
	fragments   chan []byte
	pumped      chan struct{}
	stopTimeout time.Duration
	logger      *zap.Logger

	stopOnce    sync.Once
	stopErr     error
	releaseOnce sync.Once
	releaseErr  error
}

func (s *ffmpegStream) pump(chunkSize int) {
	defer close(s.pumped)
	defer close(s.fragments)

	buf := make([]byte, chunkSize)
	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			fragment := make([]byte, n)
			copy(fragment, buf[:n])
			s.fragments <- fragment
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Debug("ffmpeg stdout closed", zap.Error(err))
			}
			return
		}
	}
}

func (s *ffmpegStream) Fragments() <-chan []byte {
	return s.fragments
}

// Stop asks ffmpeg to finish the container and exit.
func (s *ffmpegStream) Stop() error {
	s.stopOnce.Do(func() {
		if _, err := io.WriteString(s.stdin, "q"); err != nil {
			s.stopErr = fmt.Errorf("signalling ffmpeg: %w", err)
		}
		_ = s.stdin.Close()
	})
	return s.stopErr
}

// Release stops all capture and reaps the process, killing it if it ignores Stop.
func (s *ffmpegStream) Release() error {
	s.releaseOnce.Do(func() {
		_ = s.Stop()

		select {
		case <-s.pumped:
		case <-time.After(s.stopTimeout):
			s.logger.Warn("ffmpeg did not stop in time, killing it", zap.Duration("timeout", s.stopTimeout))
			_ = s.cmd.Process.Kill()
			<-s.pumped
		}

		if err := s.cmd.Wait(); err != nil {
			s.releaseErr = fmt.Errorf("ffmpeg exited: %w, stderr: %s", err, strings.TrimSpace(s.stderr.String()))
		}
	})
	return s.releaseErr
}
