// Package pipeline drives one transcription at a time from a microphone recording or a staged
// audio file, and keeps the state a front-end renders.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"scribe/internal/app/api"
	"scribe/internal/app/capture"
	"scribe/internal/app/encoder"
	apperrors "scribe/internal/app/errors"
	"scribe/internal/app/export"
	"scribe/internal/app/metrics"
)

// Options are the collaborators of a Pipeline. Transcriber is required.
type Options struct {
	Transcriber api.Transcriber
	Microphone  capture.Device
	Exporter    *export.Exporter
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Pipeline is safe for concurrent use. Its lock is never held across a backend call.
type Pipeline struct {
	transcriber api.Transcriber
	microphone  capture.Device
	exporter    *export.Exporter
	metrics     *metrics.Metrics
	logger      *zap.Logger

	mu      sync.Mutex
	state   State
	session *capture.Session
	file    *capture.SelectedFile
	// source names the audio behind the current transcription, "" for a recording.
	source string
}

// New creates an idle pipeline.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Exporter == nil {
		opts.Exporter = export.NewExporter(false, "")
	}
	return &Pipeline{
		transcriber: opts.Transcriber,
		microphone:  opts.Microphone,
		exporter:    opts.Exporter,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// Snapshot returns a copy of the current state.
func (p *Pipeline) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	if s.SelectedFile != nil {
		f := *s.SelectedFile
		s.SelectedFile = &f
	}
	return s
}

// StartRecording acquires the microphone. It does nothing while a recording or a transcription
// is in progress. The staged file, the result and the error are cleared first.
func (p *Pipeline) StartRecording(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Phase != PhaseIdle {
		p.logger.Debug("start recording ignored", zap.Stringer("phase", p.state.Phase))
		return nil
	}

	p.file = nil
	p.source = ""
	p.state.SelectedFile = nil
	p.clearResultLocked()

	if p.microphone == nil {
		p.state.Err = apperrors.ErrDeviceUnavailable.With(fmt.Errorf("no microphone configured"))
		return p.state.Err
	}

	session, err := capture.StartSession(ctx, p.microphone)
	if err != nil {
		p.logger.Warn("microphone unavailable", zap.Error(err))
		p.state.Err = err
		p.metrics.RecordFailure(metrics.SourceRecording, err)
		return err
	}

	p.session = session
	p.state.Phase = PhaseRecording
	p.metrics.SetRecording(true)
	p.logger.Info("recording started")
	return nil
}

// StopRecording ends the recording and transcribes it. Outside PhaseRecording it does nothing
// and returns "", nil.
func (p *Pipeline) StopRecording(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.state.Phase != PhaseRecording {
		p.mu.Unlock()
		return "", nil
	}
	session := p.session
	p.session = nil
	p.state.Phase = PhaseTranscribing
	p.mu.Unlock()

	p.metrics.SetRecording(false)

	return p.run(ctx, metrics.SourceRecording, "", capture.RecordingMIMEType, func() ([]byte, error) {
		audio, err := session.Finish()
		if err != nil {
			if session.FragmentCount() == 0 {
				return nil, apperrors.ErrDeviceUnavailable.With(err)
			}
			p.logger.Warn("microphone did not stop cleanly", zap.Error(err))
		}
		p.logger.Info("recording stopped",
			zap.Duration("length", time.Since(session.StartedAt())),
			zap.Int("fragments", session.FragmentCount()),
			zap.Int("bytes", len(audio)),
		)
		return audio, nil
	})
}

// SelectFile stages file for upload, replacing any earlier selection. A nil file clears the
// selection. A non-audio file is rejected with ErrInvalidFileType and nothing stays staged. An
// active recording is discarded without being transcribed.
func (p *Pipeline) SelectFile(file *capture.SelectedFile) error {
	p.mu.Lock()
	discarded := p.detachSessionLocked()
	err := p.selectFileLocked(file)
	p.mu.Unlock()

	if discarded != nil {
		if err := discarded.Abort(); err != nil {
			p.logger.Warn("releasing microphone", zap.Error(err))
		}
		p.logger.Info("recording discarded for file selection")
	}
	return err
}

func (p *Pipeline) selectFileLocked(file *capture.SelectedFile) error {
	p.clearResultLocked()

	p.file = nil
	p.state.SelectedFile = nil

	if file == nil {
		return nil
	}
	if !file.IsAudio() {
		p.state.Err = apperrors.ErrInvalidFileType.With(fmt.Errorf("%s has type %q", file.Name, file.MIMEType))
		return p.state.Err
	}

	p.file = file
	p.state.SelectedFile = &FileInfo{Name: file.Name, MIMEType: file.MIMEType, Size: file.Size}
	p.logger.Debug("file selected",
		zap.String("name", file.Name),
		zap.String("mime_type", file.MIMEType),
		zap.Int64("size", file.Size),
	)
	return nil
}

// TriggerUpload transcribes the staged file with its declared type.
func (p *Pipeline) TriggerUpload(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.state.Phase == PhaseTranscribing {
		p.mu.Unlock()
		return "", apperrors.ErrBusy
	}
	if p.file == nil {
		p.state.Err = apperrors.ErrNoFileSelected
		p.mu.Unlock()
		return "", apperrors.ErrNoFileSelected
	}
	file := p.file
	p.clearResultLocked()
	p.state.Phase = PhaseTranscribing
	p.mu.Unlock()

	return p.run(ctx, metrics.SourceUpload, file.Name, file.MIMEType, func() ([]byte, error) {
		return capture.ReadAll(file)
	})
}

// run is entered in PhaseTranscribing and always leaves it, whatever load or the backend do.
func (p *Pipeline) run(ctx context.Context, source, name, mimeType string, load func() ([]byte, error)) (text string, err error) {
	start := time.Now()
	size := 0

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("transcription panicked", zap.Any("panic", r))
			text, err = "", apperrors.ErrTranscriptionFailed.With(fmt.Errorf("panic: %v", r))
		}
		if err != nil && !apperrors.Is(err, apperrors.ErrFileReadFailed) &&
			!apperrors.Is(err, apperrors.ErrDeviceUnavailable) && !apperrors.Is(err, apperrors.ErrTranscriptionFailed) {
			err = apperrors.ErrTranscriptionFailed.With(err)
		}
		p.finish(source, name, text, err, size, time.Since(start))
	}()

	audio, err := load()
	if err != nil {
		return "", err
	}
	size = len(audio)

	p.logger.Info("transcribing",
		zap.String("source", source),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", size),
	)
	// Other observers wait on this call too, so a departing caller does not cancel it.
	return p.transcriber.Transcribe(context.WithoutCancel(ctx), encoder.NewPayload(audio, mimeType))
}

func (p *Pipeline) finish(source, name, text string, err error, size int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Phase = PhaseIdle
	if err != nil {
		p.state.Err = err
		p.state.Transcription = ""
		p.state.HasTranscription = false
		p.metrics.RecordFailure(source, err)
		p.logger.Warn("transcription failed", zap.String("source", source), zap.Error(err))
		return
	}

	p.state.Err = nil
	p.state.Transcription = text
	p.state.HasTranscription = true
	p.source = name
	p.metrics.RecordSuccess(source, elapsed, size)
	p.logger.Info("transcription complete",
		zap.String("source", source),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", elapsed),
	)
}

// Download renders the current transcription. With export.FormatAuto and no PDF renderer the
// artifact is plain text and ErrRenderingFallback becomes the visible error; that is not a
// failure of Download.
func (p *Pipeline) Download(format export.Format) (*export.Artifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.HasTranscription {
		return nil, apperrors.ErrNothingToDownload
	}

	artifact, err := p.exporter.Export(p.state.Transcription, p.source, format)
	if err != nil {
		return nil, err
	}
	if artifact.Fallback {
		p.state.Err = apperrors.ErrRenderingFallback
	}
	p.logger.Debug("artifact rendered",
		zap.String("name", artifact.Name),
		zap.Int("bytes", len(artifact.Data)),
	)
	return artifact, nil
}

// Close releases the microphone if a recording is still open. The recording is discarded.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	session := p.detachSessionLocked()
	p.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Abort()
}

// detachSessionLocked takes an open recording out of the pipeline and returns it to Idle. The
// caller aborts the session after unlocking, since stopping ffmpeg may take StopTimeout.
func (p *Pipeline) detachSessionLocked() *capture.Session {
	if p.state.Phase != PhaseRecording || p.session == nil {
		return nil
	}
	session := p.session
	p.session = nil
	p.state.Phase = PhaseIdle
	p.metrics.SetRecording(false)
	return session
}

func (p *Pipeline) clearResultLocked() {
	p.state.Err = nil
	p.state.Transcription = ""
	p.state.HasTranscription = false
}
