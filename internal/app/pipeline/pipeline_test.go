package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scribe/internal/app/api"
	"scribe/internal/app/api/gemini"
	"scribe/internal/app/capture"
	"scribe/internal/app/config"
	"scribe/internal/app/encoder"
	apperrors "scribe/internal/app/errors"
	"scribe/internal/app/export"
	"scribe/internal/app/metrics"
	"scribe/internal/app/testutil"
)

func memFile(name, mimeType string, data []byte) *capture.SelectedFile {
	return capture.NewSelectedFile(name, mimeType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

func failingFile(name string) *capture.SelectedFile {
	return capture.NewSelectedFile(name, "audio/mpeg", 10, func() (io.ReadCloser, error) {
		return nil, errors.New("permission denied")
	})
}

func geminiPipeline(t *testing.T, status int, body string, mic capture.Device) (*Pipeline, *testutil.MockGeminiServer) {
	t.Helper()
	server := testutil.NewMockGeminiServer(t, status, body)
	client := gemini.NewClient(config.TranscriberConfig{
		Backend: "gemini",
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)
	return New(Options{Transcriber: client, Microphone: mic}), server
}

// withResult leaves p idle with a transcription, an error-free state and a staged file.
func withResult(t *testing.T, p *Pipeline) {
	t.Helper()
	require.NoError(t, p.SelectFile(memFile("old.mp3", "audio/mpeg", []byte("old"))))
	_, err := p.TriggerUpload(context.Background())
	require.NoError(t, err)
	require.True(t, p.Snapshot().HasTranscription)
}

func TestStartRecordingClearsPriorState(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("previous", nil)
	mic := testutil.NewFakeMicrophone()
	p := New(Options{Transcriber: tr, Microphone: mic})

	withResult(t, p)
	require.NotNil(t, p.Snapshot().SelectedFile)

	require.NoError(t, p.StartRecording(context.Background()))

	s := p.Snapshot()
	assert.Equal(t, PhaseRecording, s.Phase)
	assert.True(t, s.Recording())
	assert.False(t, s.Transcribing())
	assert.Nil(t, s.SelectedFile)
	assert.False(t, s.HasTranscription)
	assert.Empty(t, s.Transcription)
	assert.NoError(t, s.Err)
	assert.Equal(t, 1, mic.Acquired())
	assert.True(t, mic.Held())
}

func TestStartRecordingClearsError(t *testing.T) {
	mic := testutil.NewFakeMicrophone()
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t), Microphone: mic})

	_, err := p.TriggerUpload(context.Background())
	require.Error(t, err)
	require.Error(t, p.Snapshot().Err)

	require.NoError(t, p.StartRecording(context.Background()))
	assert.NoError(t, p.Snapshot().Err)
}

func TestStartRecordingDeviceUnavailable(t *testing.T) {
	mic := testutil.NewFakeMicrophone().FailWith(errors.New("permission denied"))
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t), Microphone: mic})

	err := p.StartRecording(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDeviceUnavailable))

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, "Could not access microphone. Please ensure it is connected and permissions are granted.", s.ErrorMessage())
}

func TestStartRecordingWithoutMicrophone(t *testing.T) {
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t)})

	err := p.StartRecording(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrDeviceUnavailable))
	assert.Equal(t, PhaseIdle, p.Snapshot().Phase)
}

func TestStartRecordingWhileRecordingIsIgnored(t *testing.T) {
	mic := testutil.NewFakeMicrophone()
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t), Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	require.NoError(t, p.StartRecording(context.Background()))
	assert.Equal(t, 1, mic.Acquired())
	assert.Equal(t, PhaseRecording, p.Snapshot().Phase)
}

func TestStopWhenNotRecordingIsNoop(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("kept", nil)
	p := New(Options{Transcriber: tr, Microphone: testutil.NewFakeMicrophone()})

	before := p.Snapshot()
	text, err := p.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, before, p.Snapshot())

	withResult(t, p)
	before = p.Snapshot()
	text, err = p.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, before, p.Snapshot())
	assert.Equal(t, 1, tr.CallCount())
}

func TestStopRecordingSendsFragmentsInOrder(t *testing.T) {
	mic := testutil.NewFakeMicrophone([]byte("one-"), []byte("two-"))
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("transcribed", nil)
	p := New(Options{Transcriber: tr, Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	require.True(t, mic.Push([]byte("three")))

	text, err := p.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "transcribed", text)

	payload, ok := tr.LastPayload()
	require.True(t, ok)
	assert.Equal(t, "audio/webm", payload.MIMEType)
	audio, err := payload.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "one-two-three", string(audio))

	assert.False(t, mic.Held())
	assert.Equal(t, 1, mic.Released())
	assert.Equal(t, PhaseIdle, p.Snapshot().Phase)
}

func TestStopRecordingWithNoFragments(t *testing.T) {
	mic := testutil.NewFakeMicrophone()
	tr := testutil.NewMockTranscriber(t)
	tr.On("Transcribe", mock.Anything, encoder.Payload{Data: "", MIMEType: "audio/webm"}).Return("", nil)
	p := New(Options{Transcriber: tr, Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	text, err := p.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.True(t, p.Snapshot().HasTranscription)
	tr.AssertExpectations(t)
}

func TestStopRecordingReleasesDeviceOnBackendFailure(t *testing.T) {
	mic := testutil.NewFakeMicrophone([]byte("x"))
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("", apperrors.ErrTranscriptionFailed.With(errors.New("503")))
	p := New(Options{Transcriber: tr, Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	_, err := p.StopRecording(context.Background())
	require.Error(t, err)

	assert.False(t, mic.Held())
	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, "Failed to transcribe audio. Please try again.", s.ErrorMessage())
}

func TestStopRecordingContinuesWhenStopFails(t *testing.T) {
	mic := testutil.NewFakeMicrophone([]byte("abc")).FailStopWith(errors.New("stop failed"))
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("ok", nil)
	p := New(Options{Transcriber: tr, Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	text, err := p.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.False(t, mic.Held())
}

func TestUploadWithoutFile(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	p := New(Options{Transcriber: tr})

	_, err := p.TriggerUpload(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNoFileSelected))

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, "Please select an audio file to upload.", s.ErrorMessage())
	assert.Zero(t, tr.CallCount())
}

func TestUploadWithoutFileMakesNoRequest(t *testing.T) {
	p, server := geminiPipeline(t, http.StatusOK, testutil.GeminiTextResponse("x"), nil)

	_, err := p.TriggerUpload(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrNoFileSelected))
	assert.Zero(t, server.RequestCount())
}

func TestSelectNonAudioFile(t *testing.T) {
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t)})
	require.NoError(t, p.SelectFile(memFile("good.mp3", "audio/mpeg", []byte("a"))))

	for _, mimeType := range []string{"text/plain", "video/mp4", "application/octet-stream", ""} {
		err := p.SelectFile(memFile("notes.txt", mimeType, []byte("hi")))
		require.Error(t, err, mimeType)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidFileType))

		s := p.Snapshot()
		assert.Nil(t, s.SelectedFile)
		assert.Equal(t, "Please select an audio file (e.g., MP3, WAV).", s.ErrorMessage())

		_, err = p.TriggerUpload(context.Background())
		assert.True(t, apperrors.Is(err, apperrors.ErrNoFileSelected))
	}
}

func TestSelectFileReplacesAndClears(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("text", nil)
	p := New(Options{Transcriber: tr})

	withResult(t, p)

	require.NoError(t, p.SelectFile(memFile("second.wav", "audio/wav", []byte("b"))))
	s := p.Snapshot()
	require.NotNil(t, s.SelectedFile)
	assert.Equal(t, "second.wav", s.SelectedFile.Name)
	assert.Equal(t, "audio/wav", s.SelectedFile.MIMEType)
	assert.False(t, s.HasTranscription)

	require.NoError(t, p.SelectFile(nil))
	assert.Nil(t, p.Snapshot().SelectedFile)
}

func TestSelectFileDiscardsRecording(t *testing.T) {
	mic := testutil.NewFakeMicrophone([]byte("speech"))
	tr := testutil.NewMockTranscriber(t)
	p := New(Options{Transcriber: tr, Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	require.NoError(t, p.SelectFile(memFile("a.mp3", "audio/mpeg", []byte("a"))))

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.NotNil(t, s.SelectedFile)
	assert.False(t, mic.Held())
	assert.Zero(t, tr.CallCount())
}

func TestUploadUsesDeclaredType(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("hi", nil)
	p := New(Options{Transcriber: tr})

	require.NoError(t, p.SelectFile(memFile("voice.m4a", "audio/mp4", []byte{0, 1, 2, 255})))
	text, err := p.TriggerUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hi", text)

	payload, _ := tr.LastPayload()
	assert.Equal(t, "audio/mp4", payload.MIMEType)
	assert.Equal(t, encoder.Encode([]byte{0, 1, 2, 255}), payload.Data)

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, "hi", s.Transcription)
	require.NotNil(t, s.SelectedFile, "the staged file stays selected after upload")
}

func TestUploadReadFailure(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	p := New(Options{Transcriber: tr})

	require.NoError(t, p.SelectFile(failingFile("locked.mp3")))
	_, err := p.TriggerUpload(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrFileReadFailed))

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, "Failed to read the audio file.", s.ErrorMessage())
	assert.Zero(t, tr.CallCount())
}

func TestUnclassifiedBackendErrorIsTranscriptionFailed(t *testing.T) {
	backend := api.TranscriberFunc(func(ctx context.Context, payload encoder.Payload) (string, error) {
		return "", context.DeadlineExceeded
	})
	p := New(Options{Transcriber: backend})

	require.NoError(t, p.SelectFile(memFile("a.wav", "audio/wav", []byte("a"))))
	_, err := p.TriggerUpload(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrTranscriptionFailed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBackendPanicLeavesTranscribing(t *testing.T) {
	backend := api.TranscriberFunc(func(ctx context.Context, payload encoder.Payload) (string, error) {
		panic("backend exploded")
	})
	p := New(Options{Transcriber: backend})

	require.NoError(t, p.SelectFile(memFile("a.wav", "audio/wav", []byte("a"))))
	_, err := p.TriggerUpload(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTranscriptionFailed))
	assert.Equal(t, PhaseIdle, p.Snapshot().Phase)
}

func TestUploadWhileTranscribingIsBusy(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := api.TranscriberFunc(func(ctx context.Context, payload encoder.Payload) (string, error) {
		close(entered)
		<-release
		return "done", nil
	})
	mic := testutil.NewFakeMicrophone()
	p := New(Options{Transcriber: backend, Microphone: mic})
	require.NoError(t, p.SelectFile(memFile("a.wav", "audio/wav", []byte("a"))))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.TriggerUpload(context.Background())
	}()
	<-entered

	s := p.Snapshot()
	assert.Equal(t, PhaseTranscribing, s.Phase)
	assert.Equal(t, "Transcribing audio...", s.Status())

	_, err := p.TriggerUpload(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrBusy))

	require.NoError(t, p.StartRecording(context.Background()))
	assert.Zero(t, mic.Acquired(), "recording cannot start while transcribing")

	close(release)
	wg.Wait()
	assert.Equal(t, "done", p.Snapshot().Transcription)
	assert.Equal(t, PhaseIdle, p.Snapshot().Phase)
}

func TestZeroCandidatesIsTranscriptionFailed(t *testing.T) {
	p, _ := geminiPipeline(t, http.StatusOK, testutil.GeminiEmptyResponse, nil)

	require.NoError(t, p.SelectFile(memFile("a.mp3", "audio/mpeg", []byte("a"))))
	text, err := p.TriggerUpload(context.Background())
	require.Error(t, err)
	assert.Empty(t, text)
	assert.True(t, apperrors.Is(err, apperrors.ErrTranscriptionFailed))

	s := p.Snapshot()
	assert.False(t, s.HasTranscription)
	assert.Empty(t, s.Transcription)
}

// Scenario 1: record two seconds of silence, stop, and show the backend's text.
func TestEndToEndRecording(t *testing.T) {
	silence := make([]byte, 2*48000/50)
	mic := testutil.NewFakeMicrophone(silence[:len(silence)/2], silence[len(silence)/2:])
	p, server := geminiPipeline(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"hello world"}]}}]}`, mic)

	require.NoError(t, p.StartRecording(context.Background()))
	assert.Equal(t, "Recording...", p.Snapshot().Status())

	text, err := p.StopRecording(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	s := p.Snapshot()
	assert.Equal(t, "hello world", s.Transcription)
	assert.True(t, s.HasTranscription)
	assert.NoError(t, s.Err)
	assert.Equal(t, PhaseIdle, s.Phase)

	require.Equal(t, 1, server.RequestCount())
	mimeType, data := server.InlineData(0)
	assert.Equal(t, "audio/webm", mimeType)
	assert.Equal(t, encoder.Encode(silence), data)
}

// Scenario 2: upload clip.wav, the backend returns no candidates.
func TestEndToEndUploadNoCandidates(t *testing.T) {
	p, server := geminiPipeline(t, http.StatusOK, `{"candidates":[]}`, nil)

	path := testutil.CreateTestAudioFile(t, "clip.wav")
	file, err := capture.FileFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", file.MIMEType)

	require.NoError(t, p.SelectFile(file))
	_, err = p.TriggerUpload(context.Background())
	require.Error(t, err)

	s := p.Snapshot()
	assert.True(t, apperrors.Is(s.Err, apperrors.ErrTranscriptionFailed))
	assert.NotEmpty(t, s.ErrorMessage())
	assert.Empty(t, s.Transcription)
	assert.False(t, s.HasTranscription)

	mimeType, _ := server.InlineData(0)
	assert.Equal(t, "audio/wav", mimeType)
}

// Scenario 3: download "abc" without a PDF renderer.
func TestEndToEndDownloadFallback(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("abc", nil)
	p := New(Options{Transcriber: tr, Exporter: export.NewExporter(false, "")})

	require.NoError(t, p.SelectFile(memFile("clip.wav", "audio/wav", []byte("a"))))
	_, err := p.TriggerUpload(context.Background())
	require.NoError(t, err)

	artifact, err := p.Download(export.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), artifact.Data)
	assert.Equal(t, "clip.wav.txt", artifact.Name)

	s := p.Snapshot()
	assert.Equal(t, "abc", s.Transcription, "the fallback does not drop the result")
	assert.True(t, apperrors.Is(s.Err, apperrors.ErrRenderingFallback))
	assert.Equal(t, "PDF renderer not available. Downloading as plain text.", s.ErrorMessage())
}

func TestDownloadNamesRecordingsWithDefault(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("abc", nil)
	p := New(Options{Transcriber: tr, Microphone: testutil.NewFakeMicrophone([]byte("x")), Exporter: export.NewExporter(true, "")})

	require.NoError(t, p.StartRecording(context.Background()))
	_, err := p.StopRecording(context.Background())
	require.NoError(t, err)

	artifact, err := p.Download(export.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "transcription.pdf", artifact.Name)
	assert.NoError(t, p.Snapshot().Err)
}

func TestDownloadStripsMP3(t *testing.T) {
	tr := testutil.NewMockTranscriber(t)
	tr.Returns("abc", nil)
	p := New(Options{Transcriber: tr})

	require.NoError(t, p.SelectFile(memFile("meeting.mp3", "audio/mpeg", []byte("a"))))
	_, err := p.TriggerUpload(context.Background())
	require.NoError(t, err)

	artifact, err := p.Download(export.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "meeting.txt", artifact.Name)
	assert.NoError(t, p.Snapshot().Err)
}

func TestDownloadWithoutTranscription(t *testing.T) {
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t)})

	_, err := p.Download(export.FormatAuto)
	assert.True(t, apperrors.Is(err, apperrors.ErrNothingToDownload))
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr := testutil.NewMockTranscriber(t)
	tr.On("Transcribe", mock.Anything, mock.Anything).Return("ok", nil).Once()
	tr.On("Transcribe", mock.Anything, mock.Anything).Return("", apperrors.ErrNoTranscription).Once()
	p := New(Options{Transcriber: tr, Metrics: metrics.New(reg)})

	require.NoError(t, p.SelectFile(memFile("a.wav", "audio/wav", []byte("a"))))
	_, err := p.TriggerUpload(context.Background())
	require.NoError(t, err)
	_, err = p.TriggerUpload(context.Background())
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() == "scribe_transcriptions_total" {
			for _, m := range f.GetMetric() {
				total += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, total)
}

func TestCloseReleasesMicrophone(t *testing.T) {
	mic := testutil.NewFakeMicrophone([]byte("x"))
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t), Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	require.NoError(t, p.Close())
	assert.False(t, mic.Held())
	assert.Equal(t, PhaseIdle, p.Snapshot().Phase)
	assert.NoError(t, p.Close())
}

func TestPhaseText(t *testing.T) {
	for _, phase := range []Phase{PhaseIdle, PhaseRecording, PhaseTranscribing} {
		text, err := phase.MarshalText()
		require.NoError(t, err)

		var back Phase
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, phase, back)
	}
	assert.Equal(t, "unknown", Phase(42).String())
	assert.Error(t, new(Phase).UnmarshalText([]byte("paused")))
}

func TestSnapshotIsACopy(t *testing.T) {
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t)})
	require.NoError(t, p.SelectFile(memFile("a.wav", "audio/wav", []byte("a"))))

	s := p.Snapshot()
	s.SelectedFile.Name = "changed"
	assert.Equal(t, "a.wav", p.Snapshot().SelectedFile.Name)
}

func TestStopRecordingOutlivesCallerContext(t *testing.T) {
	backend := api.TranscriberFunc(func(ctx context.Context, payload encoder.Payload) (string, error) {
		time.Sleep(200 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return "", apperrors.ErrTranscriptionFailed.With(err)
		}
		return "late", nil
	})
	p := New(Options{Transcriber: backend, Microphone: testutil.NewFakeMicrophone([]byte("x"))})
	require.NoError(t, p.StartRecording(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	text, err := p.StopRecording(ctx)
	require.NoError(t, err)
	assert.Equal(t, "late", text)

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, "late", s.Transcription)
}

func TestUploadOutlivesCallerContext(t *testing.T) {
	backend := api.TranscriberFunc(func(ctx context.Context, payload encoder.Payload) (string, error) {
		select {
		case <-ctx.Done():
			return "", apperrors.ErrTranscriptionFailed.With(ctx.Err())
		case <-time.After(300 * time.Millisecond):
			return "finished", nil
		}
	})
	p := New(Options{Transcriber: backend})
	require.NoError(t, p.SelectFile(memFile("a.mp3", "audio/mpeg", []byte("a"))))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	text, err := p.TriggerUpload(ctx)
	require.NoError(t, err)
	assert.Equal(t, "finished", text)
	assert.True(t, p.Snapshot().HasTranscription)
}

func TestStopRecordingWithoutAudioIsDeviceUnavailable(t *testing.T) {
	mic := testutil.NewFakeMicrophone().FailStopWith(errors.New("pulse: Connection refused"))
	tr := testutil.NewMockTranscriber(t)
	p := New(Options{Transcriber: tr, Microphone: mic})

	require.NoError(t, p.StartRecording(context.Background()))
	text, err := p.StopRecording(context.Background())

	assert.Empty(t, text)
	assert.True(t, apperrors.Is(err, apperrors.ErrDeviceUnavailable))
	assert.False(t, apperrors.Is(err, apperrors.ErrTranscriptionFailed))
	assert.Zero(t, tr.CallCount())
	assert.False(t, mic.Held())

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.False(t, s.HasTranscription)
	assert.Equal(t, apperrors.ErrDeviceUnavailable.Message(), s.ErrorMessage())
}

func TestStartRecordingFFmpegCannotOpenInput(t *testing.T) {
	bin := testutil.CreateFakeFFmpeg(t, "echo 'pulse: Connection refused' >&2\nexit 1")
	mic := capture.NewFFmpegDevice(capture.FFmpegConfig{Binary: bin, StartupGrace: 5 * time.Second}, nil)
	tr := testutil.NewMockTranscriber(t)
	p := New(Options{Transcriber: tr, Microphone: mic})

	err := p.StartRecording(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDeviceUnavailable))
	assert.Contains(t, err.Error(), "Connection refused")

	s := p.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, apperrors.ErrDeviceUnavailable.Message(), s.ErrorMessage())

	text, err := p.StopRecording(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, tr.CallCount())
}

// slowReleaseMic hands out streams whose Release blocks until unblock is closed.
type slowReleaseMic struct {
	releasing chan struct{}
	unblock   chan struct{}
}

func (m *slowReleaseMic) Acquire(ctx context.Context) (capture.Stream, error) {
	return &slowReleaseStream{mic: m, fragments: make(chan []byte)}, nil
}

type slowReleaseStream struct {
	mic       *slowReleaseMic
	fragments chan []byte
	stopOnce  sync.Once
	relOnce   sync.Once
}

func (s *slowReleaseStream) Fragments() <-chan []byte { return s.fragments }

func (s *slowReleaseStream) Stop() error {
	s.stopOnce.Do(func() { close(s.fragments) })
	return nil
}

func (s *slowReleaseStream) Release() error {
	s.relOnce.Do(func() { close(s.mic.releasing) })
	<-s.mic.unblock
	return nil
}

func TestSelectFileDoesNotLockStateWhileReleasing(t *testing.T) {
	mic := &slowReleaseMic{releasing: make(chan struct{}), unblock: make(chan struct{})}
	p := New(Options{Transcriber: testutil.NewMockTranscriber(t), Microphone: mic})
	require.NoError(t, p.StartRecording(context.Background()))

	selected := make(chan error, 1)
	go func() {
		selected <- p.SelectFile(memFile("a.mp3", "audio/mpeg", []byte("a")))
	}()

	select {
	case <-mic.releasing:
	case <-time.After(5 * time.Second):
		t.Fatal("microphone was never released")
	}

	snapshot := make(chan State, 1)
	go func() { snapshot <- p.Snapshot() }()
	select {
	case s := <-snapshot:
		assert.Equal(t, PhaseIdle, s.Phase)
		require.NotNil(t, s.SelectedFile)
		assert.Equal(t, "a.mp3", s.SelectedFile.Name)
	case <-time.After(time.Second):
		t.Fatal("state stayed locked while the microphone was released")
	}

	close(mic.unblock)
	require.NoError(t, <-selected)
}
