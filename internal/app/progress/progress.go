// Package progress shows terminal spinners while the CLI waits on the microphone or the backend.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type Config struct {
	Enabled bool
	Writer  io.Writer
}

type Manager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

// Spinner is one indeterminate line. A disabled spinner ignores every call.
type Spinner struct {
	bar     *mpb.Bar
	enabled bool
	once    sync.Once
}

func NewManager(config Config) *Manager {
	if !config.Enabled {
		return &Manager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	container := mpb.New(
		mpb.WithOutput(writer),
		mpb.WithRefreshRate(120*time.Millisecond),
		mpb.WithWaitGroup(&sync.WaitGroup{}),
	)

	return &Manager{
		container: container,
		enabled:   true,
	}
}

// Spinner starts a spinner labelled description with an elapsed-time counter. It replaces the
// label with doneLabel once finished.
func (pm *Manager) Spinner(description, doneLabel string) *Spinner {
	if !pm.enabled || pm.container == nil {
		return &Spinner{enabled: false}
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	bar := pm.container.New(0,
		mpb.SpinnerStyle().PositionLeft(),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Name(description, decor.WC{W: len(description) + 1, C: decor.DindentRight}), doneLabel),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)

	return &Spinner{
		bar:     bar,
		enabled: true,
	}
}

// Done completes the spinner. Calling it more than once is harmless.
func (s *Spinner) Done() {
	if !s.enabled || s.bar == nil {
		return
	}
	s.once.Do(func() {
		s.bar.SetTotal(-1, true)
	})
}

// Abort removes the spinner without marking it complete.
func (s *Spinner) Abort() {
	if !s.enabled || s.bar == nil {
		return
	}
	s.once.Do(func() {
		s.bar.Abort(true)
	})
}

func (pm *Manager) Wait() {
	if pm.enabled && pm.container != nil {
		pm.container.Wait()
	}
}

func (pm *Manager) Shutdown() {
	if pm.enabled && pm.container != nil {
		pm.container.Shutdown()
	}
}

func IsTTY(writer io.Writer) bool {
	if writer == nil {
		return false
	}

	if file, ok := writer.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func ShouldShowProgress(forced bool) bool {
	if forced {
		return true
	}

	return IsTTY(os.Stderr)
}
