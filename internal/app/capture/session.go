package capture

import (
	"bytes"
	"context"
	"sync"
	"time"

	apperrors "scribe/internal/app/errors"
)

// Session is one microphone recording. It owns the stream from StartSession until Finish or Abort.
type Session struct {
	stream    Stream
	startedAt time.Time
	timeout   time.Duration

	mu        sync.Mutex
	fragments [][]byte
	collected chan struct{}

	endOnce sync.Once
}

// StartSession acquires the device and starts collecting fragments in arrival order.
func StartSession(ctx context.Context, device Device) (*Session, error) {
	stream, err := device.Acquire(ctx)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrDeviceUnavailable) {
			err = apperrors.ErrDeviceUnavailable.With(err)
		}
		return nil, err
	}

	s := &Session{
		stream:    stream,
		startedAt: time.Now(),
		timeout:   defaultStopTimeout,
		collected: make(chan struct{}),
	}
	go s.collect()
	return s, nil
}

func (s *Session) collect() {
	defer close(s.collected)
	for fragment := range s.stream.Fragments() {
		s.mu.Lock()
		s.fragments = append(s.fragments, fragment)
		s.mu.Unlock()
	}
}

// StartedAt is when the device was acquired.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// FragmentCount is the number of fragments received so far.
func (s *Session) FragmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fragments)
}

// Finish stops the recording, waits for the last fragment and releases the device. It always
// returns the audio gathered so far, possibly empty; a non-nil error only reports that the device
// did not stop or release cleanly.
func (s *Session) Finish() ([]byte, error) {
	err := s.end()

	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Join(s.fragments, nil), err
}

// Abort releases the device and drops whatever was recorded.
func (s *Session) Abort() error {
	err := s.end()

	s.mu.Lock()
	s.fragments = nil
	s.mu.Unlock()
	return err
}

func (s *Session) end() error {
	var err error
	s.endOnce.Do(func() {
		defer func() {
			if releaseErr := s.stream.Release(); releaseErr != nil && err == nil {
				err = releaseErr
			}
		}()

		err = s.stream.Stop()

		select {
		case <-s.collected:
		case <-time.After(s.timeout):
			// Release forces the stream closed; the collector drains after that.
			if releaseErr := s.stream.Release(); releaseErr != nil && err == nil {
				err = releaseErr
			}
			<-s.collected
		}
	})
	return err
}
