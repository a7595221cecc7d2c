package testutil

import (
	"context"
	"sync"

	"scribe/internal/app/capture"
)

// FakeMicrophone is a capture.Device that replays Fragments on every acquisition.
type FakeMicrophone struct {
	mu        sync.Mutex
	fragments [][]byte
	err       error
	stopErr   error
	acquired  int
	released  int
	active    *fakeStream
}

// NewFakeMicrophone returns a microphone that emits fragments, in order, per recording.
func NewFakeMicrophone(fragments ...[]byte) *FakeMicrophone {
	return &FakeMicrophone{fragments: fragments}
}

// FailWith makes Acquire fail with err, like a denied permission.
func (m *FakeMicrophone) FailWith(err error) *FakeMicrophone {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailStopWith makes Stop on the next streams fail with err.
func (m *FakeMicrophone) FailStopWith(err error) *FakeMicrophone {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopErr = err
	return m
}

func (m *FakeMicrophone) Acquire(ctx context.Context) (capture.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &fakeStream{mic: m, fragments: make(chan []byte, len(m.fragments)+16), stopErr: m.stopErr}
	for _, f := range m.fragments {
		s.fragments <- append([]byte(nil), f...)
	}
	m.acquired++
	m.active = s
	return s, nil
}

// Push delivers one more fragment to the current recording. It reports false when no stream
// is open.
func (m *FakeMicrophone) Push(fragment []byte) bool {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()
	if s == nil {
		return false
	}
	return s.push(fragment)
}

// Acquired counts successful acquisitions.
func (m *FakeMicrophone) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// Released counts streams that were released.
func (m *FakeMicrophone) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Held reports whether a stream is acquired and not yet released.
func (m *FakeMicrophone) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired > m.released
}

type fakeStream struct {
	mic       *FakeMicrophone
	mu        sync.Mutex
	fragments chan []byte
	stopped   bool
	stopErr   error

	releaseOnce sync.Once
}

func (s *fakeStream) push(fragment []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.fragments <- append([]byte(nil), fragment...)
	return true
}

func (s *fakeStream) Fragments() <-chan []byte {
	return s.fragments
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.fragments)
	}
	return s.stopErr
}

func (s *fakeStream) Release() error {
	_ = s.Stop()
	s.releaseOnce.Do(func() {
		s.mic.mu.Lock()
		defer s.mic.mu.Unlock()
		s.mic.released++
		if s.mic.active == s {
			s.mic.active = nil
		}
	})
	return nil
}
