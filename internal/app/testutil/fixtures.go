package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// GeminiTextResponse is a generateContent response whose first part is text.
func GeminiTextResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []interface{}{map[string]interface{}{"text": text}},
				},
			},
		},
	})
	return string(body)
}

// GeminiEmptyResponse has an empty candidates list.
const GeminiEmptyResponse = `{"candidates":[]}`

// MockGeminiServer records the generateContent requests it receives.
type MockGeminiServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	requests []map[string]interface{}
}

// NewMockGeminiServer answers every generateContent call with status and body.
func NewMockGeminiServer(t *testing.T, status int, body string) *MockGeminiServer {
	t.Helper()
	s := &MockGeminiServer{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *MockGeminiServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":generateContent") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	raw, _ := io.ReadAll(r.Body)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)

	s.mu.Lock()
	s.requests = append(s.requests, decoded)
	status, body := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Requests returns the decoded request bodies received so far.
func (s *MockGeminiServer) Requests() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.requests...)
}

// RequestCount is the number of generateContent calls.
func (s *MockGeminiServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// InlineData returns the mimeType and data of the audio part of request i.
func (s *MockGeminiServer) InlineData(i int) (mimeType, data string) {
	reqs := s.Requests()
	if i >= len(reqs) {
		return "", ""
	}
	contents, _ := reqs[i]["contents"].([]interface{})
	if len(contents) == 0 {
		return "", ""
	}
	first, _ := contents[0].(map[string]interface{})
	parts, _ := first["parts"].([]interface{})
	for _, p := range parts {
		part, _ := p.(map[string]interface{})
		if inline, ok := part["inlineData"].(map[string]interface{}); ok {
			mimeType, _ = inline["mimeType"].(string)
			data, _ = inline["data"].(string)
			return mimeType, data
		}
	}
	return "", ""
}

// CreateTestAudioFile creates a minimal valid WAV file named filename in a temp directory.
func CreateTestAudioFile(t *testing.T, filename string) string {
	t.Helper()

	wavHeader := []byte{
		0x52, 0x49, 0x46, 0x46, // "RIFF"
		0x24, 0x08, 0x00, 0x00, // File size (2084 bytes)
		0x57, 0x41, 0x56, 0x45, // "WAVE"
		0x66, 0x6D, 0x74, 0x20, // "fmt "
		0x10, 0x00, 0x00, 0x00, // Chunk size
		0x01, 0x00, // Audio format (PCM)
		0x01, 0x00, // Channels (mono)
		0x80, 0x3E, 0x00, 0x00, // Sample rate (16000)
		0x00, 0x7D, 0x00, 0x00, // Byte rate
		0x02, 0x00, // Block align
		0x10, 0x00, // Bits per sample
		0x64, 0x61, 0x74, 0x61, // "data"
		0x00, 0x08, 0x00, 0x00, // Data size (2048 bytes)
	}

	return CreateFile(t, filename, append(wavHeader, make([]byte, 2048)...))
}

// CreateFile writes data to filename in a temp directory and returns the full path.
func CreateFile(t *testing.T, filename string, data []byte) string {
	t.Helper()

	fullPath := filepath.Join(t.TempDir(), filepath.Base(filename))
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return fullPath
}

// CreateFakeFFmpeg writes a shell script named ffmpeg that runs script, and returns its path.
// The test is skipped where shell scripts cannot be executed.
func CreateFakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	fullPath := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(fullPath, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatalf("Failed to create fake ffmpeg: %v", err)
	}
	return fullPath
}
