// Package testutil provides test doubles shared by the scribe packages.
//
//   - MockTranscriber: testify mock of api.Transcriber
//   - FakeMicrophone: an in-memory capture.Device that replays fixed fragments
//   - NewMockGeminiServer: an httptest server speaking the generateContent wire format
//   - CreateTestAudioFile and friends: files on disk for selection tests
//
// # Usage Examples
//
//	mic := testutil.NewFakeMicrophone([]byte("a"), []byte("b"))
//	server := testutil.NewMockGeminiServer(t, http.StatusOK, testutil.GeminiTextResponse("hello"))
//	cfg := config.TranscriberConfig{Backend: "gemini", BaseURL: server.URL, APIKey: "k"}
package testutil
