// Package encoder turns raw audio into the transport-safe form the transcription backends accept.
package encoder

import (
	"encoding/base64"
	"strings"
)

// Payload is one transcription request: base64 audio plus the MIME type it was captured with.
type Payload struct {
	Data     string
	MIMEType string
}

// NewPayload encodes data; mimeType is passed through unchanged.
func NewPayload(data []byte, mimeType string) Payload {
	return Payload{
		Data:     Encode(data),
		MIMEType: mimeType,
	}
}

// Encode returns the standard, padded base64 form of data.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Bytes decodes the payload back into raw audio.
func (p Payload) Bytes() ([]byte, error) {
	return Decode(p.Data)
}

// Size is the decoded length of the payload in bytes.
func (p Payload) Size() int {
	n := base64.StdEncoding.DecodedLen(len(p.Data))
	return n - strings.Count(p.Data[max(0, len(p.Data)-2):], "=")
}
