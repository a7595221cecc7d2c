package capture

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "scribe/internal/app/errors"
)

// audioTypes maps the extensions a browser would label as audio to their declared type.
var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".amr":  "audio/amr",
	".aac":  "audio/aac",
	".weba": "audio/webm",
	".webm": "audio/webm",
}

// SelectedFile is a user-chosen audio file: its name, declared MIME type and a way to read it.
type SelectedFile struct {
	Name     string
	MIMEType string
	Size     int64

	open func() (io.ReadCloser, error)
}

// NewSelectedFile builds a SelectedFile from any opener.
func NewSelectedFile(name, mimeType string, size int64, open func() (io.ReadCloser, error)) *SelectedFile {
	return &SelectedFile{
		Name:     name,
		MIMEType: normalizeMIME(mimeType),
		Size:     size,
		open:     open,
	}
}

// FileFromPath stages a file on disk. The declared type comes from the extension, as a browser
// would report it, and falls back to content sniffing for unknown extensions.
func FileFromPath(path string) (*SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.ErrFileReadFailed.With(err)
	}
	if info.IsDir() {
		return nil, apperrors.ErrFileReadFailed.With(fmt.Errorf("%s is a directory", path))
	}

	mimeType := DeclaredType(path)
	if mimeType == "" {
		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return nil, apperrors.ErrFileReadFailed.With(err)
		}
		mimeType = detected.String()
	}

	return NewSelectedFile(filepath.Base(path), mimeType, info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// FileFromUpload stages a multipart upload using the Content-Type the client declared. The
// content is read immediately because the server removes multipart temp files once the request
// completes.
func FileFromUpload(header *multipart.FileHeader) (*SelectedFile, error) {
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if declared := DeclaredType(header.Filename); declared != "" {
			mimeType = declared
		}
	}

	src, err := header.Open()
	if err != nil {
		return nil, apperrors.ErrFileReadFailed.With(err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.ErrFileReadFailed.With(err)
	}

	return NewSelectedFile(filepath.Base(header.Filename), mimeType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}), nil
}

// DeclaredType returns the type implied by name's extension, or "" when unknown.
func DeclaredType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	return normalizeMIME(mime.TypeByExtension(ext))
}

// ExtensionFor returns a file extension for an audio MIME type, or "" when unknown.
func ExtensionFor(mimeType string) string {
	mimeType = normalizeMIME(mimeType)
	if mimeType == "audio/webm" {
		return ".webm"
	}
	for _, ext := range []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".opus", ".amr", ".aac"} {
		if audioTypes[ext] == mimeType {
			return ext
		}
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// IsAudio reports whether the declared type is an audio type.
func (f *SelectedFile) IsAudio() bool {
	return strings.HasPrefix(f.MIMEType, "audio/")
}

// ReadAll loads the whole file into memory.
func ReadAll(f *SelectedFile) ([]byte, error) {
	if f == nil || f.open == nil {
		return nil, apperrors.ErrFileReadFailed.With(fmt.Errorf("no readable file"))
	}
	r, err := f.open()
	if err != nil {
		return nil, apperrors.ErrFileReadFailed.With(err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.ErrFileReadFailed.With(err)
	}
	return data, nil
}

func normalizeMIME(t string) string {
	if t == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(t))
	}
	return mediaType
}
