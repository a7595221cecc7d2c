package services

import (
	"scribe/internal/app/api/provider"
	"scribe/internal/app/export"
)

type backendService struct {
	active   string
	exporter *export.Exporter
}

// NewBackendService reports the compiled-in backends; active is the one the pipeline uses.
func NewBackendService(active string, exporter *export.Exporter) BackendService {
	return &backendService{active: active, exporter: exporter}
}

func (s *backendService) Active() string {
	return s.active
}

func (s *backendService) Available() []string {
	return provider.ListRegisteredProviders()
}

func (s *backendService) Formats() []export.Format {
	if s.exporter == nil {
		return []export.Format{export.FormatText}
	}
	return s.exporter.Formats()
}
