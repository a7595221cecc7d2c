package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"scribe/internal/app/api"
	"scribe/internal/app/config"
	apperrors "scribe/internal/app/errors"
)

// ProviderCreator builds a transcription backend from configuration
type ProviderCreator func(cfg config.TranscriberConfig, logger *zap.Logger) (api.Transcriber, error)

// providerRegistry stores backend creation functions
var (
	providerRegistry = make(map[string]ProviderCreator)
	registryMutex    sync.RWMutex
)

// RegisterProvider registers a backend under name. Backends call it from init.
func RegisterProvider(name string, creator ProviderCreator) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	providerRegistry[name] = creator
}

// GetProviderCreator returns the creator function for a backend
func GetProviderCreator(name string) (ProviderCreator, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	creator, ok := providerRegistry[name]
	if !ok {
		return nil, apperrors.ErrProviderNotFound.With(fmt.Errorf("backend %q not registered", name))
	}
	return creator, nil
}

// ListRegisteredProviders returns all registered backend names, sorted
func ListRegisteredProviders() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	names := lo.Keys(providerRegistry)
	sort.Strings(names)
	return names
}

// NewTranscriber creates the backend named by cfg.Backend.
func NewTranscriber(cfg config.TranscriberConfig, logger *zap.Logger) (api.Transcriber, error) {
	creator, err := GetProviderCreator(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return creator(cfg, logger.With(zap.String("backend", cfg.Backend)))
}
