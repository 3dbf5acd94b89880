package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/imposter-project/assetscheme/internal/config"
	"github.com/imposter-project/assetscheme/internal/mimetypes"
	"github.com/imposter-project/assetscheme/internal/registry"
	"github.com/imposter-project/assetscheme/internal/scheme"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

// Runtime is the state shared by every host: the registry the handler factory
// resolves browsers through, and the index of source names to browser ids.
type Runtime struct {
	Config    *config.AppConfig
	ConfigDir string
	Registry  registry.Provider
	Factory   *scheme.Factory
	Sources   *SourceIndex
}

// Initialise performs common initialisation tasks for all adapters
func Initialise(appConfig *config.AppConfig, configDirArg string) (*Runtime, error) {
	logger.Infoln("starting assetscheme...")

	configDir, err := getConfigDir(configDirArg, appConfig.ConfigDir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("specified path is not a valid directory: %s", configDir)
	}

	configs, err := config.LoadConfig(configDir, appConfig.ScanRecursive)
	if err != nil {
		return nil, err
	}

	provider, err := registry.NewProvider(appConfig.Registry)
	if err != nil {
		return nil, err
	}

	mimeTypes := mimetypes.New()
	if appConfig.MimeTypesFile != "" {
		if mimeTypes, err = mimetypes.LoadFile(appConfig.MimeTypesFile); err != nil {
			return nil, err
		}
	}

	rt := &Runtime{
		Config:    appConfig,
		ConfigDir: configDir,
		Registry:  provider,
		Factory:   scheme.NewFactory(provider, scheme.WithMimeTypes(mimeTypes)),
		Sources:   &SourceIndex{},
	}
	if err := rt.Reload(configs); err != nil {
		return nil, err
	}
	logger.Infof("loaded %d browser sources from %s", len(configs), configDir)
	return rt, nil
}

// Reload replaces the registered browser sources.
func (rt *Runtime) Reload(configs []config.BrowserConfig) error {
	if err := registry.Sync(rt.Registry, configs); err != nil {
		return err
	}
	rt.Sources.Set(configs)
	return nil
}

// WatchConfig reloads sources when the config directory changes, if watching is
// enabled. It blocks until ctx is done.
func (rt *Runtime) WatchConfig(ctx context.Context) error {
	if !rt.Config.Watch {
		return nil
	}
	return config.Watch(ctx, rt.ConfigDir, rt.Config.ScanRecursive, config.DefaultReloadDebounce, func(configs []config.BrowserConfig) {
		if err := rt.Reload(configs); err != nil {
			logger.Warnf("failed to apply reloaded sources: %v", err)
		}
	})
}

func getConfigDir(configDirArg string, configured string) (string, error) {
	if configDirArg != "" {
		return configDirArg, nil
	}
	if configured != "" {
		return configured, nil
	}
	return "", errors.New("config directory path must be provided either as an argument or via ASSETSCHEME_CONFIG_DIR environment variable")
}

// Source names a registered browser.
type Source struct {
	Name      string `json:"name"`
	BrowserID int    `json:"browserId"`
}

// SourceIndex maps source names, used as the host of scheme URLs, to browser ids.
type SourceIndex struct {
	mu     sync.RWMutex
	byName map[string]int
}

// Set replaces the index contents.
func (s *SourceIndex) Set(configs []config.BrowserConfig) {
	byName := make(map[string]int, len(configs))
	for _, cfg := range configs {
		byName[cfg.Name] = cfg.BrowserID
	}
	s.mu.Lock()
	s.byName = byName
	s.mu.Unlock()
}

// BrowserID returns the browser registered under name.
func (s *SourceIndex) BrowserID(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	return id, ok
}

// List returns the indexed sources ordered by browser id.
func (s *SourceIndex) List() []Source {
	s.mu.RLock()
	sources := make([]Source, 0, len(s.byName))
	for name, id := range s.byName {
		sources = append(sources, Source{Name: name, BrowserID: id})
	}
	s.mu.RUnlock()

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].BrowserID < sources[j].BrowserID
	})
	return sources
}

// SplitSourcePath splits "/<source>/<rest>" into the source name and the remainder.
func SplitSourcePath(p string) (name string, rest string, ok bool) {
	p = strings.TrimPrefix(p, "/")
	name, rest, _ = strings.Cut(p, "/")
	if name == "" {
		return "", "", false
	}
	return name, rest, true
}

// SchemeURL builds the scheme URL a browser engine would request for a path
// within a source.
func SchemeURL(schemeName, source, rest, rawQuery string) string {
	u := url.URL{
		Scheme:   schemeName,
		Host:     source,
		Path:     "/" + rest,
		RawQuery: rawQuery,
	}
	return u.String()
}
