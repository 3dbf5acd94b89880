package registry

import (
	"sync"

	"github.com/imposter-project/assetscheme/internal/config"
)

// InMemoryProvider keeps browser configs in a process-local map.
type InMemoryProvider struct {
	mu       sync.RWMutex
	browsers map[int]config.BrowserConfig
}

func (p *InMemoryProvider) InitRegistry() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.browsers = make(map[int]config.BrowserConfig)
	return nil
}

func (p *InMemoryProvider) Lookup(browserID int) (*config.BrowserConfig, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.browsers[browserID]
	if !ok {
		return nil, false
	}
	return &cfg, true
}

func (p *InMemoryProvider) Register(cfg config.BrowserConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browsers == nil {
		p.browsers = make(map[int]config.BrowserConfig)
	}
	p.browsers[cfg.BrowserID] = cfg
	return nil
}

func (p *InMemoryProvider) Unregister(browserID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.browsers, browserID)
	return nil
}

func (p *InMemoryProvider) IDs() ([]int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]int, 0, len(p.browsers))
	for id := range p.browsers {
		ids = append(ids, id)
	}
	return sortedIDs(ids), nil
}
