package registry

import (
	"fmt"
	"sort"

	"github.com/imposter-project/assetscheme/internal/config"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

// Lookup resolves the configuration bound to a browser instance.
type Lookup interface {
	Lookup(browserID int) (*config.BrowserConfig, bool)
}

// Provider interface defines the contract for registry implementations
type Provider interface {
	Lookup
	InitRegistry() error
	Register(cfg config.BrowserConfig) error
	Unregister(browserID int) error
	IDs() ([]int, error)
}

// NewProvider returns the provider selected by the registry driver.
func NewProvider(cfg config.RegistryConfig) (Provider, error) {
	var provider Provider
	switch cfg.Driver {
	case "", "memory":
		provider = &InMemoryProvider{}
	case "redis":
		provider = &RedisProvider{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		}
	case "dynamodb":
		provider = &DynamoDBProvider{
			Region:    cfg.DynamoRegion,
			TableName: cfg.DynamoTable,
		}
	default:
		return nil, fmt.Errorf("unsupported registry driver: %s", cfg.Driver)
	}
	if err := provider.InitRegistry(); err != nil {
		return nil, fmt.Errorf("failed to initialise %s registry: %w", cfg.Driver, err)
	}
	logger.Debugf("initialised browser registry - driver:%s", cfg.Driver)
	return provider, nil
}

// Sync registers every config and removes browsers that are no longer configured.
func Sync(p Provider, configs []config.BrowserConfig) error {
	wanted := make(map[int]struct{}, len(configs))
	for _, cfg := range configs {
		if err := p.Register(cfg); err != nil {
			return fmt.Errorf("failed to register browser %d: %w", cfg.BrowserID, err)
		}
		wanted[cfg.BrowserID] = struct{}{}
	}

	ids, err := p.IDs()
	if err != nil {
		return fmt.Errorf("failed to list browsers: %w", err)
	}
	for _, id := range ids {
		if _, ok := wanted[id]; ok {
			continue
		}
		if err := p.Unregister(id); err != nil {
			return fmt.Errorf("failed to unregister browser %d: %w", id, err)
		}
		logger.Debugf("unregistered stale browser %d", id)
	}
	return nil
}

func sortedIDs(ids []int) []int {
	sort.Ints(ids)
	return ids
}
