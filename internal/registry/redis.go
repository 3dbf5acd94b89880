package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/imposter-project/assetscheme/internal/config"
	"github.com/imposter-project/assetscheme/pkg/logger"
)

// RedisProvider stores browser configs as JSON fields of a single Redis hash,
// so several processes can share one registry.
type RedisProvider struct {
	Addr     string
	Password string
	DB       int
	Key      string

	client *redis.Client
	ctx    context.Context
}

func (p *RedisProvider) InitRegistry() error {
	p.ctx = context.Background()
	p.client = redis.NewClient(&redis.Options{
		Addr:     p.Addr,
		Password: p.Password,
		DB:       p.DB,
	})
	if p.Key == "" {
		p.Key = "assetscheme:browsers"
	}
	return p.client.Ping(p.ctx).Err()
}

func (p *RedisProvider) Lookup(browserID int) (*config.BrowserConfig, bool) {
	val, err := p.client.HGet(p.ctx, p.Key, strconv.Itoa(browserID)).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		logger.Errorf("failed to get browser %d: %v", browserID, err)
		return nil, false
	}
	var cfg config.BrowserConfig
	if err := json.Unmarshal([]byte(val), &cfg); err != nil {
		logger.Errorf("failed to unmarshal browser %d: %v", browserID, err)
		return nil, false
	}
	return &cfg, true
}

func (p *RedisProvider) Register(cfg config.BrowserConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal browser config: %w", err)
	}
	return p.client.HSet(p.ctx, p.Key, strconv.Itoa(cfg.BrowserID), data).Err()
}

func (p *RedisProvider) Unregister(browserID int) error {
	return p.client.HDel(p.ctx, p.Key, strconv.Itoa(browserID)).Err()
}

func (p *RedisProvider) IDs() ([]int, error) {
	fields, err := p.client.HKeys(p.ctx, p.Key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(fields))
	for _, field := range fields {
		id, err := strconv.Atoi(field)
		if err != nil {
			logger.Warnf("ignoring malformed browser id %q in %s", field, p.Key)
			continue
		}
		ids = append(ids, id)
	}
	return sortedIDs(ids), nil
}
