package cache

import (
	"fmt"

	"github.com/isow/backend/internal/application/session"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionStorageFactory creates session storages based on configuration
type SessionStorageFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(config.RedisConfig) (*redis.Client, error)
}

// SessionStorageFactoryOption is a functional option for configuring the factory
type SessionStorageFactoryOption func(*SessionStorageFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SessionStorageFactoryOption {
	return func(f *SessionStorageFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory storage
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SessionStorageFactoryOption {
	return func(f *SessionStorageFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSessionStorageFactory creates a new factory
func NewSessionStorageFactory(cfg config.RedisConfig, opts ...SessionStorageFactoryOption) *SessionStorageFactory {
	f := &SessionStorageFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect:               NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StorageHandle is a session storage with its resources
type StorageHandle struct {
	Storage session.Storage
	// Client is set when the storage is Redis backed
	Client *redis.Client
	close  func() error
}

// Close releases the storage resources
func (h *StorageHandle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// CreateStorage returns Redis storage when Redis is enabled and reachable,
// in-memory storage otherwise (unless fallback is disabled).
func (f *SessionStorageFactory) CreateStorage() (*StorageHandle, error) {
	if f.redisConfig.Enabled {
		client, err := f.connect(f.redisConfig)
		if err == nil {
			f.logger.Info("using Redis session storage",
				zap.String("host", f.redisConfig.Host), zap.Int("port", f.redisConfig.Port))
			storage := NewRedisSessionStorage(client, "")
			return &StorageHandle{Storage: storage, Client: client, close: storage.Close}, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for sessions but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory session storage. "+
			"Sessions will not be shared between instances.",
			zap.Error(err),
		)
	}

	storage := NewInMemorySessionStorage()
	return &StorageHandle{Storage: storage, close: storage.Close}, nil
}
