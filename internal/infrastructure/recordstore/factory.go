package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/isow/backend/internal/infrastructure/persistence"
	"github.com/isow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backend names accepted by records.backend
const (
	BackendMemory    = "memory"
	BackendGorm      = "gorm"
	BackendFirestore = "firestore"
	BackendS3        = "s3"
)

// Deps carries what the individual backends need
type Deps struct {
	DB      *gorm.DB
	Metrics *telemetry.RecordMetrics
	Logger  *zap.Logger
}

// Open builds the configured record store, wrapped with instrumentation
func Open(ctx context.Context, cfg *config.Config, deps Deps) (*InstrumentedStore, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var store record.Store
	switch cfg.Records.Backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendGorm:
		if deps.DB == nil {
			return nil, errors.New("gorm record backend needs a database connection")
		}
		store = persistence.NewGormDocumentStore(deps.DB)
	case BackendFirestore:
		fs, err := NewFirestoreStore(&cfg.Records.Firestore, WithFirestoreLogger(logger))
		if err != nil {
			return nil, err
		}
		store = fs
	case BackendS3:
		s3Store, err := NewS3Store(ctx, &cfg.Storage, WithS3Logger(logger))
		if err != nil {
			return nil, err
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("prepare record bucket: %w", err)
		}
		store = s3Store
	default:
		return nil, fmt.Errorf("unknown record backend %q", cfg.Records.Backend)
	}

	logger.Info("Record store ready", zap.String("backend", cfg.Records.Backend))
	return Instrument(store, deps.Metrics), nil
}
