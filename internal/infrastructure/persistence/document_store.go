package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/isow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDocumentStore implements record.Store on the documents table
type GormDocumentStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormDocumentStore creates a new GormDocumentStore
func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db, now: time.Now}
}

// List returns every document in the collection ordered by id
func (s *GormDocumentStore) List(ctx context.Context, collection string) ([]record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}
	var rows []models.DocumentModel
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	docs := make([]record.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].ToDomain()
	}
	return docs, nil
}

// Get returns one document or shared.ErrNotFound
func (s *GormDocumentStore) Get(ctx context.Context, collection, id string) (*record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}
	row, err := s.find(s.db.WithContext(ctx), collection, id)
	if err != nil {
		return nil, err
	}
	doc := row.ToDomain()
	return &doc, nil
}

// Add stores a new document and returns its generated id
func (s *GormDocumentStore) Add(ctx context.Context, collection string, fields record.Fields) (string, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return "", err
	}
	now := s.now()
	row := models.DocumentModel{
		ID:         uuid.NewString(),
		Collection: collection,
		Fields:     fields.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return row.ID, nil
}

// Update merges fields into an existing document
func (s *GormDocumentStore) Update(ctx context.Context, collection, id string, fields record.Fields) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, collection, id)
		if err != nil {
			return err
		}
		merged := record.Fields(row.Fields).Merge(fields)
		if err := tx.Model(row).
			Select("fields", "updated_at").
			Updates(models.DocumentModel{Fields: merged, UpdatedAt: s.now()}).Error; err != nil {
			return fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		return nil
	})
}

// Delete removes a document; deleting a missing document yields shared.ErrNotFound
func (s *GormDocumentStore) Delete(ctx context.Context, collection, id string) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&models.DocumentModel{})
	if result.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the number of documents in the collection
func (s *GormDocumentStore) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("collection = ?", collection).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (s *GormDocumentStore) find(db *gorm.DB, collection, id string) (*models.DocumentModel, error) {
	var row models.DocumentModel
	if err := db.Where("collection = ? AND id = ?", collection, id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &row, nil
}

var (
	_ record.Store   = (*GormDocumentStore)(nil)
	_ record.Counter = (*GormDocumentStore)(nil)
)
