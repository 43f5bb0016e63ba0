// Package models holds the GORM table mappings.
package models

import (
	"time"

	"github.com/isow/backend/internal/domain/record"
)

// DocumentModel is one record-store document. Every collection shares the
// table; Fields is stored as a JSON object of strings.
type DocumentModel struct {
	ID         string            `gorm:"type:varchar(64);primaryKey"`
	Collection string            `gorm:"type:varchar(64);not null;index"`
	Fields     map[string]string `gorm:"serializer:json;type:text;not null"`
	CreatedAt  time.Time         `gorm:"not null"`
	UpdatedAt  time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the model to a record document
func (m *DocumentModel) ToDomain() record.Document {
	return record.Document{
		ID:     m.ID,
		Fields: record.Fields(m.Fields).Clone(),
	}
}
