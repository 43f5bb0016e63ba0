package directory

import (
	"testing"

	"github.com/isow/backend/internal/domain/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrganization(t *testing.T) {
	t.Run("creates organization and trims fields", func(t *testing.T) {
		org, err := NewOrganization("  ACME Ltda ", "contato@acme.com.br", " 12.345.678/0001-90 ")

		require.NoError(t, err)
		assert.Empty(t, org.ID)
		assert.Equal(t, "ACME Ltda", org.Name)
		assert.Equal(t, "contato@acme.com.br", org.Email)
		assert.Equal(t, "12.345.678/0001-90", org.TaxID)
	})

	tests := []struct {
		name    string
		orgName string
		email   string
		taxID   string
		code    string
	}{
		{"empty name", "", "a@b.com", "1", "INVALID_NAME"},
		{"empty email", "ACME", "", "1", "INVALID_EMAIL"},
		{"malformed email", "ACME", "acme", "1", "INVALID_EMAIL"},
		{"empty tax id", "ACME", "a@b.com", "  ", "INVALID_TAX_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrganization(tt.orgName, tt.email, tt.taxID)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "organization")
		})
	}
}

func TestOrganization_Apply(t *testing.T) {
	org := &Organization{ID: "doc-1", Name: "Old", Email: "old@acme.com", TaxID: "1"}

	t.Run("replaces fields and keeps id", func(t *testing.T) {
		require.NoError(t, org.Apply("New", "new@acme.com", "2"))
		assert.Equal(t, Organization{ID: "doc-1", Name: "New", Email: "new@acme.com", TaxID: "2"}, *org)
	})

	t.Run("leaves organization untouched on invalid input", func(t *testing.T) {
		before := *org
		assert.Error(t, org.Apply("", "x@y.com", "3"))
		assert.Equal(t, before, *org)
	})
}

func TestOrganizationDocumentMapping(t *testing.T) {
	org := Organization{ID: "doc-9", Name: "ACME", Email: "a@acme.com", TaxID: "123"}

	fields := org.Fields()
	assert.Equal(t, record.Fields{"name": "ACME", "email": "a@acme.com", "cnpj": "123"}, fields)

	back := OrganizationFromDocument(record.Document{ID: "doc-9", Fields: fields})
	assert.Equal(t, org, back)

	partial := OrganizationFromDocument(record.Document{ID: "x", Fields: record.Fields{"name": "Only"}})
	assert.Equal(t, "Only", partial.Name)
	assert.Empty(t, partial.Email)
}
