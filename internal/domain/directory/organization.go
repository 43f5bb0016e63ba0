// Package directory holds the organization and individual records managed
// by the admin dashboard, and their mapping to stored documents.
package directory

import (
	"strings"

	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
)

// Document field keys for organizations
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldCNPJ  = "cnpj"
	FieldCPF   = "cpf"
)

// AggregateTypeOrganization is the event aggregate type for organizations
const AggregateTypeOrganization = "Organization"

// Organization is a company record. TaxID holds the CNPJ.
type Organization struct {
	ID    string
	Name  string
	Email string
	TaxID string
}

// NewOrganization creates an organization that has not been stored yet
func NewOrganization(name, email, taxID string) (*Organization, error) {
	o := &Organization{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		TaxID: strings.TrimSpace(taxID),
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Apply replaces the editable fields with the given values
func (o *Organization) Apply(name, email, taxID string) error {
	next := Organization{
		ID:    o.ID,
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		TaxID: strings.TrimSpace(taxID),
	}
	if err := next.validate(); err != nil {
		return err
	}
	*o = next
	return nil
}

func (o *Organization) validate() error {
	if o.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "organization name cannot be empty")
	}
	if o.Email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "organization email cannot be empty")
	}
	if !isEmailShaped(o.Email) {
		return shared.NewDomainError("INVALID_EMAIL", "organization email is malformed")
	}
	if o.TaxID == "" {
		return shared.NewDomainError("INVALID_TAX_ID", "organization tax id cannot be empty")
	}
	return nil
}

// Fields returns the document fields persisted for the organization
func (o *Organization) Fields() record.Fields {
	return record.Fields{
		FieldName:  o.Name,
		FieldEmail: o.Email,
		FieldCNPJ:  o.TaxID,
	}
}

// OrganizationFromDocument maps a stored document to an organization.
// Missing fields decode as empty strings.
func OrganizationFromDocument(doc record.Document) Organization {
	return Organization{
		ID:    doc.ID,
		Name:  doc.Fields[FieldName],
		Email: doc.Fields[FieldEmail],
		TaxID: doc.Fields[FieldCNPJ],
	}
}
