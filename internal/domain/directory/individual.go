package directory

import (
	"regexp"
	"strings"

	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
)

// AggregateTypeIndividual is the event aggregate type for individuals
const AggregateTypeIndividual = "Individual"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Individual is a person record. PersonalTaxID holds the CPF and
// OrganizationTaxID the CNPJ of the organization the person belongs to.
type Individual struct {
	ID                string
	Name              string
	Email             string
	PersonalTaxID     string
	OrganizationTaxID string
}

// NewIndividual creates an individual that has not been stored yet
func NewIndividual(name, email, personalTaxID, organizationTaxID string) (*Individual, error) {
	i := &Individual{
		Name:              strings.TrimSpace(name),
		Email:             strings.TrimSpace(email),
		PersonalTaxID:     strings.TrimSpace(personalTaxID),
		OrganizationTaxID: strings.TrimSpace(organizationTaxID),
	}
	if err := i.validate(); err != nil {
		return nil, err
	}
	return i, nil
}

// Apply replaces the editable fields with the given values
func (i *Individual) Apply(name, email, personalTaxID, organizationTaxID string) error {
	next := Individual{
		ID:                i.ID,
		Name:              strings.TrimSpace(name),
		Email:             strings.TrimSpace(email),
		PersonalTaxID:     strings.TrimSpace(personalTaxID),
		OrganizationTaxID: strings.TrimSpace(organizationTaxID),
	}
	if err := next.validate(); err != nil {
		return err
	}
	*i = next
	return nil
}

func (i *Individual) validate() error {
	if i.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "individual name cannot be empty")
	}
	if i.Email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "individual email cannot be empty")
	}
	if !isEmailShaped(i.Email) {
		return shared.NewDomainError("INVALID_EMAIL", "individual email is malformed")
	}
	if i.PersonalTaxID == "" {
		return shared.NewDomainError("INVALID_TAX_ID", "individual personal tax id cannot be empty")
	}
	if i.OrganizationTaxID == "" {
		return shared.NewDomainError("INVALID_TAX_ID", "individual organization tax id cannot be empty")
	}
	return nil
}

// Fields returns the document fields persisted for the individual
func (i *Individual) Fields() record.Fields {
	return record.Fields{
		FieldName:  i.Name,
		FieldEmail: i.Email,
		FieldCPF:   i.PersonalTaxID,
		FieldCNPJ:  i.OrganizationTaxID,
	}
}

// IndividualFromDocument maps a stored document to an individual
func IndividualFromDocument(doc record.Document) Individual {
	return Individual{
		ID:                doc.ID,
		Name:              doc.Fields[FieldName],
		Email:             doc.Fields[FieldEmail],
		PersonalTaxID:     doc.Fields[FieldCPF],
		OrganizationTaxID: doc.Fields[FieldCNPJ],
	}
}

func isEmailShaped(email string) bool {
	return emailRegex.MatchString(email)
}
