package listview

import (
	"time"

	"github.com/isow/backend/internal/application/directory"
	"github.com/isow/backend/internal/application/validation"
	"go.uber.org/zap"
)

// CompanyView lists organizations
type CompanyView = ViewModel[directory.OrganizationResponse, validation.OrganizationInput]

// UserView lists individuals
type UserView = ViewModel[directory.IndividualResponse, validation.IndividualInput]

// NewCompanyView creates the companies list of one session
func NewCompanyView(svc *directory.OrganizationService, settleDelay time.Duration, logger *zap.Logger) *CompanyView {
	return New(Config[directory.OrganizationResponse, validation.OrganizationInput]{
		Entity: EntityCompanies,
		Source: svc,
		ID:     func(o directory.OrganizationResponse) string { return o.ID },
		Form: func(o directory.OrganizationResponse) validation.OrganizationInput {
			return validation.OrganizationInput{Name: o.Name, Email: o.Email, CNPJ: o.CNPJ}
		},
		Messages:    CompanyMessages,
		SettleDelay: settleDelay,
		Logger:      logger,
	})
}

// NewUserView creates the users list of one session
func NewUserView(svc *directory.IndividualService, settleDelay time.Duration, logger *zap.Logger) *UserView {
	return New(Config[directory.IndividualResponse, validation.IndividualInput]{
		Entity: EntityUsers,
		Source: svc,
		ID:     func(i directory.IndividualResponse) string { return i.ID },
		Form: func(i directory.IndividualResponse) validation.IndividualInput {
			return validation.IndividualInput{Name: i.Name, Email: i.Email, CPF: i.CPF, CNPJ: i.CNPJ}
		},
		Messages:    UserMessages,
		SettleDelay: settleDelay,
		Logger:      logger,
	})
}

// DirectoryFactories returns the factories for the companies and users lists
func DirectoryFactories(orgs *directory.OrganizationService, people *directory.IndividualService, settleDelay time.Duration, logger *zap.Logger) map[string]Factory {
	return map[string]Factory{
		EntityCompanies: func() View { return NewCompanyView(orgs, settleDelay, logger) },
		EntityUsers:     func() View { return NewUserView(people, settleDelay, logger) },
	}
}
