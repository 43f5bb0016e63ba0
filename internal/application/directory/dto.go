package directory

import "github.com/isow/backend/internal/domain/directory"

// OrganizationResponse represents an organization in API responses
type OrganizationResponse struct {
	ID    string `json:"id" example:"c1b7a6f0-1f1a-4c53-9a4d-2e0b5f1a9c10"`
	Name  string `json:"name" example:"Isow LTDA"`
	Email string `json:"email" example:"example@isow.com"`
	CNPJ  string `json:"cnpj" example:"00.000.000/0000-00"`
}

// IndividualResponse represents an individual in API responses
type IndividualResponse struct {
	ID    string `json:"id" example:"5d0c9c2e-0c7a-4ad9-8d59-1b0f0c6f2a11"`
	Name  string `json:"name" example:"Maria Souza"`
	Email string `json:"email" example:"maria@isow.com"`
	CPF   string `json:"cpf" example:"000.000.000-00"`
	CNPJ  string `json:"cnpj" example:"00.000.000/0000-00"`
}

// ToOrganizationResponse converts a domain Organization to OrganizationResponse
func ToOrganizationResponse(o directory.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:    o.ID,
		Name:  o.Name,
		Email: o.Email,
		CNPJ:  o.TaxID,
	}
}

// ToIndividualResponse converts a domain Individual to IndividualResponse
func ToIndividualResponse(i directory.Individual) IndividualResponse {
	return IndividualResponse{
		ID:    i.ID,
		Name:  i.Name,
		Email: i.Email,
		CPF:   i.PersonalTaxID,
		CNPJ:  i.OrganizationTaxID,
	}
}
