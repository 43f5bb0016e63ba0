package directory

import (
	"context"

	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/validation"
	"github.com/isow/backend/internal/domain/directory"
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrganizationService handles organization business operations
type OrganizationService struct {
	store record.Store
	events
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(store record.Store, publisher shared.EventPublisher, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{store: store, events: newEvents(publisher, logger)}
}

// List returns every organization ordered by id
func (s *OrganizationService) List(ctx context.Context) ([]OrganizationResponse, error) {
	docs, err := s.store.List(ctx, record.CollectionCompanies)
	if err != nil {
		return nil, storeError("list organizations", err)
	}
	record.SortByID(docs)

	result := make([]OrganizationResponse, 0, len(docs))
	for _, doc := range docs {
		result = append(result, ToOrganizationResponse(directory.OrganizationFromDocument(doc)))
	}
	return result, nil
}

// Get returns one organization
func (s *OrganizationService) Get(ctx context.Context, id string) (*OrganizationResponse, error) {
	doc, err := s.store.Get(ctx, record.CollectionCompanies, id)
	if err != nil {
		return nil, storeError("get organization "+id, err)
	}
	resp := ToOrganizationResponse(directory.OrganizationFromDocument(*doc))
	return &resp, nil
}

// Create validates and stores a new organization
func (s *OrganizationService) Create(ctx context.Context, req validation.OrganizationInput) (*OrganizationResponse, error) {
	if err := validation.Struct(i18n.FromContext(ctx), &req); err != nil {
		return nil, err
	}
	org, err := directory.NewOrganization(req.Name, req.Email, req.CNPJ)
	if err != nil {
		return nil, inputError(err)
	}

	id, err := s.store.Add(ctx, record.CollectionCompanies, org.Fields())
	if err != nil {
		return nil, storeError("create organization", err)
	}
	org.ID = id

	s.publish(ctx, directory.NewOrganizationEvent(directory.EventTypeOrganizationCreated, *org))
	resp := ToOrganizationResponse(*org)
	return &resp, nil
}

// Update validates and merges the form fields into an existing organization
func (s *OrganizationService) Update(ctx context.Context, id string, req validation.OrganizationInput) (*OrganizationResponse, error) {
	if err := validation.Struct(i18n.FromContext(ctx), &req); err != nil {
		return nil, err
	}
	org := &directory.Organization{ID: id}
	if err := org.Apply(req.Name, req.Email, req.CNPJ); err != nil {
		return nil, inputError(err)
	}

	if err := s.store.Update(ctx, record.CollectionCompanies, id, org.Fields()); err != nil {
		return nil, storeError("update organization "+id, err)
	}

	s.publish(ctx, directory.NewOrganizationEvent(directory.EventTypeOrganizationUpdated, *org))
	resp := ToOrganizationResponse(*org)
	return &resp, nil
}

// Delete removes an organization
func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, record.CollectionCompanies, id); err != nil {
		return storeError("delete organization "+id, err)
	}
	s.publish(ctx, directory.NewOrganizationEvent(directory.EventTypeOrganizationDeleted, directory.Organization{ID: id}))
	return nil
}

// Count returns the number of organizations
func (s *OrganizationService) Count(ctx context.Context) (int64, error) {
	n, err := record.Count(ctx, s.store, record.CollectionCompanies)
	if err != nil {
		return 0, storeError("count organizations", err)
	}
	return n, nil
}
