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

// IndividualService handles individual business operations
type IndividualService struct {
	store record.Store
	events
}

// NewIndividualService creates a new IndividualService
func NewIndividualService(store record.Store, publisher shared.EventPublisher, logger *zap.Logger) *IndividualService {
	return &IndividualService{store: store, events: newEvents(publisher, logger)}
}

// List returns every individual ordered by id
func (s *IndividualService) List(ctx context.Context) ([]IndividualResponse, error) {
	docs, err := s.store.List(ctx, record.CollectionUsers)
	if err != nil {
		return nil, storeError("list individuals", err)
	}
	record.SortByID(docs)

	result := make([]IndividualResponse, 0, len(docs))
	for _, doc := range docs {
		result = append(result, ToIndividualResponse(directory.IndividualFromDocument(doc)))
	}
	return result, nil
}

// Get returns one individual
func (s *IndividualService) Get(ctx context.Context, id string) (*IndividualResponse, error) {
	doc, err := s.store.Get(ctx, record.CollectionUsers, id)
	if err != nil {
		return nil, storeError("get individual "+id, err)
	}
	resp := ToIndividualResponse(directory.IndividualFromDocument(*doc))
	return &resp, nil
}

// Create validates and stores a new individual
func (s *IndividualService) Create(ctx context.Context, req validation.IndividualInput) (*IndividualResponse, error) {
	if err := validation.Struct(i18n.FromContext(ctx), &req); err != nil {
		return nil, err
	}
	ind, err := directory.NewIndividual(req.Name, req.Email, req.CPF, req.CNPJ)
	if err != nil {
		return nil, inputError(err)
	}

	id, err := s.store.Add(ctx, record.CollectionUsers, ind.Fields())
	if err != nil {
		return nil, storeError("create individual", err)
	}
	ind.ID = id

	s.publish(ctx, directory.NewIndividualEvent(directory.EventTypeIndividualCreated, *ind))
	resp := ToIndividualResponse(*ind)
	return &resp, nil
}

// Update validates and merges the form fields into an existing individual
func (s *IndividualService) Update(ctx context.Context, id string, req validation.IndividualInput) (*IndividualResponse, error) {
	if err := validation.Struct(i18n.FromContext(ctx), &req); err != nil {
		return nil, err
	}
	ind := &directory.Individual{ID: id}
	if err := ind.Apply(req.Name, req.Email, req.CPF, req.CNPJ); err != nil {
		return nil, inputError(err)
	}

	if err := s.store.Update(ctx, record.CollectionUsers, id, ind.Fields()); err != nil {
		return nil, storeError("update individual "+id, err)
	}

	s.publish(ctx, directory.NewIndividualEvent(directory.EventTypeIndividualUpdated, *ind))
	resp := ToIndividualResponse(*ind)
	return &resp, nil
}

// Delete removes an individual
func (s *IndividualService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, record.CollectionUsers, id); err != nil {
		return storeError("delete individual "+id, err)
	}
	s.publish(ctx, directory.NewIndividualEvent(directory.EventTypeIndividualDeleted, directory.Individual{ID: id}))
	return nil
}

// Count returns the number of individuals
func (s *IndividualService) Count(ctx context.Context) (int64, error) {
	n, err := record.Count(ctx, s.store, record.CollectionUsers)
	if err != nil {
		return 0, storeError("count individuals", err)
	}
	return n, nil
}
