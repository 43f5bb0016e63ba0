package directory

import (
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
)

// Event types published by the directory
const (
	EventTypeOrganizationCreated = "organization.created"
	EventTypeOrganizationUpdated = "organization.updated"
	EventTypeOrganizationDeleted = "organization.deleted"
	EventTypeIndividualCreated   = "individual.created"
	EventTypeIndividualUpdated   = "individual.updated"
	EventTypeIndividualDeleted   = "individual.deleted"
)

// RecordChangedEvent is published whenever a directory record is created,
// updated or deleted. Fields is empty for deletions.
type RecordChangedEvent struct {
	shared.BaseDomainEvent
	Collection string            `json:"collection"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// NewOrganizationEvent builds an organization change event
func NewOrganizationEvent(eventType string, o Organization) *RecordChangedEvent {
	ev := &RecordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOrganization, o.ID),
		Collection:      record.CollectionCompanies,
	}
	if eventType != EventTypeOrganizationDeleted {
		ev.Fields = o.Fields()
	}
	return ev
}

// NewIndividualEvent builds an individual change event
func NewIndividualEvent(eventType string, i Individual) *RecordChangedEvent {
	ev := &RecordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeIndividual, i.ID),
		Collection:      record.CollectionUsers,
	}
	if eventType != EventTypeIndividualDeleted {
		ev.Fields = i.Fields()
	}
	return ev
}
