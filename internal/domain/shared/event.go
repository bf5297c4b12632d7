package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about a ledger record, raised after it was committed
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	// AggregateID is the record the event is about, e.g. the item for stock alerts
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent implements DomainEvent for embedding in concrete events
type BaseDomainEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	At          time.Time `json:"occurred_at"`
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectType string    `json:"subject_type"`
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.SubjectID }
func (e *BaseDomainEvent) AggregateType() string  { return e.SubjectType }

// NewBaseDomainEvent raises an event of eventType about the subject record
func NewBaseDomainEvent(eventType, subjectType string, subjectID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New(),
		Type:        eventType,
		At:          time.Now(),
		SubjectID:   subjectID,
		SubjectType: subjectType,
	}
}
