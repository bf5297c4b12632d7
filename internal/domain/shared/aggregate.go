package shared

import "time"

// BaseAggregateRoot is a BaseEntity with a version counter.
// Writers hold the row lock while they bump it, so the version only
// ever moves by one per committed change.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// Bump records a change made at t
func (a *BaseAggregateRoot) Bump(t time.Time) {
	a.Touch(t)
	a.Version++
}
