package models

import (
	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/google/uuid"
)

// LocationModel is the persistence model for Location.
type LocationModel struct {
	RecordColumns
	Name      string     `gorm:"type:varchar(200);not null"`
	IsStorage bool       `gorm:"not null"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "locations"
}

// ToDomain converts the persistence model to a domain Location.
func (m *LocationModel) ToDomain() *ledger.Location {
	loc := &ledger.Location{
		BaseEntity: m.entity(),
		Name:       m.Name,
		IsStorage:  m.IsStorage,
	}
	if m.ProjectID != nil {
		p := *m.ProjectID
		loc.ProjectID = &p
	}
	return loc
}

// LocationModelFromDomain creates a new persistence model from a domain Location.
func LocationModelFromDomain(l *ledger.Location) *LocationModel {
	m := &LocationModel{
		Name:      l.Name,
		IsStorage: l.IsStorage,
	}
	m.setEntity(l.BaseEntity)
	if l.ProjectID != nil {
		p := *l.ProjectID
		m.ProjectID = &p
	}
	return m
}
