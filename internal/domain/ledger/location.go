package ledger

import (
	"strings"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// Location is a place where stock is held: a central storage location or a job site
type Location struct {
	shared.BaseEntity
	Name      string
	IsStorage bool
	ProjectID *uuid.UUID
}

// NewStorageLocation creates a storage location. Storage locations never belong to a project.
func NewStorageLocation(name string) (*Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Location name cannot be empty")
	}
	return &Location{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		IsStorage:  true,
	}, nil
}

// NewSiteLocation creates a job-site location owned by exactly one project
func NewSiteLocation(name string, projectID uuid.UUID) (*Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Location name cannot be empty")
	}
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Site location requires a project")
	}
	return &Location{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		IsStorage:  false,
		ProjectID:  &projectID,
	}, nil
}

// IsSite returns true if the location is a job site
func (l *Location) IsSite() bool {
	return !l.IsStorage
}
