// Package models holds the GORM table mappings for the ledger.
// Domain types in internal/domain/ledger carry no tags; each model here
// converts to and from its domain counterpart and the repositories only
// ever touch models.
//
//   - base.go: identity and version columns
//   - ledger_item.go: catalog items
//   - location.go: storage and job-site locations
//   - stock.go: stock records and cost layers
//   - movement.go: movements
//   - ledger_entry.go: the posting log
//
// Quantities are stored as decimal(18,4) and costs as decimal(18,6).
package models
