// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: base persistence models and flattened address columns
//   - stock.go: stock locations, store links, stock items and the movement ledger
//   - ordering.go: orders and their line items, units, shipments, payments and history
//   - outbox.go: outbox model for event delivery
package models
