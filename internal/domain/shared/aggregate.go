package shared

// EventRecorder is implemented by anything that buffers domain events
type EventRecorder interface {
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	EventRecorder
	GetVersion() int
	IncrementVersion()
}

// EventBuffer is an append-only buffer of pending domain events.
// Aggregates and child entities embed it to raise events.
type EventBuffer struct {
	domainEvents []DomainEvent
}

// AddDomainEvent adds a domain event to be published
func (b *EventBuffer) AddDomainEvent(event DomainEvent) {
	b.domainEvents = append(b.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (b *EventBuffer) GetDomainEvents() []DomainEvent {
	return b.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (b *EventBuffer) ClearDomainEvents() {
	b.domainEvents = nil
}

// BaseAggregateRoot provides common fields for aggregate roots.
// Version is the optimistic concurrency token. It advances at most once per
// unit of work: the first mutation after a load or save bumps it, later
// mutations in the same unit of work leave it alone.
type BaseAggregateRoot struct {
	BaseEntity
	EventBuffer
	Version          int
	persistedVersion int
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version if it still equals the persisted one
func (a *BaseAggregateRoot) IncrementVersion() {
	if a.Version == a.persistedVersion {
		a.Version++
	}
}

// PersistedVersion returns the version last read from or written to storage.
// Zero means the aggregate has never been stored.
func (a *BaseAggregateRoot) PersistedVersion() int {
	return a.persistedVersion
}

// MarkPersisted records that the current version matches storage
func (a *BaseAggregateRoot) MarkPersisted() {
	a.persistedVersion = a.Version
}

// IsNew reports whether the aggregate has never been stored
func (a *BaseAggregateRoot) IsNew() bool {
	return a.persistedVersion == 0
}

// NewBaseAggregateRoot creates a new, unsaved aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
