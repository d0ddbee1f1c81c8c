package shared

// AggregateRoot marks entity types that own a consistency boundary and
// publish domain events.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot embeds the entity fields plus an optimistic-lock
// version. Events are collected in memory only; gorm never persists them.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot returns an aggregate base at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the optimistic-lock version
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion bumps the version. Repositories compare the stored
// version on save, so every mutation must call this.
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent records an event for publication after the next save
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the recorded, not yet published events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.domainEvents }

// ClearDomainEvents drops the recorded events
func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }
