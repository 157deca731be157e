package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/shared/valueobject"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a *shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// PopulateAggregateRoot restores a loaded aggregate root and marks it persisted,
// so the next mutation bumps the version exactly once
func (m *AggregateModel) PopulateAggregateRoot(a *shared.BaseAggregateRoot) {
	a.BaseEntity = m.BaseModel.ToDomain()
	a.Version = m.Version
	a.MarkPersisted()
}

// AddressColumns is an address flattened into prefixed columns
type AddressColumns struct {
	FirstName  string `gorm:"type:varchar(100)"`
	LastName   string `gorm:"type:varchar(100)"`
	Line1      string `gorm:"type:varchar(255)"`
	Line2      string `gorm:"type:varchar(255)"`
	City       string `gorm:"type:varchar(100)"`
	Region     string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:varchar(2)"`
	Phone      string `gorm:"type:varchar(50)"`
}

// FromDomain copies a domain address
func (c *AddressColumns) FromDomain(a valueobject.Address) {
	c.FirstName = a.FirstName()
	c.LastName = a.LastName()
	c.Line1 = a.Line1()
	c.Line2 = a.Line2()
	c.City = a.City()
	c.Region = a.Region()
	c.PostalCode = a.PostalCode()
	c.Country = a.Country()
	c.Phone = a.Phone()
}

// ToDomain rebuilds the address. Empty columns give the zero address.
func (c *AddressColumns) ToDomain() valueobject.Address {
	if c.Line1 == "" && c.City == "" && c.Country == "" {
		return valueobject.Address{}
	}
	addr, err := valueobject.NewAddress(c.FirstName, c.LastName, c.Line1, c.City, c.PostalCode, c.Country,
		valueobject.WithLine2(c.Line2),
		valueobject.WithRegion(c.Region),
		valueobject.WithPhone(c.Phone),
	)
	if err != nil {
		// stored before validation rules tightened; keep what we can read
		return valueobject.Address{}
	}
	return addr
}
