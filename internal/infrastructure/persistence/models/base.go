package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
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
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// HospitalAggregateModel provides common persistence fields for
// hospital-scoped aggregate roots. The hospital ID is an opaque tenant key,
// not a relational foreign key.
type HospitalAggregateModel struct {
	AggregateModel
	HospitalID string     `gorm:"type:varchar(100);not null;index"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid;index"`
}

// FromDomainHospitalAggregateRoot populates HospitalAggregateModel from
// the domain HospitalAggregateRoot
func (m *HospitalAggregateModel) FromDomainHospitalAggregateRoot(h shared.HospitalAggregateRoot) {
	m.FromDomainAggregateRoot(h.BaseAggregateRoot)
	m.HospitalID = h.HospitalID
	m.CreatedBy = h.CreatedBy
}

// ToDomainHospitalAggregateRoot rebuilds the domain HospitalAggregateRoot
// from persistence fields
func (m *HospitalAggregateModel) ToDomainHospitalAggregateRoot() shared.HospitalAggregateRoot {
	return shared.HospitalAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		HospitalID: m.HospitalID,
		CreatedBy:  m.CreatedBy,
	}
}
