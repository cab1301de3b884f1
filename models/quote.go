package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quote and Company are collaborator tables: the reminder core only needs
// them for foreign keys and the per-quote progress lookup. Their CRUD lives
// in the surrounding system.
type Quote struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID `gorm:"type:uuid;index;not null"`
	QuoteNumber string    `gorm:"uniqueIndex;not null"`
	Title       string    `gorm:"not null"`
	Status      string    `gorm:"type:varchar(20);default:'draft'"`

	Tasks []Task `gorm:"foreignKey:QuoteID"`

	gorm.Model
}

type Company struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	Name  string    `gorm:"not null"`
	Phone string
	Email string

	Quotes []Quote `gorm:"foreignKey:CompanyID"`

	gorm.Model
}

func (q *Quote) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return
}

func (c *Company) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
