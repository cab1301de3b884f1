// models/reminder_log.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Log directions
const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// Custom JSONB type for log metadata
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("unsupported type for JSONB column")
	}
}

// ReminderLog is one append-only audit row: a single outbound delivery
// attempt or a single inbound reply. Rows are never updated or deleted and
// outlive the task they reference.
type ReminderLog struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	TaskID uuid.UUID `gorm:"type:uuid;index;not null"`

	Channel           string         `gorm:"type:varchar(20)"` // whatsapp, email, none
	Status            ReminderStatus `gorm:"type:varchar(20)"` // attempt outcome
	Direction         string         `gorm:"type:varchar(10);default:'outbound'"`
	MessageBody       string         `gorm:"type:text"`
	ProviderMessageID string
	ErrorMessage      string `gorm:"type:text"`
	ReplyFrom         string
	Metadata          JSONB `gorm:"type:jsonb;default:'{}'"`

	SentAt time.Time
	gorm.Model
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
