package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONBlob stores an arbitrary client-supplied JSON document as text.
// The server never interprets its contents.
type JSONBlob json.RawMessage

// Value implements the driver.Valuer interface
func (b JSONBlob) Value() (driver.Value, error) {
	if len(b) == 0 {
		return "null", nil
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (b *JSONBlob) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*b = append((*b)[0:0], v...)
	case string:
		*b = JSONBlob(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONBlob", value)
	}
	return nil
}

func (b JSONBlob) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

func (b *JSONBlob) UnmarshalJSON(data []byte) error {
	*b = append((*b)[0:0], data...)
	return nil
}

// EventMenu is a shareable menu for a hosted event. The 8-character
// UniqueID is the only identifier exposed to clients and acts as the
// capability to read or mutate the record. Rows past ExpiresAt are
// filtered out at query time, never reaped.
type EventMenu struct {
	ID          int       `gorm:"primarykey" json:"-"`
	UniqueID    string    `gorm:"size:8;uniqueIndex;not null" json:"unique_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	MenuData    JSONBlob  `gorm:"type:text" json:"menu_data"`
	ReadOnly    bool      `gorm:"default:false" json:"read_only"`
	HostName    string    `gorm:"size:50" json:"host_name"`
	CreatedBy   *int      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (EventMenu) TableName() string { return "event_menus" }
