package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SlotType discriminates the availability slot union.
type SlotType string

const (
	SlotSpecific SlotType = "specific"
	SlotWeekend  SlotType = "weekend"
	SlotWeekday  SlotType = "weekday"
)

// AvailabilitySlot is one renter-supplied availability entry. Specific slots
// carry a date; weekend slots imply Saturday and Sunday, weekday slots imply
// Monday through Friday. TimeTo equals TimeFrom for point-in-time entries.
type AvailabilitySlot struct {
	Type     SlotType `json:"type"`
	Date     string   `json:"date,omitempty"`
	TimeFrom string   `json:"time_from"`
	TimeTo   string   `json:"time_to"`
}

// String renders a human-readable form used in workflow log details and
// work-order exports.
func (s AvailabilitySlot) String() string {
	switch s.Type {
	case SlotWeekend:
		return fmt.Sprintf("weekends %s-%s", s.TimeFrom, s.TimeTo)
	case SlotWeekday:
		return fmt.Sprintf("weekdays %s-%s", s.TimeFrom, s.TimeTo)
	default:
		return fmt.Sprintf("%s %s-%s", s.Date, s.TimeFrom, s.TimeTo)
	}
}

// AvailabilitySlots is stored as a JSONB column.
type AvailabilitySlots []AvailabilitySlot

// Value implements driver.Valuer.
func (s AvailabilitySlots) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *AvailabilitySlots) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported availability slots source: %T", src)
	}
	return json.Unmarshal(raw, s)
}
