package model

import "time"

const (
	AuditGroupCreated = "CharacteristicGroupCreated"
	AuditGroupUpdated = "CharacteristicGroupUpdated"
	AuditGroupDeleted = "CharacteristicGroupDeleted"
	AuditValueCreated = "CharacteristicValueCreated"
	AuditValueDeleted = "CharacteristicValueDeleted"
)

type AuditEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Actor     string    `json:"actor"`
	Before    any       `json:"before"`
	After     any       `json:"after"`
	Timestamp time.Time `json:"timestamp"`
}
