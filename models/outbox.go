package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventKind names a committed workflow transition.
type EventKind string

const (
	EventApplicationCreated     EventKind = "application.created"
	EventApplicationRejected    EventKind = "application.rejected"
	EventApplicationDeleted     EventKind = "application.deleted"
	EventApplicationShowcased   EventKind = "application.showcased"
	EventPhaseSubmitted         EventKind = "phase.submitted"
	EventPhaseReviewed          EventKind = "phase.reviewed"
	EventPhaseReuploadRequested EventKind = "phase.reupload_requested"
	EventResultsPublished       EventKind = "results.published"
)

// OutboxEvent is written in the same transaction as the transition it describes
type OutboxEvent struct {
	ID            int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Kind          EventKind      `json:"kind" gorm:"type:text;not null;index"`
	HackathonID   uuid.UUID      `json:"hackathonId" gorm:"type:uuid;not null"`
	ApplicationID *uuid.UUID     `json:"applicationId,omitempty" gorm:"type:uuid"`
	PhaseID       *uuid.UUID     `json:"phaseId,omitempty" gorm:"type:uuid"`
	Payload       datatypes.JSON `json:"payload"`
	CreatedAt     time.Time      `json:"createdAt"`
	Processed     bool           `json:"processed" gorm:"not null;default:false;index"`
}

// EventDetail is the payload carried by an OutboxEvent
type EventDetail struct {
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
	Score         *int   `json:"score,omitempty"`
	ReuploadCount int    `json:"reuploadCount,omitempty"`
}

// NewApplicationEvent builds an event about app, optionally scoped to one phase.
func NewApplicationEvent(kind EventKind, app *Application, phaseID *uuid.UUID, detail EventDetail) OutboxEvent {
	appID := app.ID
	data, _ := json.Marshal(detail)
	return OutboxEvent{
		Kind:          kind,
		HackathonID:   app.HackathonID,
		ApplicationID: &appID,
		PhaseID:       phaseID,
		Payload:       datatypes.JSON(data),
	}
}

// Detail decodes the event payload, tolerating empty payloads.
func (e OutboxEvent) Detail() EventDetail {
	var d EventDetail
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &d)
	}
	return d
}

// DeadLetter records an event a sink failed to handle
type DeadLetter struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OutboxID      int64      `json:"outboxId" gorm:"not null;index"`
	ApplicationID *uuid.UUID `json:"applicationId,omitempty" gorm:"type:uuid"`
	Sink          string     `json:"sink" gorm:"type:text;not null"`
	ErrorMsg      string     `json:"errorMsg" gorm:"type:text;not null"`
	Attempts      int        `json:"attempts" gorm:"not null;default:1"`
	CreatedAt     time.Time  `json:"createdAt"`
	RetriedAt     *time.Time `json:"retriedAt,omitempty"`
	Resolved      bool       `json:"resolved" gorm:"not null;default:false;index"`
}
