package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplicationStatus is the overall state of an application. REJECTED is terminal.
type ApplicationStatus string

const (
	ApplicationActive   ApplicationStatus = "ACTIVE"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// Application is one participant's (individual or team) registration for a hackathon
type Application struct {
	ID               uuid.UUID         `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	HackathonID      uuid.UUID         `json:"hackathonId" db:"hackathon_id" gorm:"type:uuid;not null;uniqueIndex:idx_application_hackathon_applicant"`
	ApplicantID      uuid.UUID         `json:"applicantId" db:"applicant_id" gorm:"type:uuid;not null;uniqueIndex:idx_application_hackathon_applicant;index:idx_application_applicant"`
	Mode             ApplicationMode   `json:"mode" db:"mode" gorm:"type:text;not null"`
	Participant      datatypes.JSON    `json:"participant" db:"participant" gorm:"not null"`
	Status           ApplicationStatus `json:"status" db:"status" gorm:"type:text;not null;index"`
	RejectionMessage *string           `json:"rejectionMessage,omitempty" db:"rejection_message" gorm:"type:text"`
	CurrentPhaseID   *uuid.UUID        `json:"currentPhaseId,omitempty" db:"current_phase_id" gorm:"type:uuid"`
	AppliedAt        time.Time         `json:"appliedAt" db:"applied_at" gorm:"not null"`
	Views            int64             `json:"views" db:"views" gorm:"not null;default:0"`
	Showcased        bool              `json:"showcased" db:"showcased" gorm:"not null;default:false"`
	Version          int64             `json:"version" db:"version" gorm:"not null;default:0"`
	UpdatedAt        time.Time         `json:"updatedAt" db:"updated_at"`
	Submissions      []PhaseSubmission `json:"submissions" gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:CASCADE"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// SetPayload stores the participant detail of p and records its mode.
func (a *Application) SetPayload(p ApplicationPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	a.Mode = p.Mode()
	a.Participant = datatypes.JSON(data)
	return nil
}

// Payload decodes the stored participant detail into its tagged variant.
func (a *Application) Payload() (ApplicationPayload, error) {
	return decodeParticipant(a.Mode, a.Participant)
}

// SubmissionFor returns the submission for phaseID, or nil if the phase was never submitted.
func (a *Application) SubmissionFor(phaseID uuid.UUID) *PhaseSubmission {
	for i := range a.Submissions {
		if a.Submissions[i].PhaseID == phaseID {
			return &a.Submissions[i]
		}
	}
	return nil
}

// PhaseState returns the review state of phaseID, SubmissionNone when absent.
func (a *Application) PhaseState(phaseID uuid.UUID) SubmissionStatus {
	if sub := a.SubmissionFor(phaseID); sub != nil {
		return sub.Status
	}
	return SubmissionNone
}

// Contact is where applicant-facing notifications for an application go.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// PrimaryContact returns the individual applicant, or the first listed team member.
func (a *Application) PrimaryContact() (Contact, bool) {
	payload, err := a.Payload()
	if err != nil {
		return Contact{}, false
	}
	switch p := payload.(type) {
	case IndividualPayload:
		return Contact{Name: p.Name, Email: p.Email, Phone: p.Phone}, true
	case TeamPayload:
		if len(p.Members) == 0 {
			return Contact{}, false
		}
		m := p.Members[0]
		return Contact{Name: p.TeamName, Email: m.Email, Phone: m.Phone}, true
	}
	return Contact{}, false
}

// SaveOptions guards an application write.
type SaveOptions struct {
	// ExpectedVersion is the Version the caller read; the write fails if it moved.
	ExpectedVersion int64
	// RequireOpen fails the write if the hackathon's results were published meanwhile.
	RequireOpen bool
	// Events are appended to the outbox in the same transaction.
	Events []OutboxEvent
}
