package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionStatus is the review state of one (application, phase) pair.
type SubmissionStatus string

const (
	// SubmissionNone is never stored; it stands for "no submission yet".
	SubmissionNone              SubmissionStatus = "NONE"
	SubmissionPending           SubmissionStatus = "PENDING"
	SubmissionAccepted          SubmissionStatus = "ACCEPTED"
	SubmissionRejected          SubmissionStatus = "REJECTED"
	SubmissionReuploadRequested SubmissionStatus = "REUPLOAD_REQUESTED"
)

// SubmissionContent is what the applicant hands in for a phase
type SubmissionContent struct {
	Statement string  `json:"statement" db:"statement" gorm:"type:text;not null;default:''"`
	Link      *string `json:"link,omitempty" db:"link" gorm:"type:text"`
	FileKey   *string `json:"fileKey,omitempty" db:"file_key" gorm:"type:text"`
}

// Empty reports whether no content field carries a value.
func (c SubmissionContent) Empty() bool {
	return strings.TrimSpace(c.Statement) == "" &&
		(c.Link == nil || strings.TrimSpace(*c.Link) == "") &&
		(c.FileKey == nil || strings.TrimSpace(*c.FileKey) == "")
}

// PhaseSubmission holds the latest content and review state an application has for one phase
type PhaseSubmission struct {
	ID            uuid.UUID         `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ApplicationID uuid.UUID         `json:"applicationId" db:"application_id" gorm:"type:uuid;not null;uniqueIndex:idx_submission_application_phase"`
	PhaseID       uuid.UUID         `json:"phaseId" db:"phase_id" gorm:"type:uuid;not null;uniqueIndex:idx_submission_application_phase"`
	Content       SubmissionContent `json:"content" gorm:"embedded;embeddedPrefix:content_"`
	SubmittedAt   time.Time         `json:"submittedAt" db:"submitted_at" gorm:"not null"`
	Status        SubmissionStatus  `json:"status" db:"status" gorm:"type:text;not null"`
	Score         *int              `json:"score,omitempty" db:"score" gorm:"type:integer;check:score IS NULL OR (score >= 0 AND score <= 100)"`
	Remarks       *string           `json:"remarks,omitempty" db:"remarks" gorm:"type:text"`
	ReuploadCount int               `json:"reuploadCount" db:"reupload_count" gorm:"type:integer;not null;default:0;check:reupload_count >= 0 AND reupload_count <= 2"`
	IsReuploaded  bool              `json:"isReuploaded" db:"is_reuploaded" gorm:"not null;default:false"`
	ReviewedAt    *time.Time        `json:"reviewedAt,omitempty" db:"reviewed_at"`
}

func (s *PhaseSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SubmissionKeyPrefix is the storage prefix uploads for one phase submission must live under.
func SubmissionKeyPrefix(applicationID, phaseID uuid.UUID) string {
	return fmt.Sprintf("submissions/%s/%s/", applicationID, phaseID)
}
