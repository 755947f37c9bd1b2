package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PhaseMode describes where a phase takes place.
type PhaseMode string

const (
	PhaseModeOnline  PhaseMode = "Online"
	PhaseModeOffline PhaseMode = "Offline"
	PhaseModeHybrid  PhaseMode = "Hybrid"
)

// Valid reports whether m is one of the known phase modes.
func (m PhaseMode) Valid() bool {
	switch m {
	case PhaseModeOnline, PhaseModeOffline, PhaseModeHybrid:
		return true
	}
	return false
}

// Hackathon is an organizer-owned event made of ordered phases
type Hackathon struct {
	ID                  uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	OrganizerID         uuid.UUID      `json:"organizerId" db:"organizer_id" gorm:"type:uuid;not null;index:idx_hackathon_organizer"`
	Title               string         `json:"title" db:"title" gorm:"type:text;not null"`
	Description         string         `json:"description" db:"description" gorm:"type:text;not null;default:''"`
	MinTeamSize         int            `json:"minTeamSize" db:"min_team_size" gorm:"type:integer;not null"`
	MaxTeamSize         int            `json:"maxTeamSize" db:"max_team_size" gorm:"type:integer;not null"`
	AllowIndividual     bool           `json:"allowIndividual" db:"allow_individual" gorm:"not null"`
	RegistrationEndDate time.Time      `json:"registrationEndDate" db:"registration_end_date" gorm:"not null"`
	ResultsPublished    bool           `json:"resultsPublished" db:"results_published" gorm:"not null;default:false"`
	PublishedAt         *time.Time     `json:"publishedAt,omitempty" db:"published_at"`
	Results             datatypes.JSON `json:"results,omitempty" db:"results"`
	Views               int64          `json:"views" db:"views" gorm:"not null;default:0"`
	Version             int64          `json:"version" db:"version" gorm:"not null;default:0"`
	CreatedAt           time.Time      `json:"createdAt" db:"created_at"`
	Phases              []Phase        `json:"phases" gorm:"foreignKey:HackathonID;references:ID;constraint:OnDelete:CASCADE"`
}

// Phase is one sequential stage of a hackathon
type Phase struct {
	ID            uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	HackathonID   uuid.UUID  `json:"hackathonId" db:"hackathon_id" gorm:"type:uuid;not null;uniqueIndex:idx_phase_position"`
	Position      int        `json:"position" db:"position" gorm:"type:integer;not null;uniqueIndex:idx_phase_position"`
	Name          string     `json:"name" db:"name" gorm:"type:text;not null"`
	Deadline      time.Time  `json:"deadline" db:"deadline" gorm:"not null"`
	UploadFormat  string     `json:"uploadFormat" db:"upload_format" gorm:"type:text;not null;default:''"`
	Mode          PhaseMode  `json:"mode" db:"mode" gorm:"type:text;not null"`
	Venue         *string    `json:"venue,omitempty" db:"venue" gorm:"type:text"`
	ReportingTime *time.Time `json:"reportingTime,omitempty" db:"reporting_time"`
}

func (h *Hackathon) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (p *Phase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FirstPhase returns the earliest phase, or nil when the hackathon has none.
func (h *Hackathon) FirstPhase() *Phase {
	if len(h.Phases) == 0 {
		return nil
	}
	return &h.Phases[0]
}

// PhaseIndex returns the position of phaseID in the ordered phase list, or -1.
func (h *Hackathon) PhaseIndex(phaseID uuid.UUID) int {
	for i := range h.Phases {
		if h.Phases[i].ID == phaseID {
			return i
		}
	}
	return -1
}

// NextPhase returns the phase following phaseID, or nil when phaseID is last or unknown.
func (h *Hackathon) NextPhase(phaseID uuid.UUID) *Phase {
	i := h.PhaseIndex(phaseID)
	if i < 0 || i+1 >= len(h.Phases) {
		return nil
	}
	return &h.Phases[i+1]
}

// RegistrationDeadline is the de-facto close of registration: the first
// phase deadline, falling back to RegistrationEndDate for phaseless hackathons.
func (h *Hackathon) RegistrationDeadline() time.Time {
	if first := h.FirstPhase(); first != nil {
		return first.Deadline
	}
	return h.RegistrationEndDate
}
