package database

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Hackathons []seedHackathon `yaml:"hackathons"`
}

type seedHackathon struct {
	ID                  uuid.UUID   `yaml:"id"`
	OrganizerID         uuid.UUID   `yaml:"organizerId"`
	Title               string      `yaml:"title"`
	Description         string      `yaml:"description"`
	MinTeamSize         int         `yaml:"minTeamSize"`
	MaxTeamSize         int         `yaml:"maxTeamSize"`
	AllowIndividual     bool        `yaml:"allowIndividual"`
	RegistrationEndDate time.Time   `yaml:"registrationEndDate"`
	Phases              []seedPhase `yaml:"phases"`
}

type seedPhase struct {
	ID            uuid.UUID  `yaml:"id"`
	Name          string     `yaml:"name"`
	Deadline      time.Time  `yaml:"deadline"`
	UploadFormat  string     `yaml:"uploadFormat"`
	Mode          string     `yaml:"mode"`
	Venue         *string    `yaml:"venue"`
	ReportingTime *time.Time `yaml:"reportingTime"`
}

func (s seedHackathon) model() *models.Hackathon {
	h := &models.Hackathon{
		ID:                  s.ID,
		OrganizerID:         s.OrganizerID,
		Title:               s.Title,
		Description:         s.Description,
		MinTeamSize:         s.MinTeamSize,
		MaxTeamSize:         s.MaxTeamSize,
		AllowIndividual:     s.AllowIndividual,
		RegistrationEndDate: s.RegistrationEndDate,
	}
	for i, p := range s.Phases {
		id := p.ID
		if id == uuid.Nil {
			id = uuid.NewSHA1(s.ID, []byte(fmt.Sprintf("phase-%d", i)))
		}
		h.Phases = append(h.Phases, models.Phase{
			ID:            id,
			HackathonID:   s.ID,
			Position:      i,
			Name:          p.Name,
			Deadline:      p.Deadline,
			UploadFormat:  p.UploadFormat,
			Mode:          models.PhaseMode(p.Mode),
			Venue:         p.Venue,
			ReportingTime: p.ReportingTime,
		})
	}
	return h
}

// Seed loads hackathon fixtures from YAML. Every hackathon needs a fixed id;
// ones already present are skipped, so seeding is repeatable. validate is
// applied to each hackathon before insert. It returns how many were inserted.
func (d Database) Seed(ctx context.Context, r io.Reader, validate func(*models.Hackathon) error) (int, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file seedFile
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return 0, errs.NewBadRequestError(fmt.Sprintf("invalid seed file: %v", err))
	}

	inserted := 0
	for i, s := range file.Hackathons {
		if s.ID == uuid.Nil {
			return inserted, errs.NewMissingRequiredFieldError(fmt.Sprintf("hackathons[%d].id", i))
		}
		h := s.model()
		if validate != nil {
			if err := validate(h); err != nil {
				return inserted, fmt.Errorf("hackathons[%d]: %w", i, err)
			}
		}

		_, err := d.hackathonRepo.FindByID(ctx, h.ID)
		if err == nil {
			log.Debug().Str("hackathonId", h.ID.String()).Msg("seed hackathon already present")
			continue
		}
		if !errs.IsNotFound(err) {
			return inserted, err
		}
		if err := d.hackathonRepo.Add(ctx, h); err != nil {
			return inserted, err
		}
		inserted++
		log.Info().Str("hackathonId", h.ID.String()).Str("title", h.Title).Msg("seeded hackathon")
	}
	return inserted, nil
}
