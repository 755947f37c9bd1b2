package models

import (
	"encoding/json"
	"fmt"
)

// ApplicationMode discriminates the participant payload variants.
type ApplicationMode string

const (
	ModeIndividual ApplicationMode = "Individual"
	ModeTeam       ApplicationMode = "Team"
)

// ApplicationPayload is either an IndividualPayload or a TeamPayload.
type ApplicationPayload interface {
	Mode() ApplicationMode
	isApplicationPayload()
}

// IndividualPayload is the participant detail of a solo applicant
type IndividualPayload struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,len=10,number"`
	Qualifications string `json:"qualifications" validate:"required"`
}

// TeamPayload is the participant detail of a team and its full roster
type TeamPayload struct {
	TeamName string       `json:"teamName" validate:"required"`
	TeamSize int          `json:"teamSize" validate:"required,min=1"`
	Members  []TeamMember `json:"members" validate:"required,min=1,dive"`
}

// TeamMember is one roster entry of a TeamPayload
type TeamMember struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,len=10,number"`
	Role  string `json:"role,omitempty"`
}

func (IndividualPayload) Mode() ApplicationMode { return ModeIndividual }
func (TeamPayload) Mode() ApplicationMode       { return ModeTeam }

func (IndividualPayload) isApplicationPayload() {}
func (TeamPayload) isApplicationPayload()       {}

// applicationEnvelope is the wire shape of an ApplicationPayload.
type applicationEnvelope struct {
	Mode       ApplicationMode    `json:"mode"`
	Individual *IndividualPayload `json:"individual,omitempty"`
	Team       *TeamPayload       `json:"team,omitempty"`
}

// DecodeApplicationPayload reads {"mode": ..., "individual"|"team": {...}}.
func DecodeApplicationPayload(data []byte) (ApplicationPayload, error) {
	var env applicationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Mode {
	case ModeIndividual:
		if env.Individual == nil {
			return nil, fmt.Errorf("mode %s requires an individual object", env.Mode)
		}
		return *env.Individual, nil
	case ModeTeam:
		if env.Team == nil {
			return nil, fmt.Errorf("mode %s requires a team object", env.Mode)
		}
		return *env.Team, nil
	}
	return nil, fmt.Errorf("unknown application mode %q", env.Mode)
}

// EncodeApplicationPayload is the inverse of DecodeApplicationPayload.
func EncodeApplicationPayload(p ApplicationPayload) ([]byte, error) {
	env := applicationEnvelope{Mode: p.Mode()}
	switch v := p.(type) {
	case IndividualPayload:
		env.Individual = &v
	case TeamPayload:
		env.Team = &v
	}
	return json.Marshal(env)
}

func decodeParticipant(mode ApplicationMode, data []byte) (ApplicationPayload, error) {
	switch mode {
	case ModeIndividual:
		var p IndividualPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ModeTeam:
		var p TeamPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown application mode %q", mode)
}
