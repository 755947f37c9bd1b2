package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ResultsPayload is what an organizer publishes when finalizing a hackathon
type ResultsPayload struct {
	Announcement string      `json:"announcement"`
	Placements   []Placement `json:"placements"`
}

// Placement ranks one application in the published results
type Placement struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	Rank          int       `json:"rank"`
	Prize         string    `json:"prize,omitempty"`
}

// DecodeResults decodes the published results; the zero value when none were stored.
func (h *Hackathon) DecodeResults() (ResultsPayload, error) {
	var payload ResultsPayload
	if len(h.Results) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(h.Results, &payload)
	return payload, err
}
