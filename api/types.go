package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	hackathonHandler   hackathonHandler
	applicationHandler applicationHandler
	phaseHandler       phaseHandler
	systemHandler      systemHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// UploadSigner hands out storage URLs for phase files.
type UploadSigner interface {
	PresignSubmission(ctx context.Context, applicationID, phaseID uuid.UUID, fileName, contentType string) (*services.UploadURL, error)
}

// ApplicationSearcher queries the application search snapshot.
type ApplicationSearcher interface {
	Search(ctx context.Context, q services.SearchQuery) (*services.SearchResult, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}
