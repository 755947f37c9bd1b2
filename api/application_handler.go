package api

import (
	"encoding/json"
	"net/http"

	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rpupo63/hackathon-review-backend/services"
	"github.com/rpupo63/hackathon-review-backend/workflow"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type applicationHandler struct {
	responder Responder
	logger    zerolog.Logger
	workflow  *workflow.Service
	search    ApplicationSearcher
}

func newApplicationHandler(svc *workflow.Service, search ApplicationSearcher) applicationHandler {
	logger := log.With().Str("handlerName", "applicationHandler").Logger()

	return applicationHandler{
		responder: NewResponder(logger),
		logger:    logger,
		workflow:  svc,
		search:    search,
	}
}

// ApplicationCollection is the response of application listings
type ApplicationCollection struct {
	Applications []*models.Application `json:"applications"`
	Total        int                   `json:"total"`
}

func collection(apps []*models.Application) ApplicationCollection {
	if apps == nil {
		apps = []*models.Application{}
	}
	return ApplicationCollection{Applications: apps, Total: len(apps)}
}

// RejectRequest carries the message shown to a rejected applicant
type RejectRequest struct {
	Message string `json:"message"`
}

// createApplication registers the calling applicant for a hackathon
// @Router /hackathons/{hackathonID}/applications [post]
func (h applicationHandler) createApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		hackathonID, err := uuidParam(r, "hackathonID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var raw json.RawMessage
		if err := decodeJSON(w, r, &raw); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		payload, err := models.DecodeApplicationPayload(raw)
		if err != nil {
			h.responder.WriteError(w, errs.NewValidationError("mode", err.Error()))
			return
		}

		app, err := h.workflow.CreateApplication(r.Context(), actor, hackathonID, payload)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, app)
	}
}

// getHackathonApplications lists a hackathon's applications for its organizer
// @Router /hackathons/{hackathonID}/applications [get]
func (h applicationHandler) getHackathonApplications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		hackathonID, err := uuidParam(r, "hackathonID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		apps, err := h.workflow.ListApplications(r.Context(), actor, hackathonID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, collection(apps))
	}
}

// searchApplications queries the search snapshot of a hackathon's applications.
// Results may trail the latest transitions by a few seconds.
// @Router /hackathons/{hackathonID}/applications/search [get]
func (h applicationHandler) searchApplications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.search == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("search", nil))
			return
		}
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		hackathonID, err := uuidParam(r, "hackathonID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		size, err := intQuery(r, "size", 20)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if _, err := h.workflow.OrganizedHackathon(r.Context(), actor, hackathonID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.search.Search(r.Context(), services.SearchQuery{
			HackathonID: hackathonID,
			Text:        r.URL.Query().Get("q"),
			Status:      r.URL.Query().Get("status"),
			Size:        size,
		})
		if err != nil {
			h.logger.Error().Err(err).Str("hackathonId", hackathonID.String()).Msg("search failed")
			h.responder.WriteError(w, errs.NewServiceUnavailableError("search", err))
			return
		}
		h.responder.WriteJSON(w, result)
	}
}

// getMyApplications lists the calling applicant's applications
// @Router /applications/mine [get]
func (h applicationHandler) getMyApplications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		apps, err := h.workflow.ListMyApplications(r.Context(), actor)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, collection(apps))
	}
}

// getApplication returns one application to its owner or organizer
// @Router /applications/{applicationID} [get]
func (h applicationHandler) getApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		applicationID, err := uuidParam(r, "applicationID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		app, err := h.workflow.GetApplication(r.Context(), actor, applicationID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, app)
	}
}

// deleteApplication removes an application
// @Router /applications/{applicationID} [delete]
func (h applicationHandler) deleteApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		applicationID, err := uuidParam(r, "applicationID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.workflow.DeleteApplication(r.Context(), actor, applicationID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

// rejectApplication ends an active application with a message
// @Router /applications/{applicationID}/reject [post]
func (h applicationHandler) rejectApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		applicationID, err := uuidParam(r, "applicationID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		var req RejectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		app, err := h.workflow.RejectApplication(r.Context(), actor, applicationID, req.Message)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, app)
	}
}

// publishShowcase makes a finished project public
// @Router /applications/{applicationID}/showcase [post]
func (h applicationHandler) publishShowcase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		applicationID, err := uuidParam(r, "applicationID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		app, err := h.workflow.PublishShowcase(r.Context(), actor, applicationID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, app)
	}
}
