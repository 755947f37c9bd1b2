package api

import (
	"net/http"

	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rpupo63/hackathon-review-backend/workflow"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type hackathonHandler struct {
	responder Responder
	logger    zerolog.Logger
	workflow  *workflow.Service
}

func newHackathonHandler(svc *workflow.Service) hackathonHandler {
	logger := log.With().Str("handlerName", "hackathonHandler").Logger()

	return hackathonHandler{
		responder: NewResponder(logger),
		logger:    logger,
		workflow:  svc,
	}
}

// HackathonCollection is the response of the hackathon listing
type HackathonCollection struct {
	Hackathons []*models.Hackathon `json:"hackathons"`
	Total      int                 `json:"total"`
}

// EligibilityResponse tells an applicant whether they may apply right now
type EligibilityResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// createHackathon creates a hackathon owned by the calling organizer
// @Router /hackathons [post]
func (h hackathonHandler) createHackathon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := ctxGetActor(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var hackathon models.Hackathon
		if err := decodeJSON(w, r, &hackathon); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		created, err := h.workflow.CreateHackathon(r.Context(), actor, &hackathon)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, created)
	}
}

// getAllHackathons lists every hackathon
// @Router /hackathons [get]
func (h hackathonHandler) getAllHackathons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hackathons, err := h.workflow.ListHackathons(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if hackathons == nil {
			hackathons = []*models.Hackathon{}
		}
		h.responder.WriteJSON(w, HackathonCollection{Hackathons: hackathons, Total: len(hackathons)})
	}
}

// getHackathon returns one hackathon with its ordered phases
// @Router /hackathons/{hackathonID} [get]
func (h hackathonHandler) getHackathon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hackathonID, err := uuidParam(r, "hackathonID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		hackathon, err := h.workflow.GetHackathon(r.Context(), hackathonID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, hackathon)
	}
}

// getEligibility reports whether the calling applicant may apply
// @Router /hackathons/{hackathonID}/eligibility [get]
func (h hackathonHandler) getEligibility() http.HandlerFunc {
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

		verdict, err := h.workflow.CheckEligibility(r.Context(), actor, hackathonID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		response := EligibilityResponse{Allowed: verdict.Allowed, Reason: verdict.ReasonCode()}
		if verdict.Reason != nil {
			response.Details = verdict.Reason.Error()
		}
		h.responder.WriteJSON(w, response)
	}
}

// finalizeResults publishes the results and closes the hackathon
// @Router /hackathons/{hackathonID}/results [post]
func (h hackathonHandler) finalizeResults() http.HandlerFunc {
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

		var payload models.ResultsPayload
		if err := decodeJSON(w, r, &payload); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if _, err := h.workflow.FinalizeResults(r.Context(), actor, hackathonID, payload); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		results, err := h.workflow.GetResults(r.Context(), hackathonID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, results)
	}
}

// getResults returns the published results
// @Router /hackathons/{hackathonID}/results [get]
func (h hackathonHandler) getResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hackathonID, err := uuidParam(r, "hackathonID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		results, err := h.workflow.GetResults(r.Context(), hackathonID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, results)
	}
}
