package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rpupo63/hackathon-review-backend/workflow"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type phaseHandler struct {
	responder Responder
	logger    zerolog.Logger
	workflow  *workflow.Service
	uploads   UploadSigner
}

func newPhaseHandler(svc *workflow.Service, uploads UploadSigner) phaseHandler {
	logger := log.With().Str("handlerName", "phaseHandler").Logger()

	return phaseHandler{
		responder: NewResponder(logger),
		logger:    logger,
		workflow:  svc,
		uploads:   uploads,
	}
}

// ReviewRequest is an organizer's decision on a pending submission
type ReviewRequest struct {
	Status  models.SubmissionStatus `json:"status"`
	Score   *int                    `json:"score"`
	Remarks *string                 `json:"remarks"`
}

// ReuploadRequest explains what the applicant must change
type ReuploadRequest struct {
	Message string `json:"message"`
}

// UploadURLRequest names the file an applicant is about to upload
type UploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// phaseRequest resolves the caller and the application and phase in the path.
func (h phaseHandler) phaseRequest(w http.ResponseWriter, r *http.Request) (actor workflow.Actor, applicationID, phaseID uuid.UUID, ok bool) {
	var err error
	if actor, err = ctxGetActor(r.Context()); err != nil {
		h.responder.WriteError(w, err)
		return
	}
	if applicationID, err = uuidParam(r, "applicationID"); err != nil {
		h.responder.WriteError(w, err)
		return
	}
	if phaseID, err = uuidParam(r, "phaseID"); err != nil {
		h.responder.WriteError(w, err)
		return
	}
	return actor, applicationID, phaseID, true
}

// submit hands in content for a phase
// @Router /applications/{applicationID}/phases/{phaseID}/submission [put]
func (h phaseHandler) submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, applicationID, phaseID, ok := h.phaseRequest(w, r)
		if !ok {
			return
		}
		var content models.SubmissionContent
		if err := decodeJSON(w, r, &content); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		res, err := h.workflow.Submit(r.Context(), actor, applicationID, phaseID, content)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, res)
	}
}

// uploadURL presigns a storage URL for a phase file
// @Router /applications/{applicationID}/phases/{phaseID}/upload-url [post]
func (h phaseHandler) uploadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.uploads == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("uploads", nil))
			return
		}
		actor, applicationID, phaseID, ok := h.phaseRequest(w, r)
		if !ok {
			return
		}
		var req UploadURLRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.workflow.CheckUpload(r.Context(), actor, applicationID, phaseID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		upload, err := h.uploads.PresignSubmission(r.Context(), applicationID, phaseID, req.FileName, req.ContentType)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, upload)
	}
}

// review accepts or rejects a pending submission
// @Router /applications/{applicationID}/phases/{phaseID}/review [post]
func (h phaseHandler) review() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, applicationID, phaseID, ok := h.phaseRequest(w, r)
		if !ok {
			return
		}
		var req ReviewRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		res, err := h.workflow.ReviewPhase(r.Context(), actor, applicationID, phaseID, workflow.Review{
			Decision: req.Status,
			Score:    req.Score,
			Remarks:  req.Remarks,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, res)
	}
}

// requestReupload sends a pending submission back to the applicant
// @Router /applications/{applicationID}/phases/{phaseID}/reupload [post]
func (h phaseHandler) requestReupload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, applicationID, phaseID, ok := h.phaseRequest(w, r)
		if !ok {
			return
		}
		var req ReuploadRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		res, err := h.workflow.RequestReupload(r.Context(), actor, applicationID, phaseID, req.Message)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, res)
	}
}
