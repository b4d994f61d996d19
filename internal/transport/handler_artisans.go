package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ESAditya1729/tantika/internal/workflow"
	"github.com/ESAditya1729/tantika/model"
)

func (h *handlers) createArtisan(w http.ResponseWriter, r *http.Request) {
	var in workflow.CreateArtisanInput
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, err)
		return
	}

	artisan, err := h.engine.CreateArtisan(r.Context(), model.RequestContextFrom(r.Context()), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, artisan)
}

// listArtisans serves GET /api/artisans/{status}. The path segment is the
// status filter; query parameters refine it.
func (h *handlers) listArtisans(w http.ResponseWriter, r *http.Request) {
	p := queryParams(r)
	p.Status = chi.URLParam(r, "key")
	p = p.Normalize()

	if p.Status != "all" && !model.ArtisanStatus(p.Status).Valid() {
		WriteValidationError(w, model.FieldError{
			Field: "status", Code: "invalid",
			Message: "unknown artisan status filter",
		})
		return
	}

	artisans, pagination, err := h.engine.ListArtisans(r.Context(), p)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, listResponse{Data: artisans, Pagination: pagination})
}

func (h *handlers) getArtisan(w http.ResponseWriter, r *http.Request) {
	artisan, err := h.engine.GetArtisan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artisan)
}

func (h *handlers) approveArtisan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AdminNotes string `json:"adminNotes"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	artisan, err := h.engine.ApproveArtisan(
		r.Context(), model.RequestContextFrom(r.Context()),
		chi.URLParam(r, "key"), body.AdminNotes)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artisan)
}

func (h *handlers) rejectArtisan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RejectionReason string `json:"rejectionReason"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	artisan, err := h.engine.RejectArtisan(
		r.Context(), model.RequestContextFrom(r.Context()),
		chi.URLParam(r, "key"), body.RejectionReason)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artisan)
}

func (h *handlers) suspendArtisan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SuspensionReason string `json:"suspensionReason"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	artisan, err := h.engine.SuspendArtisan(
		r.Context(), model.RequestContextFrom(r.Context()),
		chi.URLParam(r, "key"), body.SuspensionReason)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artisan)
}

func (h *handlers) reactivateArtisan(w http.ResponseWriter, r *http.Request) {
	artisan, err := h.engine.ReactivateArtisan(
		r.Context(), model.RequestContextFrom(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artisan)
}

func (h *handlers) verifyIDProof(w http.ResponseWriter, r *http.Request) {
	artisan, err := h.engine.VerifyIDProof(
		r.Context(), model.RequestContextFrom(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artisan)
}

func (h *handlers) verifyBank(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VerificationNotes string `json:"verificationNotes"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	artisan, err := h.engine.VerifyBank(
		r.Context(), model.RequestContextFrom(r.Context()),
		chi.URLParam(r, "key"), body.VerificationNotes)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artisan)
}

// bulkArtisan builds a handler for one of the bulk action endpoints.
func (h *handlers) bulkArtisan(action workflow.ArtisanAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ArtisanIDs []string `json:"artisanIds"`
			Reason     string   `json:"reason"`
		}
		if err := decodeBody(r, &body); err != nil {
			WriteError(w, err)
			return
		}

		result, err := h.engine.BulkArtisanAction(
			r.Context(), model.RequestContextFrom(r.Context()),
			body.ArtisanIDs, action, body.Reason)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}

func (h *handlers) artisanStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.ArtisanStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
