package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ESAditya1729/tantika/internal/query"
	"github.com/ESAditya1729/tantika/internal/workflow"
	"github.com/ESAditya1729/tantika/model"
)

// listResponse is the envelope for paginated collection endpoints.
type listResponse struct {
	Data       any              `json:"data"`
	Pagination query.Pagination `json:"pagination"`
}

// decodeBody decodes a JSON request body into dst. An empty body leaves dst
// at its zero value so endpoints with all-optional fields accept bare
// requests.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && err != io.EOF {
		return model.NewBadRequestError("invalid JSON body")
	}
	return nil
}

// queryParams builds filter parameters from the request query string.
func queryParams(r *http.Request) query.Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	p := query.Params{
		Search:    q.Get("search"),
		Status:    q.Get("status"),
		DateRange: q.Get("dateRange"),
		Sort:      q.Get("sort"),
		Page:      page,
		Limit:     limit,
	}
	return p.Normalize()
}

func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var in workflow.CreateOrderInput
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, err)
		return
	}

	order, err := h.engine.CreateOrder(r.Context(), model.RequestContextFrom(r.Context()), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, order)
}

func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, pagination, err := h.engine.ListOrders(r.Context(), queryParams(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, listResponse{Data: orders, Pagination: pagination})
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func (h *handlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
		Notes  string `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if body.Status == "" {
		WriteError(w, model.NewMissingFieldError("status"))
		return
	}

	order, err := h.engine.TransitionOrder(
		r.Context(), model.RequestContextFrom(r.Context()),
		chi.URLParam(r, "id"), model.OrderStatus(body.Status), body.Reason, body.Notes)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func (h *handlers) recordContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Method string `json:"method"`
		Notes  string `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if body.Method == "" {
		WriteError(w, model.NewMissingFieldError("method"))
		return
	}

	order, err := h.engine.RecordContact(
		r.Context(), model.RequestContextFrom(r.Context()),
		chi.URLParam(r, "id"), model.ContactMethod(body.Method), body.Notes)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func (h *handlers) recordPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if body.Status == "" {
		WriteError(w, model.NewMissingFieldError("status"))
		return
	}

	order, err := h.engine.RecordPaymentEvent(
		r.Context(), model.RequestContextFrom(r.Context()),
		chi.URLParam(r, "id"), model.PaymentStatus(body.Status))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func (h *handlers) bulkUpdateOrders(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderIDs []string `json:"orderIds"`
		Action   string   `json:"action"`
		Value    string   `json:"value"`
		Reason   string   `json:"reason"`
		Notes    string   `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if body.Action != "status" {
		WriteValidationError(w, model.FieldError{
			Field: "action", Code: "invalid",
			Message: `action must be "status"`,
		})
		return
	}

	result, err := h.engine.BulkTransitionOrders(
		r.Context(), model.RequestContextFrom(r.Context()),
		body.OrderIDs, model.OrderStatus(body.Value), body.Reason, body.Notes)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *handlers) orderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.OrderStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
