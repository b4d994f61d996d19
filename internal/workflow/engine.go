package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ESAditya1729/tantika/internal/notify"
	"github.com/ESAditya1729/tantika/internal/observability"
	"github.com/ESAditya1729/tantika/internal/query"
	"github.com/ESAditya1729/tantika/internal/store"
	"github.com/ESAditya1729/tantika/model"
)

// Engine is the single authority for mutating order and artisan records.
// Reads go through the store's filtered List; every write validates against
// the transition tables, appends audit history, and relies on the store's
// optimistic version check so a losing concurrent writer fails with
// CONFLICT instead of silently overwriting.
type Engine struct {
	orders   store.OrderStore
	artisans store.ArtisanStore
	notifier notify.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewEngine creates a new lifecycle engine. metrics may be nil.
func NewEngine(
	orders store.OrderStore,
	artisans store.ArtisanStore,
	notifier notify.Notifier,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		orders:   orders,
		artisans: artisans,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// actorFor returns the audit actor for a request. Storefront endpoints run
// without an authenticated context.
func actorFor(rctx *model.RequestContext) string {
	if rctx == nil || rctx.ActorID == "" {
		return "customer"
	}
	return rctx.ActorID
}

// publish emits a notification event. Delivery failure is logged and
// counted, never surfaced: the entity mutation has already committed.
func (e *Engine) publish(ctx context.Context, event notify.Event) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(ctx, event); err != nil {
		e.logger.Warn("notification publish failed",
			zap.String("event_type", event.EventType),
			zap.String("entity_id", event.EntityID),
			zap.Error(err),
		)
		if e.metrics != nil {
			e.metrics.NotificationFailuresTotal.Inc()
		}
	}
}

func (e *Engine) countTransition(entity, target string, err error) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(model.ErrorCode(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	e.metrics.TransitionsTotal.WithLabelValues(entity, target, outcome).Inc()
}

// --- Orders ---

// CreateOrderInput is the storefront order-intake payload. Monetary values
// are in paise.
type CreateOrderInput struct {
	Customer      model.Customer      `json:"customer"`
	Items         []model.OrderItem   `json:"items"`
	Subtotal      int64               `json:"subtotal"`
	Tax           int64               `json:"tax"`
	Discount      int64               `json:"discount"`
	Shipping      int64               `json:"shipping"`
	Total         int64               `json:"total"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
}

func (in *CreateOrderInput) validate() error {
	var details []model.FieldError
	if strings.TrimSpace(in.Customer.Name) == "" {
		details = append(details, model.FieldError{Field: "customer.name", Code: "required", Message: "customer name is required"})
	}
	if strings.TrimSpace(in.Customer.Email) == "" {
		details = append(details, model.FieldError{Field: "customer.email", Code: "required", Message: "customer email is required"})
	}
	if len(in.Items) == 0 {
		details = append(details, model.FieldError{Field: "items", Code: "required", Message: "at least one item is required"})
	}
	for i, it := range in.Items {
		if it.Quantity < 1 {
			details = append(details, model.FieldError{
				Field: fmt.Sprintf("items[%d].quantity", i), Code: "min",
				Message: "quantity must be at least 1",
			})
		}
		if it.UnitPrice < 0 {
			details = append(details, model.FieldError{
				Field: fmt.Sprintf("items[%d].unit_price", i), Code: "min",
				Message: "unit price must not be negative",
			})
		}
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.Valid() {
		details = append(details, model.FieldError{Field: "payment_method", Code: "invalid", Message: "unknown payment method"})
	}
	if in.Total != in.Subtotal+in.Tax+in.Shipping-in.Discount {
		details = append(details, model.FieldError{
			Field: "total", Code: "invalid",
			Message: "total must equal subtotal + tax + shipping - discount",
		})
	}
	if len(details) > 0 {
		return model.NewValidationError(details...)
	}
	return nil
}

// newOrderNumber returns a human-readable order number.
func newOrderNumber() string {
	return "TNT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// CreateOrder records a new customer order with status pending and a seeded
// history entry.
func (e *Engine) CreateOrder(ctx context.Context, rctx *model.RequestContext, in CreateOrderInput) (model.Order, error) {
	if err := in.validate(); err != nil {
		return model.Order{}, err
	}

	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentCOD
	}

	now := time.Now().UTC()
	actor := actorFor(rctx)
	order := model.Order{
		ID:          uuid.NewString(),
		OrderNumber: newOrderNumber(),
		Status:      model.OrderPending,
		Customer:    in.Customer,
		Items:       in.Items,
		Subtotal:    in.Subtotal,
		Tax:         in.Tax,
		Discount:    in.Discount,
		Shipping:    in.Shipping,
		Total:       in.Total,
		Payment:     model.Payment{Method: method, Status: model.PaymentPending},
		History: []model.StatusChange{
			{Status: model.OrderPending, At: now, Actor: actor},
		},
		Contacts:  []model.ContactEntry{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.orders.Create(ctx, order); err != nil {
		return model.Order{}, err
	}

	e.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
	)
	return order, nil
}

// TransitionOrder validates and applies a status change on an order.
// Preconditions run in order: the order must exist, the transition must be
// legal, and cancellation requires a non-empty reason. No mutation happens
// when any precondition fails.
func (e *Engine) TransitionOrder(
	ctx context.Context,
	rctx *model.RequestContext,
	id string,
	target model.OrderStatus,
	reason, notes string,
) (order model.Order, err error) {
	defer func() { e.countTransition("order", string(target), err) }()

	if !target.Valid() {
		return model.Order{}, model.NewValidationError(model.FieldError{
			Field: "status", Code: "invalid",
			Message: fmt.Sprintf("unknown order status %q", target),
		})
	}
	if target == model.OrderRefunded {
		// Refunds only arrive through the payment-gateway webhook path.
		return model.Order{}, model.NewInvalidTransitionError("order", id, "", string(target))
	}

	order, err = e.orders.Get(ctx, id)
	if err != nil {
		return model.Order{}, err
	}

	if !CanTransitionOrder(order.Status, target) {
		return model.Order{}, model.NewInvalidTransitionError(
			"order", id, string(order.Status), string(target))
	}

	if target == model.OrderCancelled && strings.TrimSpace(reason) == "" {
		return model.Order{}, model.NewMissingFieldError("reason")
	}

	now := time.Now().UTC()
	from := order.Status
	order.Status = target
	order.History = append(order.History, model.StatusChange{
		Status: target,
		At:     now,
		Actor:  actorFor(rctx),
		Reason: reason,
		Notes:  notes,
	})
	order.UpdatedAt = now

	if err = e.orders.Update(ctx, order); err != nil {
		return model.Order{}, err
	}
	order.Version++

	e.logger.Info("order transitioned",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actorFor(rctx)),
	)

	e.publish(ctx, notify.NewEvent(notify.EventOrderStatusChanged, actorFor(rctx), order.ID,
		notify.StatusChangedPayload{
			Entity:     "order",
			OrderNum:   order.OrderNumber,
			FromStatus: string(from),
			ToStatus:   string(target),
			Reason:     reason,
			Email:      order.Customer.Email,
			Phone:      order.Customer.Phone,
		}))

	return order, nil
}

// RecordContact appends a customer-outreach entry to the order's contact
// history. The order status is untouched.
func (e *Engine) RecordContact(
	ctx context.Context,
	rctx *model.RequestContext,
	id string,
	method model.ContactMethod,
	notes string,
) (model.Order, error) {
	if !method.Valid() {
		return model.Order{}, model.NewValidationError(model.FieldError{
			Field: "method", Code: "invalid",
			Message: fmt.Sprintf("unknown contact method %q", method),
		})
	}

	order, err := e.orders.Get(ctx, id)
	if err != nil {
		return model.Order{}, err
	}

	now := time.Now().UTC()
	order.Contacts = append(order.Contacts, model.ContactEntry{
		Method: method,
		Notes:  notes,
		At:     now,
		Actor:  actorFor(rctx),
	})
	order.UpdatedAt = now

	if err := e.orders.Update(ctx, order); err != nil {
		return model.Order{}, err
	}
	order.Version++

	e.publish(ctx, notify.NewEvent(notify.EventOrderContacted, actorFor(rctx), order.ID,
		notify.ContactedPayload{
			OrderNum: order.OrderNumber,
			Method:   string(method),
			Notes:    notes,
		}))

	return order, nil
}

// RecordPaymentEvent applies a payment sub-record change reported by the
// external gateway. A refunded payment also moves the order itself to the
// terminal refunded status, which is only legal from delivered or cancelled.
func (e *Engine) RecordPaymentEvent(
	ctx context.Context,
	rctx *model.RequestContext,
	id string,
	target model.PaymentStatus,
) (model.Order, error) {
	if !target.Valid() {
		return model.Order{}, model.NewValidationError(model.FieldError{
			Field: "status", Code: "invalid",
			Message: fmt.Sprintf("unknown payment status %q", target),
		})
	}

	order, err := e.orders.Get(ctx, id)
	if err != nil {
		return model.Order{}, err
	}

	if !CanTransitionPayment(order.Payment.Status, target) {
		return model.Order{}, model.NewInvalidTransitionError(
			"payment", id, string(order.Payment.Status), string(target))
	}

	now := time.Now().UTC()
	actor := actorFor(rctx)
	from := order.Payment.Status
	order.Payment.Status = target

	if target == model.PaymentRefunded {
		if !refundableFrom[order.Status] {
			return model.Order{}, model.NewInvalidTransitionError(
				"order", id, string(order.Status), string(model.OrderRefunded))
		}
		order.Status = model.OrderRefunded
		order.History = append(order.History, model.StatusChange{
			Status: model.OrderRefunded,
			At:     now,
			Actor:  actor,
			Reason: "payment refunded",
		})
	}
	order.UpdatedAt = now

	if err := e.orders.Update(ctx, order); err != nil {
		return model.Order{}, err
	}
	order.Version++

	e.publish(ctx, notify.NewEvent(notify.EventOrderPaymentUpdated, actor, order.ID,
		notify.PaymentUpdatedPayload{
			OrderNum:   order.OrderNumber,
			FromStatus: string(from),
			ToStatus:   string(target),
		}))

	return order, nil
}

// GetOrder returns one order.
func (e *Engine) GetOrder(ctx context.Context, id string) (model.Order, error) {
	return e.orders.Get(ctx, id)
}

// ListOrders returns orders matching the filter parameters.
func (e *Engine) ListOrders(ctx context.Context, p query.Params) ([]model.Order, query.Pagination, error) {
	return e.orders.List(ctx, p)
}

// StatusCounts holds per-status totals for the admin dashboard.
type StatusCounts struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// OrderStats returns order counts by status.
func (e *Engine) OrderStats(ctx context.Context) (StatusCounts, error) {
	counts, err := e.orders.CountByStatus(ctx)
	if err != nil {
		return StatusCounts{}, err
	}
	out := StatusCounts{ByStatus: make(map[string]int, len(counts))}
	for status, n := range counts {
		out.ByStatus[string(status)] = n
		out.Total += n
	}
	return out, nil
}

// --- Artisans ---

// CreateArtisanInput is the application-submission payload.
type CreateArtisanInput struct {
	UserID          string             `json:"user_id"`
	BusinessName    string             `json:"business_name"`
	FullName        string             `json:"full_name"`
	Specializations []string           `json:"specializations"`
	YearsExperience int                `json:"years_experience"`
	Address         string             `json:"address"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	IDProof         *model.IDProof     `json:"id_proof,omitempty"`
	BankDetails     *model.BankDetails `json:"bank_details,omitempty"`
}

func (in *CreateArtisanInput) validate() error {
	var details []model.FieldError
	if strings.TrimSpace(in.BusinessName) == "" {
		details = append(details, model.FieldError{Field: "business_name", Code: "required", Message: "business name is required"})
	}
	if strings.TrimSpace(in.FullName) == "" {
		details = append(details, model.FieldError{Field: "full_name", Code: "required", Message: "full name is required"})
	}
	if strings.TrimSpace(in.Email) == "" {
		details = append(details, model.FieldError{Field: "email", Code: "required", Message: "email is required"})
	}
	if in.YearsExperience < 0 {
		details = append(details, model.FieldError{Field: "years_experience", Code: "min", Message: "years of experience must not be negative"})
	}
	if len(details) > 0 {
		return model.NewValidationError(details...)
	}
	return nil
}

// CreateArtisan records a new artisan application with status pending.
func (e *Engine) CreateArtisan(ctx context.Context, rctx *model.RequestContext, in CreateArtisanInput) (model.Artisan, error) {
	if err := in.validate(); err != nil {
		return model.Artisan{}, err
	}

	now := time.Now().UTC()
	artisan := model.Artisan{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Status:          model.ArtisanPending,
		BusinessName:    in.BusinessName,
		FullName:        in.FullName,
		Specializations: in.Specializations,
		YearsExperience: in.YearsExperience,
		Address:         in.Address,
		Email:           in.Email,
		Phone:           in.Phone,
		IDProof:         in.IDProof,
		BankDetails:     in.BankDetails,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := e.artisans.Create(ctx, artisan); err != nil {
		return model.Artisan{}, err
	}

	e.logger.Info("artisan application received",
		zap.String("artisan_id", artisan.ID),
		zap.String("business_name", artisan.BusinessName),
	)
	return artisan, nil
}

// transitionArtisan applies one named artisan transition. from is the only
// status the operation is legal from; mutate applies the decision metadata.
func (e *Engine) transitionArtisan(
	ctx context.Context,
	rctx *model.RequestContext,
	id string,
	from, to model.ArtisanStatus,
	reason string,
	mutate func(a *model.Artisan, now time.Time),
) (artisan model.Artisan, err error) {
	defer func() { e.countTransition("artisan", string(to), err) }()

	artisan, err = e.artisans.Get(ctx, id)
	if err != nil {
		return model.Artisan{}, err
	}

	if artisan.Status != from || !CanTransitionArtisan(artisan.Status, to) {
		return model.Artisan{}, model.NewInvalidTransitionError(
			"artisan", id, string(artisan.Status), string(to))
	}

	now := time.Now().UTC()
	prev := artisan.Status
	artisan.Status = to
	mutate(&artisan, now)
	artisan.UpdatedAt = now

	if err = e.artisans.Update(ctx, artisan); err != nil {
		return model.Artisan{}, err
	}
	artisan.Version++

	e.logger.Info("artisan transitioned",
		zap.String("artisan_id", artisan.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(to)),
		zap.String("actor", actorFor(rctx)),
	)

	e.publish(ctx, notify.NewEvent(notify.EventArtisanStatusChanged, actorFor(rctx), artisan.ID,
		notify.StatusChangedPayload{
			Entity:     "artisan",
			FromStatus: string(prev),
			ToStatus:   string(to),
			Reason:     reason,
			Email:      artisan.Email,
			Phone:      artisan.Phone,
		}))

	return artisan, nil
}

// ApproveArtisan moves a pending application to approved.
func (e *Engine) ApproveArtisan(ctx context.Context, rctx *model.RequestContext, id, adminNotes string) (model.Artisan, error) {
	return e.transitionArtisan(ctx, rctx, id, model.ArtisanPending, model.ArtisanApproved, "",
		func(a *model.Artisan, now time.Time) {
			a.ApprovedAt = &now
			a.ApprovedBy = actorFor(rctx)
			if adminNotes != "" {
				a.AdminNotes = adminNotes
			}
		})
}

// RejectArtisan moves a pending application to the terminal rejected status.
// A non-empty rejection reason is required.
func (e *Engine) RejectArtisan(ctx context.Context, rctx *model.RequestContext, id, rejectionReason string) (model.Artisan, error) {
	if strings.TrimSpace(rejectionReason) == "" {
		return model.Artisan{}, model.NewMissingFieldError("rejectionReason")
	}
	return e.transitionArtisan(ctx, rctx, id, model.ArtisanPending, model.ArtisanRejected, rejectionReason,
		func(a *model.Artisan, now time.Time) {
			a.RejectedAt = &now
			a.RejectionReason = rejectionReason
		})
}

// SuspendArtisan moves an approved artisan to suspended. A non-empty
// suspension reason is required.
func (e *Engine) SuspendArtisan(ctx context.Context, rctx *model.RequestContext, id, suspensionReason string) (model.Artisan, error) {
	if strings.TrimSpace(suspensionReason) == "" {
		return model.Artisan{}, model.NewMissingFieldError("suspensionReason")
	}
	return e.transitionArtisan(ctx, rctx, id, model.ArtisanApproved, model.ArtisanSuspended, suspensionReason,
		func(a *model.Artisan, now time.Time) {
			a.SuspendedAt = &now
			a.SuspensionReason = suspensionReason
		})
}

// ReactivateArtisan moves a suspended artisan back to approved. It is the
// only edge that re-enters an earlier status without passing through
// pending, and it carries no reason requirement. The suspension metadata is
// kept as a record of the last suspension.
func (e *Engine) ReactivateArtisan(ctx context.Context, rctx *model.RequestContext, id string) (model.Artisan, error) {
	return e.transitionArtisan(ctx, rctx, id, model.ArtisanSuspended, model.ArtisanApproved, "",
		func(a *model.Artisan, now time.Time) {
			a.ApprovedAt = &now
			a.ApprovedBy = actorFor(rctx)
		})
}

// VerifyIDProof marks the identity proof verified. Metadata only, no status
// transition.
func (e *Engine) VerifyIDProof(ctx context.Context, rctx *model.RequestContext, id string) (model.Artisan, error) {
	artisan, err := e.artisans.Get(ctx, id)
	if err != nil {
		return model.Artisan{}, err
	}
	if artisan.IDProof == nil {
		return model.Artisan{}, model.NewMissingFieldError("id_proof")
	}

	now := time.Now().UTC()
	artisan.IDProof.Verified = true
	artisan.IDProof.VerifiedAt = &now
	artisan.UpdatedAt = now

	if err := e.artisans.Update(ctx, artisan); err != nil {
		return model.Artisan{}, err
	}
	artisan.Version++

	e.publish(ctx, notify.NewEvent(notify.EventArtisanVerified, actorFor(rctx), artisan.ID,
		notify.VerifiedPayload{Kind: "id_proof"}))
	return artisan, nil
}

// VerifyBank marks the bank details verified. Bank details must be on file.
func (e *Engine) VerifyBank(ctx context.Context, rctx *model.RequestContext, id, verificationNotes string) (model.Artisan, error) {
	artisan, err := e.artisans.Get(ctx, id)
	if err != nil {
		return model.Artisan{}, err
	}
	if artisan.BankDetails == nil {
		return model.Artisan{}, model.NewMissingFieldError("bank_details")
	}

	now := time.Now().UTC()
	artisan.BankDetails.Verified = true
	artisan.BankDetails.VerifiedAt = &now
	if verificationNotes != "" {
		artisan.BankDetails.Notes = verificationNotes
	}
	artisan.UpdatedAt = now

	if err := e.artisans.Update(ctx, artisan); err != nil {
		return model.Artisan{}, err
	}
	artisan.Version++

	e.publish(ctx, notify.NewEvent(notify.EventArtisanVerified, actorFor(rctx), artisan.ID,
		notify.VerifiedPayload{Kind: "bank_details", Notes: verificationNotes}))
	return artisan, nil
}

// GetArtisan returns one artisan.
func (e *Engine) GetArtisan(ctx context.Context, id string) (model.Artisan, error) {
	return e.artisans.Get(ctx, id)
}

// ListArtisans returns artisans matching the filter parameters.
func (e *Engine) ListArtisans(ctx context.Context, p query.Params) ([]model.Artisan, query.Pagination, error) {
	return e.artisans.List(ctx, p)
}

// ArtisanStats returns artisan counts by status.
func (e *Engine) ArtisanStats(ctx context.Context) (StatusCounts, error) {
	counts, err := e.artisans.CountByStatus(ctx)
	if err != nil {
		return StatusCounts{}, err
	}
	out := StatusCounts{ByStatus: make(map[string]int, len(counts))}
	for status, n := range counts {
		out.ByStatus[string(status)] = n
		out.Total += n
	}
	return out, nil
}
