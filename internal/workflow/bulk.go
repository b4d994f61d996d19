package workflow

import (
	"context"
	"errors"

	"github.com/ESAditya1729/tantika/model"
)

// ArtisanAction names a bulk-applicable artisan operation.
type ArtisanAction string

const (
	ActionApprove    ArtisanAction = "approve"
	ActionReject     ArtisanAction = "reject"
	ActionSuspend    ArtisanAction = "suspend"
	ActionReactivate ArtisanAction = "reactivate"
)

func (a ArtisanAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionSuspend, ActionReactivate:
		return true
	}
	return false
}

// BulkFailure records one item that could not be processed.
type BulkFailure struct {
	ID    string               `json:"id"`
	Error *model.ErrorEnvelope `json:"error"`
}

// BulkResult reports the outcome of a bulk operation. Succeeded and Failed
// together cover every distinct requested id, in request order.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// dedupIDs returns the distinct ids preserving first-occurrence order.
func dedupIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func envelopeFor(err error) *model.ErrorEnvelope {
	var env *model.ErrorEnvelope
	if errors.As(err, &env) {
		return env
	}
	return model.NewInternalError()
}

// BulkTransitionOrders applies the same status transition to each order.
// Items are processed independently: one illegal transition, missing order,
// or version conflict never stops the rest of the batch.
func (e *Engine) BulkTransitionOrders(
	ctx context.Context,
	rctx *model.RequestContext,
	ids []string,
	target model.OrderStatus,
	reason, notes string,
) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, model.NewMissingFieldError("ids")
	}

	result := BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, id := range dedupIDs(ids) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := e.TransitionOrder(ctx, rctx, id, target, reason, notes); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: envelopeFor(err)})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	if e.metrics != nil {
		e.metrics.BulkItemsTotal.WithLabelValues("order", "ok").Add(float64(len(result.Succeeded)))
		e.metrics.BulkItemsTotal.WithLabelValues("order", "failed").Add(float64(len(result.Failed)))
	}
	return result, nil
}

// BulkArtisanAction applies one named artisan action to each artisan with
// the same per-item isolation as BulkTransitionOrders. reason feeds the
// rejection or suspension reason for those actions.
func (e *Engine) BulkArtisanAction(
	ctx context.Context,
	rctx *model.RequestContext,
	ids []string,
	action ArtisanAction,
	reason string,
) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, model.NewMissingFieldError("ids")
	}
	if !action.Valid() {
		return BulkResult{}, model.NewValidationError(model.FieldError{
			Field: "action", Code: "invalid", Message: "unknown bulk action",
		})
	}

	result := BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, id := range dedupIDs(ids) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var err error
		switch action {
		case ActionApprove:
			_, err = e.ApproveArtisan(ctx, rctx, id, "")
		case ActionReject:
			_, err = e.RejectArtisan(ctx, rctx, id, reason)
		case ActionSuspend:
			_, err = e.SuspendArtisan(ctx, rctx, id, reason)
		case ActionReactivate:
			_, err = e.ReactivateArtisan(ctx, rctx, id)
		}
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: envelopeFor(err)})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	if e.metrics != nil {
		e.metrics.BulkItemsTotal.WithLabelValues("artisan", "ok").Add(float64(len(result.Succeeded)))
		e.metrics.BulkItemsTotal.WithLabelValues("artisan", "failed").Add(float64(len(result.Failed)))
	}
	return result, nil
}
