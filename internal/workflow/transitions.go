// Package workflow is the single authority for order and artisan lifecycle
// changes. It validates transitions against static tables, enforces
// per-transition preconditions, records append-only audit history, and
// emits notification events after a mutation commits.
package workflow

import "github.com/ESAditya1729/tantika/model"

// orderNext maps each order status to the set of statuses it may move to.
// Terminal statuses map to the empty set. refunded is reachable only through
// the payment-gateway webhook path, never through the admin transition
// endpoint, so it does not appear as a target here.
var orderNext = map[model.OrderStatus]map[model.OrderStatus]bool{
	model.OrderPending:    {model.OrderContacted: true, model.OrderConfirmed: true, model.OrderCancelled: true},
	model.OrderContacted:  {model.OrderConfirmed: true, model.OrderProcessing: true, model.OrderCancelled: true},
	model.OrderConfirmed:  {model.OrderProcessing: true, model.OrderCancelled: true},
	model.OrderProcessing: {model.OrderShipped: true, model.OrderCancelled: true},
	model.OrderShipped:    {model.OrderDelivered: true, model.OrderCancelled: true},
	model.OrderDelivered:  {},
	model.OrderCancelled:  {},
	model.OrderRefunded:   {},
}

// artisanNext maps each artisan status to its legal targets. The
// suspended -> approved edge is only reachable through the named reactivate
// operation.
var artisanNext = map[model.ArtisanStatus]map[model.ArtisanStatus]bool{
	model.ArtisanPending:   {model.ArtisanApproved: true, model.ArtisanRejected: true},
	model.ArtisanApproved:  {model.ArtisanSuspended: true},
	model.ArtisanRejected:  {},
	model.ArtisanSuspended: {model.ArtisanApproved: true},
}

// paymentNext is the independent payment sub-record lifecycle. A failed
// payment may return to pending when the customer retries; a refund is only
// possible after payment.
var paymentNext = map[model.PaymentStatus]map[model.PaymentStatus]bool{
	model.PaymentPending:  {model.PaymentPaid: true, model.PaymentFailed: true},
	model.PaymentFailed:   {model.PaymentPending: true},
	model.PaymentPaid:     {model.PaymentRefunded: true},
	model.PaymentRefunded: {},
}

// refundableFrom lists the order statuses from which the external
// payment-gateway refund path may move an order to refunded.
var refundableFrom = map[model.OrderStatus]bool{
	model.OrderDelivered: true,
	model.OrderCancelled: true,
}

// CanTransitionOrder reports whether an order may move from one status to
// another. Self-loops are never legal.
func CanTransitionOrder(from, to model.OrderStatus) bool {
	return from != to && orderNext[from][to]
}

// CanTransitionArtisan reports whether an artisan may move from one status
// to another. Self-loops are never legal.
func CanTransitionArtisan(from, to model.ArtisanStatus) bool {
	return from != to && artisanNext[from][to]
}

// CanTransitionPayment reports whether the payment sub-record may move from
// one status to another.
func CanTransitionPayment(from, to model.PaymentStatus) bool {
	return from != to && paymentNext[from][to]
}

// OrderTerminal reports whether the status has no legal outgoing
// transitions.
func OrderTerminal(s model.OrderStatus) bool {
	return len(orderNext[s]) == 0
}

// ArtisanTerminal reports whether the status has no legal outgoing
// transitions.
func ArtisanTerminal(s model.ArtisanStatus) bool {
	return len(artisanNext[s]) == 0
}
