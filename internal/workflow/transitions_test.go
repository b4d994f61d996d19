package workflow

import (
	"testing"

	"github.com/ESAditya1729/tantika/model"
)

func TestCanTransitionOrder_legalEdges(t *testing.T) {
	legal := []struct {
		from, to model.OrderStatus
	}{
		{model.OrderPending, model.OrderContacted},
		{model.OrderPending, model.OrderConfirmed},
		{model.OrderPending, model.OrderCancelled},
		{model.OrderContacted, model.OrderConfirmed},
		{model.OrderContacted, model.OrderProcessing},
		{model.OrderContacted, model.OrderCancelled},
		{model.OrderConfirmed, model.OrderProcessing},
		{model.OrderConfirmed, model.OrderCancelled},
		{model.OrderProcessing, model.OrderShipped},
		{model.OrderProcessing, model.OrderCancelled},
		{model.OrderShipped, model.OrderDelivered},
		{model.OrderShipped, model.OrderCancelled},
	}
	for _, tc := range legal {
		if !CanTransitionOrder(tc.from, tc.to) {
			t.Errorf("CanTransitionOrder(%s, %s) = false, want true", tc.from, tc.to)
		}
	}
}

func TestCanTransitionOrder_illegalEdges(t *testing.T) {
	illegal := []struct {
		from, to model.OrderStatus
	}{
		{model.OrderPending, model.OrderShipped},
		{model.OrderPending, model.OrderDelivered},
		{model.OrderContacted, model.OrderShipped},
		{model.OrderConfirmed, model.OrderShipped},
		{model.OrderShipped, model.OrderProcessing}, // no going back
		{model.OrderDelivered, model.OrderShipped},
		{model.OrderDelivered, model.OrderCancelled},
		{model.OrderCancelled, model.OrderPending},
		{model.OrderRefunded, model.OrderPending},
		// refunded is never a direct target
		{model.OrderDelivered, model.OrderRefunded},
		{model.OrderCancelled, model.OrderRefunded},
	}
	for _, tc := range illegal {
		if CanTransitionOrder(tc.from, tc.to) {
			t.Errorf("CanTransitionOrder(%s, %s) = true, want false", tc.from, tc.to)
		}
	}
}

func TestCanTransitionOrder_selfLoops(t *testing.T) {
	for _, s := range model.OrderStatuses {
		if CanTransitionOrder(s, s) {
			t.Errorf("CanTransitionOrder(%s, %s) = true, self-loops are illegal", s, s)
		}
	}
}

func TestOrderTerminal(t *testing.T) {
	terminal := map[model.OrderStatus]bool{
		model.OrderDelivered: true,
		model.OrderCancelled: true,
		model.OrderRefunded:  true,
	}
	for _, s := range model.OrderStatuses {
		if got := OrderTerminal(s); got != terminal[s] {
			t.Errorf("OrderTerminal(%s) = %v, want %v", s, got, terminal[s])
		}
	}
}

func TestCanTransitionArtisan(t *testing.T) {
	cases := []struct {
		from, to model.ArtisanStatus
		want     bool
	}{
		{model.ArtisanPending, model.ArtisanApproved, true},
		{model.ArtisanPending, model.ArtisanRejected, true},
		{model.ArtisanPending, model.ArtisanSuspended, false},
		{model.ArtisanApproved, model.ArtisanSuspended, true},
		{model.ArtisanApproved, model.ArtisanRejected, false},
		{model.ArtisanApproved, model.ArtisanPending, false},
		{model.ArtisanSuspended, model.ArtisanApproved, true},
		{model.ArtisanSuspended, model.ArtisanRejected, false},
		{model.ArtisanRejected, model.ArtisanPending, false},
		{model.ArtisanRejected, model.ArtisanApproved, false},
	}
	for _, tc := range cases {
		if got := CanTransitionArtisan(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionArtisan(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}

	for _, s := range model.ArtisanStatuses {
		if CanTransitionArtisan(s, s) {
			t.Errorf("CanTransitionArtisan(%s, %s) = true, self-loops are illegal", s, s)
		}
	}
}

func TestArtisanTerminal(t *testing.T) {
	if !ArtisanTerminal(model.ArtisanRejected) {
		t.Error("rejected should be terminal")
	}
	for _, s := range []model.ArtisanStatus{model.ArtisanPending, model.ArtisanApproved, model.ArtisanSuspended} {
		if ArtisanTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	cases := []struct {
		from, to model.PaymentStatus
		want     bool
	}{
		{model.PaymentPending, model.PaymentPaid, true},
		{model.PaymentPending, model.PaymentFailed, true},
		{model.PaymentPending, model.PaymentRefunded, false},
		{model.PaymentFailed, model.PaymentPending, true},
		{model.PaymentFailed, model.PaymentPaid, false},
		{model.PaymentPaid, model.PaymentRefunded, true},
		{model.PaymentPaid, model.PaymentPending, false},
		{model.PaymentRefunded, model.PaymentPaid, false},
		{model.PaymentRefunded, model.PaymentPending, false},
	}
	for _, tc := range cases {
		if got := CanTransitionPayment(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionPayment(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
