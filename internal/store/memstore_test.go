package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ESAditya1729/tantika/internal/query"
	"github.com/ESAditya1729/tantika/model"
)

func testOrder(id string, status model.OrderStatus) model.Order {
	now := time.Now().UTC()
	return model.Order{
		ID:          id,
		OrderNumber: "TNT-" + id,
		Status:      status,
		Customer:    model.Customer{Name: "Rina Das", Email: "rina@example.com"},
		Items:       []model.OrderItem{{ProductID: "p1", Name: "Dokra Figurine", UnitPrice: 120000, Quantity: 1}},
		Subtotal:    120000,
		Total:       120000,
		Payment:     model.Payment{Method: model.PaymentCOD, Status: model.PaymentPending},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testArtisan(id string, status model.ArtisanStatus) model.Artisan {
	now := time.Now().UTC()
	return model.Artisan{
		ID:           id,
		Status:       status,
		BusinessName: "Kantha Works",
		FullName:     "Anita Roy",
		Email:        "anita@example.com",
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemoryOrderStore_CreateGet(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testOrder("o1", model.OrderPending)))

	got, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "TNT-o1", got.OrderNumber)
	assert.Equal(t, int64(1), got.Version)
}

func TestMemoryOrderStore_CreateDuplicate(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testOrder("o1", model.OrderPending)))
	err := s.Create(ctx, testOrder("o1", model.OrderPending))
	assert.Equal(t, model.ErrConflict, model.ErrorCode(err))
}

func TestMemoryOrderStore_GetNotFound(t *testing.T) {
	s := NewMemoryOrderStore()

	_, err := s.Get(context.Background(), "missing")
	assert.Equal(t, model.ErrNotFound, model.ErrorCode(err))
}

func TestMemoryOrderStore_UpdateBumpsVersion(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testOrder("o1", model.OrderPending)))

	order, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	order.Status = model.OrderConfirmed
	require.NoError(t, s.Update(ctx, order))

	got, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemoryOrderStore_UpdateKeepsCallerTimestamp(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testOrder("o1", model.OrderPending)))

	order, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	stamp := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	order.Status = model.OrderConfirmed
	order.UpdatedAt = stamp
	require.NoError(t, s.Update(ctx, order))

	// The store must not restamp; the caller's copy and the row agree.
	got, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(stamp), "updated_at = %v, want %v", got.UpdatedAt, stamp)
}

func TestMemoryOrderStore_UpdateStaleVersion(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testOrder("o1", model.OrderPending)))

	// Two readers take the same snapshot.
	first, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	second, err := s.Get(ctx, "o1")
	require.NoError(t, err)

	first.Status = model.OrderContacted
	require.NoError(t, s.Update(ctx, first))

	// The second writer now holds a stale version.
	second.Status = model.OrderConfirmed
	err = s.Update(ctx, second)
	assert.Equal(t, model.ErrConflict, model.ErrorCode(err))

	got, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderContacted, got.Status, "losing write must not land")
}

func TestMemoryOrderStore_UpdateNotFound(t *testing.T) {
	s := NewMemoryOrderStore()
	err := s.Update(context.Background(), testOrder("ghost", model.OrderPending))
	assert.Equal(t, model.ErrNotFound, model.ErrorCode(err))
}

func TestMemoryOrderStore_List(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		o := testOrder(fmt.Sprintf("o%02d", i), model.OrderPending)
		if i%5 == 0 {
			o.Status = model.OrderShipped
		}
		require.NoError(t, s.Create(ctx, o))
	}

	out, page, err := s.List(ctx, query.Params{Status: "shipped", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Pages)
}

func TestMemoryOrderStore_CountByStatus(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testOrder("o1", model.OrderPending)))
	require.NoError(t, s.Create(ctx, testOrder("o2", model.OrderPending)))
	require.NoError(t, s.Create(ctx, testOrder("o3", model.OrderDelivered)))

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.OrderPending])
	assert.Equal(t, 1, counts[model.OrderDelivered])
}

func TestMemoryArtisanStore_CRUD(t *testing.T) {
	s := NewMemoryArtisanStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testArtisan("a1", model.ArtisanPending)))

	err := s.Create(ctx, testArtisan("a1", model.ArtisanPending))
	assert.Equal(t, model.ErrConflict, model.ErrorCode(err))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.ArtisanPending, got.Status)

	got.Status = model.ArtisanApproved
	require.NoError(t, s.Update(ctx, got))

	// Stale update conflicts.
	got.Version = 1
	got.Status = model.ArtisanSuspended
	err = s.Update(ctx, got)
	assert.Equal(t, model.ErrConflict, model.ErrorCode(err))

	_, err = s.Get(ctx, "nope")
	assert.Equal(t, model.ErrNotFound, model.ErrorCode(err))
}

func TestMemoryArtisanStore_ListAndCount(t *testing.T) {
	s := NewMemoryArtisanStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testArtisan("a1", model.ArtisanPending)))
	require.NoError(t, s.Create(ctx, testArtisan("a2", model.ArtisanApproved)))
	require.NoError(t, s.Create(ctx, testArtisan("a3", model.ArtisanApproved)))

	out, page, err := s.List(ctx, query.Params{Status: "approved"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 2, page.Total)

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.ArtisanPending])
	assert.Equal(t, 2, counts[model.ArtisanApproved])
}

func TestMemoryOrderStore_ConcurrentWriters(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testOrder("o1", model.OrderPending)))

	// Ten racers read the same version; exactly one write can win.
	const racers = 10
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func() {
			o, err := s.Get(ctx, "o1")
			if err != nil {
				errs <- err
				return
			}
			o.Status = model.OrderContacted
			errs <- s.Update(ctx, o)
		}()
	}

	wins := 0
	for i := 0; i < racers; i++ {
		if err := <-errs; err == nil {
			wins++
		} else {
			assert.Equal(t, model.ErrConflict, model.ErrorCode(err))
		}
	}
	assert.GreaterOrEqual(t, wins, 1)

	got, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(1+wins), got.Version)
}
