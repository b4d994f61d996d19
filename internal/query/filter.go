// Package query implements the read-side filter, sort, and pagination logic
// shared by the entity stores. All functions are pure: they operate on
// in-memory slices and never touch persistence.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/ESAditya1729/tantika/model"
)

// Sentinel status meaning "no status filter".
const StatusAll = "all"

// Date range keys.
const (
	RangeAll       = "all"
	RangeToday     = "today"
	RangeWeek      = "week"
	RangeMonth     = "month"
	RangeLastMonth = "lastMonth"
	RangeQuarter   = "quarter"
)

// Sort keys.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceHigh = "priceHigh"
	SortPriceLow  = "priceLow"
	SortStatus    = "status"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Params are the composable, all-optional filter dimensions. Filters apply
// in the order search, status, dateRange, then sort, then the pagination
// slice; pagination always operates on the fully filtered and sorted set.
type Params struct {
	Search    string
	Status    string
	DateRange string
	Sort      string
	Page      int
	Limit     int
}

// Normalize fills defaults and clamps the pagination bounds.
func (p Params) Normalize() Params {
	if p.Status == "" {
		p.Status = StatusAll
	}
	if p.DateRange == "" {
		p.DateRange = RangeAll
	}
	if p.Sort == "" {
		p.Sort = SortNewest
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Pagination is the page metadata returned alongside a result slice.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Orders applies p to the given orders. The input slice must be in insertion
// order; sorting is stable so ties keep that order.
func Orders(in []model.Order, p Params, now time.Time) ([]model.Order, Pagination) {
	p = p.Normalize()

	out := make([]model.Order, 0, len(in))
	start, bounded := RangeStart(p.DateRange, now)
	term := strings.ToLower(strings.TrimSpace(p.Search))
	for _, o := range in {
		if term != "" && !orderMatches(&o, term) {
			continue
		}
		if p.Status != StatusAll && string(o.Status) != p.Status {
			continue
		}
		if bounded && o.CreatedAt.Before(start) {
			continue
		}
		out = append(out, o)
	}

	sortOrders(out, p.Sort)

	page := paginationFor(len(out), p)
	return slicePage(out, p), page
}

// Artisans applies p to the given artisans. The priceHigh/priceLow sorts do
// not apply to artisans and fall back to newest.
func Artisans(in []model.Artisan, p Params, now time.Time) ([]model.Artisan, Pagination) {
	p = p.Normalize()

	out := make([]model.Artisan, 0, len(in))
	start, bounded := RangeStart(p.DateRange, now)
	term := strings.ToLower(strings.TrimSpace(p.Search))
	for _, a := range in {
		if term != "" && !artisanMatches(&a, term) {
			continue
		}
		if p.Status != StatusAll && string(a.Status) != p.Status {
			continue
		}
		if bounded && a.CreatedAt.Before(start) {
			continue
		}
		out = append(out, a)
	}

	sortArtisans(out, p.Sort)

	page := paginationFor(len(out), p)
	return slicePageArtisans(out, p), page
}

// orderMatches does a case-insensitive substring match across the fixed
// order search fields: order number, customer name/email/phone, and the
// product and artisan name snapshots of every line item.
func orderMatches(o *model.Order, term string) bool {
	if containsFold(o.OrderNumber, term) ||
		containsFold(o.Customer.Name, term) ||
		containsFold(o.Customer.Email, term) ||
		containsFold(o.Customer.Phone, term) {
		return true
	}
	for _, it := range o.Items {
		if containsFold(it.Name, term) || containsFold(it.ArtisanName, term) {
			return true
		}
	}
	return false
}

// artisanMatches searches business name, full name, email, phone, and
// specializations.
func artisanMatches(a *model.Artisan, term string) bool {
	if containsFold(a.BusinessName, term) ||
		containsFold(a.FullName, term) ||
		containsFold(a.Email, term) ||
		containsFold(a.Phone, term) {
		return true
	}
	for _, s := range a.Specializations {
		if containsFold(s, term) {
			return true
		}
	}
	return false
}

// containsFold reports whether s contains the already-lowercased term.
func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

// RangeStart resolves a date-range key to the start of a [start, now]
// window. The second return is false when the range is unbounded. "today"
// starts at local midnight; "lastMonth" starts at the first day of the
// previous calendar month.
func RangeStart(key string, now time.Time) (time.Time, bool) {
	switch key {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return now.AddDate(0, -1, 0), true
	case RangeLastMonth:
		y, m, _ := now.Date()
		return time.Date(y, m-1, 1, 0, 0, 0, 0, now.Location()), true
	case RangeQuarter:
		return now.AddDate(0, -3, 0), true
	default:
		return time.Time{}, false
	}
}

// orderStatusRank orders statuses by lifecycle position for the status sort.
func orderStatusRank(s model.OrderStatus) int {
	for i, v := range model.OrderStatuses {
		if s == v {
			return i
		}
	}
	return len(model.OrderStatuses)
}

func artisanStatusRank(s model.ArtisanStatus) int {
	for i, v := range model.ArtisanStatuses {
		if s == v {
			return i
		}
	}
	return len(model.ArtisanStatuses)
}

func sortOrders(orders []model.Order, key string) {
	switch key {
	case SortOldest:
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		})
	case SortPriceHigh:
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].Total > orders[j].Total
		})
	case SortPriceLow:
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].Total < orders[j].Total
		})
	case SortStatus:
		sort.SliceStable(orders, func(i, j int) bool {
			return orderStatusRank(orders[i].Status) < orderStatusRank(orders[j].Status)
		})
	default: // SortNewest
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		})
	}
}

func sortArtisans(artisans []model.Artisan, key string) {
	switch key {
	case SortOldest:
		sort.SliceStable(artisans, func(i, j int) bool {
			return artisans[i].CreatedAt.Before(artisans[j].CreatedAt)
		})
	case SortStatus:
		sort.SliceStable(artisans, func(i, j int) bool {
			return artisanStatusRank(artisans[i].Status) < artisanStatusRank(artisans[j].Status)
		})
	default:
		sort.SliceStable(artisans, func(i, j int) bool {
			return artisans[i].CreatedAt.After(artisans[j].CreatedAt)
		})
	}
}

func paginationFor(total int, p Params) Pagination {
	pages := (total + p.Limit - 1) / p.Limit
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

func pageBounds(total int, p Params) (int, int) {
	lo := (p.Page - 1) * p.Limit
	if lo > total {
		lo = total
	}
	hi := lo + p.Limit
	if hi > total {
		hi = total
	}
	return lo, hi
}

func slicePage(orders []model.Order, p Params) []model.Order {
	lo, hi := pageBounds(len(orders), p)
	return orders[lo:hi]
}

func slicePageArtisans(artisans []model.Artisan, p Params) []model.Artisan {
	lo, hi := pageBounds(len(artisans), p)
	return artisans[lo:hi]
}
