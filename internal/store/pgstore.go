package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ESAditya1729/tantika/internal/query"
	"github.com/ESAditya1729/tantika/model"
)

// PgOrderStore is a PostgreSQL-backed OrderStore using pgx/v5. Snapshot
// sub-records (customer, items, history, contacts) are stored as jsonb; the
// row carries scalar columns for everything the query layer filters or
// sorts on.
type PgOrderStore struct {
	pool *pgxpool.Pool
}

// NewPgOrderStore creates a new PostgreSQL order store.
func NewPgOrderStore(pool *pgxpool.Pool) *PgOrderStore {
	return &PgOrderStore{pool: pool}
}

// HealthCheck pings the underlying pool.
func (s *PgOrderStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const orderColumns = `id, order_number, status, customer, items,
	subtotal, tax, discount, shipping, total,
	payment_method, payment_status, history, contacts,
	version, created_at, updated_at`

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	var customer, items, history, contacts []byte

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Status, &customer, &items,
		&o.Subtotal, &o.Tax, &o.Discount, &o.Shipping, &o.Total,
		&o.Payment.Method, &o.Payment.Status, &history, &contacts,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return model.Order{}, err
	}

	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(history, &o.History); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal history: %w", err)
	}
	if err := json.Unmarshal(contacts, &o.Contacts); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal contacts: %w", err)
	}
	return o, nil
}

func orderJSON(o model.Order) (customer, items, history, contacts []byte, err error) {
	if customer, err = json.Marshal(o.Customer); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal customer: %w", err)
	}
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	if history, err = json.Marshal(o.History); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal history: %w", err)
	}
	if contacts, err = json.Marshal(o.Contacts); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal contacts: %w", err)
	}
	return customer, items, history, contacts, nil
}

// Create inserts a new order.
func (s *PgOrderStore) Create(ctx context.Context, o model.Order) error {
	customer, items, history, contacts, err := orderJSON(o)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, status, customer, items,
			subtotal, tax, discount, shipping, total,
			payment_method, payment_status, history, contacts,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17
		)`,
		o.ID, o.OrderNumber, o.Status, customer, items,
		o.Subtotal, o.Tax, o.Discount, o.Shipping, o.Total,
		o.Payment.Method, o.Payment.Status, history, contacts,
		o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get retrieves an order by ID.
func (s *PgOrderStore) Get(ctx context.Context, id string) (model.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return model.Order{}, model.NewNotFoundError(fmt.Sprintf("order %q not found", id))
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

// Update persists an updated order with optimistic locking.
func (s *PgOrderStore) Update(ctx context.Context, o model.Order) error {
	customer, items, history, contacts, err := orderJSON(o)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET
			status = $1, customer = $2, items = $3,
			subtotal = $4, tax = $5, discount = $6, shipping = $7, total = $8,
			payment_method = $9, payment_status = $10,
			history = $11, contacts = $12,
			version = $13, updated_at = $14
		WHERE id = $15 AND version = $16`,
		o.Status, customer, items,
		o.Subtotal, o.Tax, o.Discount, o.Shipping, o.Total,
		o.Payment.Method, o.Payment.Status,
		history, contacts,
		o.Version+1, o.UpdatedAt,
		o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(fmt.Sprintf(
			"order %q version conflict (expected %d)", o.ID, o.Version))
	}
	return nil
}

// List returns orders matching the filter parameters. The WHERE clause and
// ORDER BY are built from the normalized params; pagination runs in SQL over
// the fully filtered set.
func (s *PgOrderStore) List(ctx context.Context, p query.Params) ([]model.Order, query.Pagination, error) {
	p = p.Normalize()

	where, args := orderWhere(p, time.Now())

	var total int
	countSQL := `SELECT COUNT(*) FROM orders` + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, query.Pagination{}, fmt.Errorf("count orders: %w", err)
	}

	listSQL := `SELECT ` + orderColumns + ` FROM orders` + where +
		orderOrderBy(p.Sort) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, p.Limit, (p.Page-1)*p.Limit)

	rows, err := s.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, query.Pagination{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, query.Pagination{}, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, query.Pagination{}, fmt.Errorf("list orders: %w", err)
	}

	pages := (total + p.Limit - 1) / p.Limit
	return orders, query.Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}, nil
}

// orderWhere builds the WHERE clause for the order search, status, and date
// range filters. Search covers the fixed field set: order number, customer
// name/email/phone, and the product and artisan name snapshots of each line
// item. Other item fields (ids, image URLs) are not searched.
func orderWhere(p query.Params, now time.Time) (string, []any) {
	var conds []string
	var args []any

	if term := strings.TrimSpace(p.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(
			order_number ILIKE $%d OR customer->>'name' ILIKE $%d OR
			customer->>'email' ILIKE $%d OR customer->>'phone' ILIKE $%d OR
			EXISTS (
				SELECT 1 FROM jsonb_array_elements(items) item
				WHERE item->>'name' ILIKE $%d OR item->>'artisan_name' ILIKE $%d
			))`, n, n, n, n, n, n))
	}
	if p.Status != query.StatusAll {
		args = append(args, p.Status)
		conds = append(conds, fmt.Sprintf(`status = $%d`, len(args)))
	}
	if start, bounded := query.RangeStart(p.DateRange, now); bounded {
		args = append(args, start)
		conds = append(conds, fmt.Sprintf(`created_at >= $%d`, len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// statusRankCase builds a CASE expression ranking statuses by lifecycle
// position, so the status sort matches the in-memory query layer instead of
// collating alphabetically.
func statusRankCase[S ~string](statuses []S) string {
	var b strings.Builder
	b.WriteString(`CASE status`)
	for i, s := range statuses {
		fmt.Fprintf(&b, ` WHEN '%s' THEN %d`, string(s), i)
	}
	fmt.Fprintf(&b, ` ELSE %d END`, len(statuses))
	return b.String()
}

func orderOrderBy(sortKey string) string {
	switch sortKey {
	case query.SortOldest:
		return ` ORDER BY created_at ASC, id ASC`
	case query.SortPriceHigh:
		return ` ORDER BY total DESC, created_at ASC, id ASC`
	case query.SortPriceLow:
		return ` ORDER BY total ASC, created_at ASC, id ASC`
	case query.SortStatus:
		return ` ORDER BY ` + statusRankCase(model.OrderStatuses) + `, created_at ASC, id ASC`
	default:
		return ` ORDER BY created_at DESC, id ASC`
	}
}

// CountByStatus returns the number of orders per status.
func (s *PgOrderStore) CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int)
	for rows.Next() {
		var status model.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// PgArtisanStore is a PostgreSQL-backed ArtisanStore.
type PgArtisanStore struct {
	pool *pgxpool.Pool
}

// NewPgArtisanStore creates a new PostgreSQL artisan store.
func NewPgArtisanStore(pool *pgxpool.Pool) *PgArtisanStore {
	return &PgArtisanStore{pool: pool}
}

// HealthCheck pings the underlying pool.
func (s *PgArtisanStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const artisanColumns = `id, user_id, status, business_name, full_name,
	specializations, years_experience, address, email, phone,
	id_proof, bank_details, admin_notes,
	approved_at, approved_by, rejected_at, rejection_reason,
	suspended_at, suspension_reason, performance,
	version, created_at, updated_at`

func scanArtisan(row pgx.Row) (model.Artisan, error) {
	var a model.Artisan
	var specializations, idProof, bankDetails, performance []byte

	err := row.Scan(
		&a.ID, &a.UserID, &a.Status, &a.BusinessName, &a.FullName,
		&specializations, &a.YearsExperience, &a.Address, &a.Email, &a.Phone,
		&idProof, &bankDetails, &a.AdminNotes,
		&a.ApprovedAt, &a.ApprovedBy, &a.RejectedAt, &a.RejectionReason,
		&a.SuspendedAt, &a.SuspensionReason, &performance,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Artisan{}, err
	}

	if err := json.Unmarshal(specializations, &a.Specializations); err != nil {
		return model.Artisan{}, fmt.Errorf("unmarshal specializations: %w", err)
	}
	if len(idProof) > 0 && string(idProof) != "null" {
		if err := json.Unmarshal(idProof, &a.IDProof); err != nil {
			return model.Artisan{}, fmt.Errorf("unmarshal id proof: %w", err)
		}
	}
	if len(bankDetails) > 0 && string(bankDetails) != "null" {
		if err := json.Unmarshal(bankDetails, &a.BankDetails); err != nil {
			return model.Artisan{}, fmt.Errorf("unmarshal bank details: %w", err)
		}
	}
	if err := json.Unmarshal(performance, &a.Performance); err != nil {
		return model.Artisan{}, fmt.Errorf("unmarshal performance: %w", err)
	}
	return a, nil
}

func artisanJSON(a model.Artisan) (specializations, idProof, bankDetails, performance []byte, err error) {
	if a.Specializations == nil {
		a.Specializations = []string{}
	}
	if specializations, err = json.Marshal(a.Specializations); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal specializations: %w", err)
	}
	if idProof, err = json.Marshal(a.IDProof); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal id proof: %w", err)
	}
	if bankDetails, err = json.Marshal(a.BankDetails); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal bank details: %w", err)
	}
	if performance, err = json.Marshal(a.Performance); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal performance: %w", err)
	}
	return specializations, idProof, bankDetails, performance, nil
}

// Create inserts a new artisan application record.
func (s *PgArtisanStore) Create(ctx context.Context, a model.Artisan) error {
	specializations, idProof, bankDetails, performance, err := artisanJSON(a)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO artisans (
			id, user_id, status, business_name, full_name,
			specializations, years_experience, address, email, phone,
			id_proof, bank_details, admin_notes,
			approved_at, approved_by, rejected_at, rejection_reason,
			suspended_at, suspension_reason, performance,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20,
			$21, $22, $23
		)`,
		a.ID, a.UserID, a.Status, a.BusinessName, a.FullName,
		specializations, a.YearsExperience, a.Address, a.Email, a.Phone,
		idProof, bankDetails, a.AdminNotes,
		a.ApprovedAt, a.ApprovedBy, a.RejectedAt, a.RejectionReason,
		a.SuspendedAt, a.SuspensionReason, performance,
		a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert artisan: %w", err)
	}
	return nil
}

// Get retrieves an artisan by ID.
func (s *PgArtisanStore) Get(ctx context.Context, id string) (model.Artisan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+artisanColumns+` FROM artisans WHERE id = $1`, id)

	a, err := scanArtisan(row)
	if err == pgx.ErrNoRows {
		return model.Artisan{}, model.NewNotFoundError(fmt.Sprintf("artisan %q not found", id))
	}
	if err != nil {
		return model.Artisan{}, fmt.Errorf("query artisan: %w", err)
	}
	return a, nil
}

// Update persists an updated artisan with optimistic locking.
func (s *PgArtisanStore) Update(ctx context.Context, a model.Artisan) error {
	specializations, idProof, bankDetails, performance, err := artisanJSON(a)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE artisans SET
			status = $1, business_name = $2, full_name = $3,
			specializations = $4, years_experience = $5,
			address = $6, email = $7, phone = $8,
			id_proof = $9, bank_details = $10, admin_notes = $11,
			approved_at = $12, approved_by = $13,
			rejected_at = $14, rejection_reason = $15,
			suspended_at = $16, suspension_reason = $17,
			performance = $18, version = $19, updated_at = $20
		WHERE id = $21 AND version = $22`,
		a.Status, a.BusinessName, a.FullName,
		specializations, a.YearsExperience,
		a.Address, a.Email, a.Phone,
		idProof, bankDetails, a.AdminNotes,
		a.ApprovedAt, a.ApprovedBy,
		a.RejectedAt, a.RejectionReason,
		a.SuspendedAt, a.SuspensionReason,
		performance, a.Version+1, a.UpdatedAt,
		a.ID, a.Version,
	)
	if err != nil {
		return fmt.Errorf("update artisan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(fmt.Sprintf(
			"artisan %q version conflict (expected %d)", a.ID, a.Version))
	}
	return nil
}

// List returns artisans matching the filter parameters.
func (s *PgArtisanStore) List(ctx context.Context, p query.Params) ([]model.Artisan, query.Pagination, error) {
	p = p.Normalize()

	where, args := artisanWhere(p, time.Now())

	var total int
	countSQL := `SELECT COUNT(*) FROM artisans` + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, query.Pagination{}, fmt.Errorf("count artisans: %w", err)
	}

	listSQL := `SELECT ` + artisanColumns + ` FROM artisans` + where +
		artisanOrderBy(p.Sort) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, p.Limit, (p.Page-1)*p.Limit)

	rows, err := s.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, query.Pagination{}, fmt.Errorf("list artisans: %w", err)
	}
	defer rows.Close()

	var artisans []model.Artisan
	for rows.Next() {
		a, err := scanArtisan(rows)
		if err != nil {
			return nil, query.Pagination{}, fmt.Errorf("scan artisan: %w", err)
		}
		artisans = append(artisans, a)
	}
	if err := rows.Err(); err != nil {
		return nil, query.Pagination{}, fmt.Errorf("list artisans: %w", err)
	}

	pages := (total + p.Limit - 1) / p.Limit
	return artisans, query.Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}, nil
}

func artisanWhere(p query.Params, now time.Time) (string, []any) {
	var conds []string
	var args []any

	if term := strings.TrimSpace(p.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(
			business_name ILIKE $%d OR full_name ILIKE $%d OR
			email ILIKE $%d OR phone ILIKE $%d OR
			EXISTS (
				SELECT 1 FROM jsonb_array_elements_text(specializations) spec
				WHERE spec ILIKE $%d
			))`, n, n, n, n, n))
	}
	if p.Status != query.StatusAll {
		args = append(args, p.Status)
		conds = append(conds, fmt.Sprintf(`status = $%d`, len(args)))
	}
	if start, bounded := query.RangeStart(p.DateRange, now); bounded {
		args = append(args, start)
		conds = append(conds, fmt.Sprintf(`created_at >= $%d`, len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func artisanOrderBy(sortKey string) string {
	switch sortKey {
	case query.SortOldest:
		return ` ORDER BY created_at ASC, id ASC`
	case query.SortStatus:
		return ` ORDER BY ` + statusRankCase(model.ArtisanStatuses) + `, created_at ASC, id ASC`
	default:
		return ` ORDER BY created_at DESC, id ASC`
	}
}

// CountByStatus returns the number of artisans per status.
func (s *PgArtisanStore) CountByStatus(ctx context.Context) (map[model.ArtisanStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM artisans GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count artisans by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.ArtisanStatus]int)
	for rows.Next() {
		var status model.ArtisanStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
