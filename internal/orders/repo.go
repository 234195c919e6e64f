package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence the Service needs. Repo is the Postgres implementation.
type Store interface {
	Get(ctx context.Context, id string) (Order, error)
	Insert(ctx context.Context, o Order) error
	// UpdateTransition writes next only if the row is still in expected; otherwise ErrConflict.
	UpdateTransition(ctx context.Context, next Order, expected Status) error
	ListByBusiness(ctx context.Context, businessID string, f Filter) ([]Order, error)
}

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, status, total_amount, knoott_received_amount, povider_received_amount,
	product_id, variant_option_id, address_id, user_id, business_id, payment_ref,
	cancelation_reason, shipping_guide_url,
	created_at, verified_at, paid_at, shipped_at, delivered_at, canceled_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &status, &o.TotalAmount, &o.KnoottReceivedAmount, &o.ProviderReceivedAmount,
		&o.ProductID, &o.VariantOptionID, &o.AddressID, &o.UserID, &o.BusinessID, &o.PaymentRef,
		&o.CancelationReason, &o.ShippingGuideURL,
		&o.CreatedAt, &o.VerifiedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt, &o.CanceledAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

// Get returns ErrNotFound for ids that are not UUIDs, which the id column cannot hold.
func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (r *Repo) Insert(ctx context.Context, o Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, status, total_amount, knoott_received_amount, povider_received_amount,
			product_id, variant_option_id, address_id, user_id, business_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
		o.ID, string(o.Status), o.TotalAmount, o.KnoottReceivedAmount, o.ProviderReceivedAmount,
		o.ProductID, o.VariantOptionID, o.AddressID, o.UserID, o.BusinessID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

// UpdateTransition only touches status, stage timestamps and action payload fields.
func (r *Repo) UpdateTransition(ctx context.Context, next Order, expected Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET
			status = $3,
			verified_at = $4, paid_at = $5, shipped_at = $6, delivered_at = $7, canceled_at = $8,
			cancelation_reason = $9, shipping_guide_url = $10, payment_ref = $11,
			updated_at = $12
		WHERE id = $1 AND status = $2`,
		next.ID, string(expected), string(next.Status),
		next.VerifiedAt, next.PaidAt, next.ShippedAt, next.DeliveredAt, next.CanceledAt,
		next.CancelationReason, next.ShippingGuideURL, next.PaymentRef,
		next.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order %s: %w", next.ID, err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: order %s is no longer %s", ErrConflict, next.ID, expected)
	}
	return nil
}

func (r *Repo) ListByBusiness(ctx context.Context, businessID string, f Filter) ([]Order, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE business_id=$1`
	args := []any{businessID}
	if f.Status != "" {
		q += ` AND status=$2`
		args = append(args, string(f.Status))
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
