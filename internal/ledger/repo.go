package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Kind string

const (
	KindCommission       Kind = "commission"
	KindPayoutPending    Kind = "payout_pending"
	KindPayoutReleasable Kind = "payout_releasable"
	KindCancelReview     Kind = "cancel_review"
)

// Entry is one accounting line derived from an order transition. Amount is in minor units.
type Entry struct {
	ID         string
	OrderID    string
	BusinessID string
	Kind       Kind
	Amount     int64
	CreatedAt  time.Time
}

type Repo struct{ DB *pgxpool.Pool }

// Record inserts entries in one transaction. Entries already written for the same
// order and kind are skipped, so redelivered events are harmless.
func (r *Repo) Record(ctx context.Context, entries []Entry) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions(id, order_id, business_id, kind, amount, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (order_id, kind) DO NOTHING`,
			e.ID, e.OrderID, e.BusinessID, string(e.Kind), e.Amount, e.CreatedAt); err != nil {
			return fmt.Errorf("record %s for order %s: %w", e.Kind, e.OrderID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) ListByBusiness(ctx context.Context, businessID string) ([]Entry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, business_id, kind, amount, created_at
		FROM transactions WHERE business_id=$1 ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.BusinessID, &kind, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
