package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/store"
)

func (d *DB) UpsertHolding(ctx context.Context, upsert *store.Holding) (*store.Holding, error) {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO portfolio_holding (user_id, symbol, shares, cost_basis, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, symbol) DO UPDATE SET
			shares = excluded.shares,
			cost_basis = excluded.cost_basis,
			updated_ts = excluded.updated_ts`,
		upsert.UserID, upsert.Symbol, upsert.Shares, upsert.CostBasis, now, now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert holding")
	}

	holdings, err := d.ListHoldings(ctx, &store.FindHolding{UserID: &upsert.UserID, Symbol: &upsert.Symbol})
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, errors.New("holding not found after upsert")
	}
	return holdings[0], nil
}

func (d *DB) ListHoldings(ctx context.Context, find *store.FindHolding) ([]*store.Holding, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.Symbol; v != nil {
		where, args = append(where, "symbol = ?"), append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, symbol, shares, cost_basis, created_ts, updated_ts
		FROM portfolio_holding
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY symbol`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list holdings")
	}
	defer rows.Close()

	var holdings []*store.Holding
	for rows.Next() {
		h := &store.Holding{}
		if err := rows.Scan(&h.ID, &h.UserID, &h.Symbol, &h.Shares, &h.CostBasis, &h.CreatedTs, &h.UpdatedTs); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (d *DB) DeleteHolding(ctx context.Context, delete *store.DeleteHolding) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM portfolio_holding WHERE user_id = ? AND symbol = ?`,
		delete.UserID, delete.Symbol,
	)
	return errors.Wrap(err, "failed to delete holding")
}
