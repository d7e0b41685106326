package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/store"
)

func (d *DB) UpsertBoard(ctx context.Context, upsert *store.Board) (*store.Board, error) {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO workspace_board (user_key, tasks_json, updated_ts)
		VALUES (?, ?, ?)
		ON CONFLICT(user_key) DO UPDATE SET
			tasks_json = excluded.tasks_json,
			updated_ts = excluded.updated_ts`,
		upsert.UserKey, upsert.TasksJSON, now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert board")
	}
	upsert.UpdatedTs = now
	return upsert, nil
}

func (d *DB) GetBoard(ctx context.Context, userKey string) (*store.Board, error) {
	board := &store.Board{}
	err := d.db.QueryRowContext(ctx,
		`SELECT user_key, tasks_json, updated_ts FROM workspace_board WHERE user_key = ?`,
		userKey,
	).Scan(&board.UserKey, &board.TasksJSON, &board.UpdatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query board")
	}
	return board, nil
}
