package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	now := time.Now().Unix()
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO user (username, email, password_hash, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?)`,
		create.Username, create.Email, create.PasswordHash, now, now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	create.ID = int32(id)
	create.CreatedTs = now
	create.UpdatedTs = now
	return create, nil
}

func (d *DB) GetUser(ctx context.Context, find *store.FindUser) (*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "username = ?"), append(args, *v)
	}
	if v := find.Email; v != nil {
		where, args = append(where, "email = ?"), append(args, *v)
	}

	user := &store.User{}
	err := d.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_ts, updated_ts
		FROM user
		WHERE `+strings.Join(where, " AND ")+`
		LIMIT 1`,
		args...,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedTs, &user.UpdatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query user")
	}
	return user, nil
}
