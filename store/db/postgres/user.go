package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	now := time.Now().Unix()
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO "user" (username, email, password_hash, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		create.Username, create.Email, create.PasswordHash, now, now,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}

	create.CreatedTs = now
	create.UpdatedTs = now
	return create, nil
}

func (d *DB) GetUser(ctx context.Context, find *store.FindUser) (*store.User, error) {
	where, args := []string{"TRUE"}, []any{}
	if v := find.ID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if v := find.Username; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("username = $%d", len(args)))
	}
	if v := find.Email; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("email = $%d", len(args)))
	}

	user := &store.User{}
	err := d.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_ts, updated_ts
		FROM "user"
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
