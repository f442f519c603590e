package history

import (
	"context"
	"fmt"
	"time"

	"url-upload-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx"
)

const postgresSchema = `
create table if not exists transfers (
	transfer_id uuid primary key,
	user_id     bigint not null,
	chat_id     bigint not null,
	file_name   text not null,
	file_size   bigint not null,
	source_url  text not null,
	created_at  timestamptz not null
);
create table if not exists users (
	user_id    bigint primary key,
	chat_id    bigint not null,
	name       text not null,
	updated_at timestamptz not null
);`

type PostgresRecorder struct {
	pool *pgx.ConnPool
	sb   sq.StatementBuilderType
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	connCfg, err := pgx.ParseConnectionString(dsn)
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to parse connection string", Err: err}
	}
	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{
		ConnConfig:     connCfg,
		MaxConnections: 4,
		AcquireTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to connect to postgres", Info: fmt.Sprintf("host: %s", connCfg.Host), Err: err}
	}

	r := &PostgresRecorder{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if _, err := pool.ExecEx(ctx, postgresSchema, nil); err != nil {
		pool.Close()
		return nil, &pkg.ErrDBProcedure{Cause: "failed to migrate schema", Err: err}
	}
	return r, nil
}

func (r *PostgresRecorder) RecordTransfer(ctx context.Context, transfer Transfer) error {
	transfer = withDefaults(transfer)
	query, args, err := r.sb.
		Insert("transfers").
		Columns("transfer_id", "user_id", "chat_id", "file_name", "file_size", "source_url", "created_at").
		Values(transfer.ID.String(), transfer.UserID, transfer.ChatID, transfer.Filename, transfer.Size, transfer.URL, transfer.CreatedAt).
		ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	if _, err := r.pool.ExecEx(ctx, query, nil, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to insert transfer",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}
	return nil
}

func (r *PostgresRecorder) RegisterUser(ctx context.Context, user User) error {
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now().UTC()
	}
	query, args, err := r.sb.
		Insert("users").
		Columns("user_id", "chat_id", "name", "updated_at").
		Values(user.UserID, user.ChatID, user.Name, user.UpdatedAt).
		Suffix("on conflict (user_id) do update set chat_id = excluded.chat_id, name = excluded.name, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	if _, err := r.pool.ExecEx(ctx, query, nil, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to upsert user",
			Info:  fmt.Sprintf("userID: %d", user.UserID),
			Err:   err,
		}
	}
	return nil
}

func (r *PostgresRecorder) RecentTransfers(ctx context.Context, userID int64, limit uint64) ([]Transfer, error) {
	query, args, err := r.sb.
		Select("transfer_id::text", "user_id", "chat_id", "file_name", "file_size", "source_url", "created_at").
		From("transfers").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	rows, err := r.pool.QueryEx(ctx, query, nil, args...)
	if err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select transfers",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var (
			t  Transfer
			id string
		)
		if err := rows.Scan(&id, &t.UserID, &t.ChatID, &t.Filename, &t.Size, &t.URL, &t.CreatedAt); err != nil {
			return nil, &pkg.ErrDBProcedure{Cause: "failed to scan transfer", Err: err}
		}
		if parsed, err := uuid.Parse(id); err == nil {
			t.ID = parsed
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to iterate transfers", Err: err}
	}
	return transfers, nil
}

func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
