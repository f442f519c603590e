package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"url-upload-bot/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
create table if not exists transfers (
	transfer_id text primary key,
	user_id     integer not null,
	chat_id     integer not null,
	file_name   text not null,
	file_size   integer not null,
	source_url  text not null,
	created_at  timestamp not null
);
create table if not exists users (
	user_id    integer primary key,
	chat_id    integer not null,
	name       text not null,
	updated_at timestamp not null
);`

type SQLiteRecorder struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

type dbTransfer struct {
	ID        string    `db:"transfer_id"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Filename  string    `db:"file_name"`
	Size      int64     `db:"file_size"`
	URL       string    `db:"source_url"`
	CreatedAt time.Time `db:"created_at"`
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteRecorder, error) {
	if path == "" {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to open sqlite", Err: fmt.Errorf("empty path")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to create database directory", Info: path, Err: err}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to open sqlite", Info: path, Err: err}
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, &pkg.ErrDBProcedure{Cause: "failed to migrate schema", Err: err}
	}

	return &SQLiteRecorder{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func (r *SQLiteRecorder) RecordTransfer(ctx context.Context, transfer Transfer) error {
	transfer = withDefaults(transfer)
	row := dbTransfer{
		ID:        transfer.ID.String(),
		UserID:    transfer.UserID,
		ChatID:    transfer.ChatID,
		Filename:  transfer.Filename,
		Size:      transfer.Size,
		URL:       transfer.URL,
		CreatedAt: transfer.CreatedAt,
	}

	query := `insert into transfers (transfer_id, user_id, chat_id, file_name, file_size, source_url, created_at)
		values (:transfer_id, :user_id, :chat_id, :file_name, :file_size, :source_url, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, &row); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to insert transfer",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}
	return nil
}

func (r *SQLiteRecorder) RegisterUser(ctx context.Context, user User) error {
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

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to upsert user",
			Info:  fmt.Sprintf("userID: %d", user.UserID),
			Err:   err,
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecentTransfers(ctx context.Context, userID int64, limit uint64) ([]Transfer, error) {
	query, args, err := r.sb.
		Select("transfer_id", "user_id", "chat_id", "file_name", "file_size", "source_url", "created_at").
		From("transfers").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	var rows []dbTransfer
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select transfers",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}

	transfers := make([]Transfer, len(rows))
	for i, row := range rows {
		transfers[i] = Transfer{
			UserID:    row.UserID,
			ChatID:    row.ChatID,
			Filename:  row.Filename,
			Size:      row.Size,
			URL:       row.URL,
			CreatedAt: row.CreatedAt,
		}
		if id, err := uuid.Parse(row.ID); err == nil {
			transfers[i].ID = id
		}
	}
	return transfers, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
