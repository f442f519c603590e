package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transfer is one completed download-and-upload.
type Transfer struct {
	ID        uuid.UUID
	UserID    int64
	ChatID    int64
	Filename  string
	Size      int64
	URL       string
	CreatedAt time.Time
}

// User is an entry of the registry written on /start.
type User struct {
	UserID    int64
	ChatID    int64
	Name      string
	UpdatedAt time.Time
}

// Recorder is the optional persistence collaborator. The bot behaves the
// same whether it is backed by a database or by Nop.
type Recorder interface {
	RecordTransfer(ctx context.Context, transfer Transfer) error
	RegisterUser(ctx context.Context, user User) error
	RecentTransfers(ctx context.Context, userID int64, limit uint64) ([]Transfer, error)
	Close() error
}

type Nop struct{}

func (Nop) RecordTransfer(context.Context, Transfer) error {
	return nil
}

func (Nop) RegisterUser(context.Context, User) error {
	return nil
}

func (Nop) Close() error {
	return nil
}

func (Nop) RecentTransfers(context.Context, int64, uint64) ([]Transfer, error) {
	return nil, nil
}

// Open picks a backend from the DSN scheme: postgres:// or postgresql://
// for PostgreSQL, sqlite:// for a SQLite file. An empty DSN yields Nop.
func Open(ctx context.Context, dsn string) (Recorder, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return Nop{}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", schemeOf(dsn))
	}
}

func schemeOf(dsn string) string {
	if i := strings.Index(dsn, "://"); i > 0 {
		return dsn[:i]
	}
	return ""
}

func withDefaults(t Transfer) Transfer {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return t
}
