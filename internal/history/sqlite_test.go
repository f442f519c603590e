package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"url-upload-bot/pkg"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteRecordTransfer(t *testing.T) {
	r := openTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, r.RecordTransfer(ctx, Transfer{UserID: 1, ChatID: 1, Filename: "a.pdf", Size: 10, URL: "https://e.com/a.pdf", CreatedAt: base}))
	require.NoError(t, r.RecordTransfer(ctx, Transfer{UserID: 1, ChatID: 1, Filename: "b.pdf", Size: 20, URL: "https://e.com/b.pdf", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, r.RecordTransfer(ctx, Transfer{UserID: 2, ChatID: 2, Filename: "c.pdf", Size: 30, URL: "https://e.com/c.pdf", CreatedAt: base}))

	transfers, err := r.RecentTransfers(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, "b.pdf", transfers[0].Filename)
	assert.Equal(t, int64(20), transfers[0].Size)
	assert.Equal(t, "a.pdf", transfers[1].Filename)
	assert.NotEqual(t, uuid.Nil, transfers[0].ID)
	assert.True(t, transfers[0].CreatedAt.Equal(base.Add(time.Minute)))

	limited, err := r.RecentTransfers(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecordTransferDuplicateID(t *testing.T) {
	r := openTestSQLite(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, r.RecordTransfer(ctx, Transfer{ID: id, UserID: 1, Filename: "a"}))
	err := r.RecordTransfer(ctx, Transfer{ID: id, UserID: 1, Filename: "a"})

	var dbErr *pkg.ErrDBProcedure
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "failed to insert transfer", dbErr.Cause)
}

func TestSQLiteRegisterUserUpserts(t *testing.T) {
	r := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, r.RegisterUser(ctx, User{UserID: 5, ChatID: 5, Name: "Ann"}))
	require.NoError(t, r.RegisterUser(ctx, User{UserID: 5, ChatID: 6, Name: "Anna"}))

	var (
		name   string
		chatID int64
		count  int
	)
	require.NoError(t, r.db.GetContext(ctx, &count, `select count(*) from users`))
	require.NoError(t, r.db.QueryRowxContext(ctx, `select name, chat_id from users where user_id = ?`, 5).Scan(&name, &chatID))
	assert.Equal(t, 1, count)
	assert.Equal(t, "Anna", name)
	assert.Equal(t, int64(6), chatID)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	r, err := Open(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, r)

	r, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "h.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRecorder{}, r)
	require.NoError(t, r.Close())

	_, err = Open(ctx, "mongodb://localhost/bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongodb")
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	ctx := context.Background()

	require.NoError(t, r.RecordTransfer(ctx, Transfer{}))
	require.NoError(t, r.RegisterUser(ctx, User{}))
	transfers, err := r.RecentTransfers(ctx, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, transfers)
	require.NoError(t, r.Close())
}
