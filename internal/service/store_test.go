package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mosinatet/commspec/internal/models"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewGormStore(gdb), mock
}

func TestGormStoreGetPostByID(t *testing.T) {
	store, mock := newMockStore(t)

	scheduled := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM "scheduled_posts" WHERE post_id =`).
		WithArgs("P12345678", 1).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "platform", "scheduled_time", "status", "event_id"}).
			AddRow("P12345678", "devto", scheduled, "Scheduled", "EVT001"))

	post, err := store.GetPostByID(context.Background(), "P12345678")
	require.NoError(t, err)
	require.Equal(t, "devto", post.Platform)
	require.Equal(t, models.PostStatusScheduled, post.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetPostByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM "scheduled_posts" WHERE post_id =`).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}))

	_, err := store.GetPostByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreListPostsByStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM "scheduled_posts" WHERE status =`).
		WithArgs("Scheduled").
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "platform", "status"}).
			AddRow("P00000001", "devto", "Scheduled").
			AddRow("P00000002", "twitter", "Scheduled"))

	posts, err := store.ListPostsByStatus(context.Background(), models.PostStatusScheduled)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetComment(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM "comments" WHERE comment_id =`).
		WithArgs("c42", 1).
		WillReturnRows(sqlmock.NewRows([]string{"comment_id", "post_id", "response_status", "retry_count"}).
			AddRow("c42", "P00000001", "Pending", 2))

	comment, err := store.GetComment(context.Background(), "c42")
	require.NoError(t, err)
	require.Equal(t, models.ResponseStatusPending, comment.ResponseStatus)
	require.Equal(t, 2, comment.RetryCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorePostStatusCounts(t *testing.T) {
	store, mock := newMockStore(t)

	for _, n := range []int64{3, 2, 1, 0} {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "scheduled_posts" WHERE status =`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
	}

	counts, err := store.PostStatusCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), counts[models.PostStatusScheduled])
	require.Equal(t, int64(2), counts[models.PostStatusPublished])
	require.Equal(t, int64(1), counts[models.PostStatusFailed])
	require.Equal(t, int64(0), counts[models.PostStatusCancelled])
	require.NoError(t, mock.ExpectationsWereMet())
}
