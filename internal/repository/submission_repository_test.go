package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yenja7/onboarding-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func strPtr(value string) *string {
	return &value
}

func TestSubmissionRepositoryCreateDefaultsToPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{
		OwnerID:  "owner-1",
		Category: models.CategoryRestaurant,
		Whatsapp: "+21612345678",
	}
	require.NoError(t, repo.Create(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.False(t, sub.CreatedAt.IsZero())
}

func TestSubmissionRepositoryListAllNewestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "category", "category_details", "business_name", "whatsapp", "opening_hours", "image_urls", "images_count", "status", "created_at", "updated_at"}).
		AddRow("sub-2", "owner-1", "cafe", []byte(`{}`), strPtr("Cafe Nour"), "+216", []byte(`{}`), []byte(`[]`), 0, "pending", now, now).
		AddRow("sub-1", "owner-2", "grocery", []byte(`{}`), strPtr("Tunis Market"), "+216", []byte(`{}`), []byte(`[]`), 2, "approved", now.Add(-time.Hour), now)
	mock.ExpectQuery("SELECT (.+) FROM submissions ORDER BY created_at DESC").
		WillReturnRows(rows)

	subs, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "sub-2", subs[0].ID)
	assert.Equal(t, models.StatusApproved, subs[1].Status)
}

func TestSubmissionRepositoryListAllWithStatusFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "category", "category_details", "whatsapp", "opening_hours", "image_urls", "images_count", "status", "created_at", "updated_at"})
	mock.ExpectQuery("SELECT (.+) FROM submissions WHERE status = ").
		WithArgs(models.StatusPending).
		WillReturnRows(rows)

	status := models.StatusPending
	subs, err := repo.ListAll(context.Background(), &status)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSubmissionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs("sub-1", models.StatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "sub-1", models.StatusApproved))
}

func TestSubmissionRepositoryUpdateStatusUnknownID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs("missing", models.StatusDeclined, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.StatusDeclined)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryListByIDsDeduplicatedBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "created_at", "updated_at"}).
		AddRow("owner-1", "a@b.c", "hash", "Owner One", "OWNER", true, now, now).
		AddRow("owner-2", "d@e.f", "hash", "Owner Two", "OWNER", true, now, now)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id IN").
		WithArgs("owner-1", "owner-2").
		WillReturnRows(rows)

	users, err := repo.ListByIDs(context.Background(), []string{"owner-1", "owner-2"})
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestUserRepositoryListByIDsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	users, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, users)
}

func TestChangeRequestRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeRequestRepository(db)
	mock.ExpectExec("INSERT INTO business_change_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.BusinessChangeRequest{
		OwnerID:      "owner-1",
		SubmissionID: "sub-1",
		Changes:      models.ChangeSet{"city": strPtr("Paris")},
	}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, models.ChangeRequestPending, req.Status)
	assert.NotEmpty(t, req.ID)
}
