package repository

import (
	"context"
	"testing"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteSessionRepo(db)
	ctx := context.Background()

	sess := testutil.NewTestSession("user-1", testutil.WithSessionID("sess-abc"))
	require.NoError(t, repo.Create(ctx, sess))

	got, err := repo.GetByID(ctx, "sess-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
}

func TestSessionRepo_GetByID_NotFound(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepo_DuplicateIDRejected(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("u", testutil.WithSessionID("dup"))))
	assert.Error(t, repo.Create(ctx, testutil.NewTestSession("u", testutil.WithSessionID("dup"))))
}

func TestSessionRepo_ListByUser(t *testing.T) {
	repo := NewSQLiteSessionRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("alice")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("alice")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("bob")))

	list, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSessionRepo_DeleteCascadesInteractions(t *testing.T) {
	db := testutil.NewTestDB(t)
	sessions := NewSQLiteSessionRepo(db)
	interactions := NewSQLiteInteractionRepo(db)
	ctx := context.Background()

	sess := testutil.NewTestSession("user-1")
	require.NoError(t, sessions.Create(ctx, sess))
	id, err := interactions.Create(ctx, testutil.NewTestInteraction(sess))
	require.NoError(t, err)

	require.NoError(t, sessions.Delete(ctx, sess.ID))

	_, err = interactions.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
