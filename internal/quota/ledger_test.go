package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/repository"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func ledgerTestSetup(t *testing.T, now time.Time) (*Ledger, repository.InteractionRepo, *domain.Session) {
	t.Helper()
	database := testutil.NewTestDB(t)
	sess := testutil.NewTestSession("user-1")
	require.NoError(t, repository.NewSQLiteSessionRepo(database).Create(context.Background(), sess))

	interactions := repository.NewSQLiteInteractionRepo(database)
	return NewLedger(interactions, DefaultLimits(), fixedClock(now)), interactions, sess
}

func TestCheckLimits_EmptyLog(t *testing.T) {
	ledger, _, sess := ledgerTestSetup(t, time.Now())

	snap, err := ledger.CheckLimits(context.Background(), sess.UserID, sess.ID)
	require.NoError(t, err)
	assert.True(t, snap.DailyAllowed)
	assert.True(t, snap.SessionAllowed)
	assert.True(t, snap.Allowed())
	assert.Equal(t, 0, snap.SessionRequests)
	assert.Equal(t, 5, snap.SessionLimit)
	assert.Equal(t, 10, snap.DailyLimit)
	assert.Equal(t, 5, snap.StageLimit)
	assert.NotNil(t, snap.StageUsage)
	assert.True(t, snap.CanUseStage(domain.StageRootCause))
}

func TestCheckLimits_SessionCeiling(t *testing.T) {
	now := time.Now().UTC()
	ledger, repo, sess := ledgerTestSetup(t, now)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := repo.Create(ctx, testutil.NewTestInteraction(sess, testutil.WithCreatedAt(now)))
		require.NoError(t, err)
	}
	snap, err := ledger.CheckLimits(ctx, sess.UserID, sess.ID)
	require.NoError(t, err)
	assert.True(t, snap.SessionAllowed, "4 of 5 used")

	_, err = repo.Create(ctx, testutil.NewTestInteraction(sess, testutil.WithCreatedAt(now)))
	require.NoError(t, err)
	snap, err = ledger.CheckLimits(ctx, sess.UserID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.SessionRequests)
	assert.False(t, snap.SessionAllowed)
	assert.False(t, snap.Allowed())
	assert.True(t, snap.DailyAllowed)
}

func TestCheckLimits_FailedAttemptsCount(t *testing.T) {
	now := time.Now().UTC()
	ledger, repo, sess := ledgerTestSetup(t, now)
	ctx := context.Background()

	_, err := repo.Create(ctx, testutil.NewTestInteraction(sess,
		testutil.WithCreatedAt(now), testutil.WithFailure("provider unavailable")))
	require.NoError(t, err)

	snap, err := ledger.CheckLimits(ctx, sess.UserID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.SessionRequests)
	assert.Equal(t, 1, snap.DailyRequests)
}

func TestCheckLimits_DailySpansSessions(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	sessions := repository.NewSQLiteSessionRepo(database)
	repo := repository.NewSQLiteInteractionRepo(database)
	ledger := NewLedger(repo, DefaultLimits(), fixedClock(now))

	var last *domain.Session
	for s := 0; s < 5; s++ {
		last = testutil.NewTestSession("user-1")
		require.NoError(t, sessions.Create(ctx, last))
		for i := 0; i < 2; i++ {
			_, err := repo.Create(ctx, testutil.NewTestInteraction(last, testutil.WithCreatedAt(now.Add(-time.Hour))))
			require.NoError(t, err)
		}
	}

	fresh := testutil.NewTestSession("user-1")
	require.NoError(t, sessions.Create(ctx, fresh))
	snap, err := ledger.CheckLimits(ctx, "user-1", fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.DailyRequests)
	assert.False(t, snap.DailyAllowed)
	assert.True(t, snap.SessionAllowed)
	assert.False(t, snap.Allowed())
}

func TestCheckLimits_DailyWindowStartsAtUTCMidnight(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)
	ledger, repo, sess := ledgerTestSetup(t, now)
	ctx := context.Background()

	yesterday := time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC)
	_, err := repo.Create(ctx, testutil.NewTestInteraction(sess,
		testutil.WithCreatedAt(yesterday), testutil.WithTokens(100, 100, 0.0018)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.NewTestInteraction(sess,
		testutil.WithCreatedAt(now), testutil.WithTokens(100, 100, 0.0018)))
	require.NoError(t, err)

	snap, err := ledger.CheckLimits(ctx, sess.UserID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.DailyRequests)
	assert.InDelta(t, 0.0018, snap.DailyCost, 1e-9)
	assert.Equal(t, 2, snap.SessionRequests, "session usage is not windowed")
}

func TestCheckLimits_StageUsageIndependent(t *testing.T) {
	now := time.Now().UTC()
	ledger, repo, sess := ledgerTestSetup(t, now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, testutil.NewTestInteraction(sess, testutil.WithStage(domain.StageRootCause)))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, testutil.NewTestInteraction(sess, testutil.WithStage(domain.StageFearAnalysis)))
	require.NoError(t, err)

	snap, err := ledger.CheckLimits(ctx, sess.UserID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.StageUsage[domain.StageRootCause])
	assert.Equal(t, 1, snap.StageUsage[domain.StageFearAnalysis])
	assert.Equal(t, 0, snap.StageUsage[domain.StageActionPlanning])
}

func TestCanUseStage_AtCeiling(t *testing.T) {
	ledger := NewLedger(stubStore{session: domain.SessionUsage{
		Requests: 2,
		ByStage:  map[domain.Stage]int{domain.StageRootCause: 2},
	}}, Limits{Session: 5, Daily: 10, Stage: 2})

	snap, err := ledger.CheckLimits(context.Background(), "u", "s")
	require.NoError(t, err)
	assert.True(t, snap.Allowed())
	assert.False(t, snap.CanUseStage(domain.StageRootCause))
	assert.True(t, snap.CanUseStage(domain.StagePerpetuation))
}

func TestCheckLimits_StoreError(t *testing.T) {
	boom := errors.New("disk gone")
	ledger := NewLedger(stubStore{err: boom}, DefaultLimits())

	_, err := ledger.CheckLimits(context.Background(), "u", "s")
	assert.ErrorIs(t, err, boom)
}

func TestStartOfUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 10, 2, 0, 0, 0, loc) // 2026-03-09 21:00 UTC
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), StartOfUTCDay(local))
}

type stubStore struct {
	daily   domain.DailyUsage
	session domain.SessionUsage
	err     error
}

func (s stubStore) UsageSince(context.Context, string, time.Time) (domain.DailyUsage, error) {
	return s.daily, s.err
}

func (s stubStore) UsageFor(context.Context, string) (domain.SessionUsage, error) {
	return s.session, s.err
}
