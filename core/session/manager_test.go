package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tirgul/core/session"
	"github.com/trezcool/tirgul/core/user"
	"github.com/trezcool/tirgul/storage/database/inmem"
	"github.com/trezcool/tirgul/tests"
)

func setup(t *testing.T) (*session.Manager, session.Repository) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewSessionRepository(db)
	return session.NewManager(repo, testutil.NewLoggerMock()), repo
}

func TestManager_Start(t *testing.T) {
	mgr, repo := setup(t)
	ctx := context.Background()
	usr := user.User{ID: "u1", Email: "u1@tirgul.test"}

	// sessions left over by a previous process lifetime
	for _, id := range []string{"old-1", "old-2"} {
		_, err := repo.CreateSession(ctx, session.Session{ID: id, UserID: usr.ID, CreatedAt: time.Now()})
		require.NoError(t, err)
	}
	_, err := repo.CreateSession(ctx, session.Session{ID: "other", UserID: "u2", CreatedAt: time.Now()})
	require.NoError(t, err)

	assert.False(t, mgr.Cleaned(usr.ID))
	s1, err := mgr.Start(ctx, usr)
	require.NoError(t, err)
	assert.True(t, mgr.Cleaned(usr.ID))

	_, err = mgr.Check(ctx, "old-1")
	assert.Equal(t, session.ErrRevoked, err)
	_, err = mgr.Check(ctx, "other")
	assert.NoError(t, err)

	// within the same lifetime, new sessions leave the others alone
	s2, err := mgr.Start(ctx, usr)
	require.NoError(t, err)
	_, err = mgr.Check(ctx, s1.ID)
	assert.NoError(t, err)
	_, err = mgr.Check(ctx, s2.ID)
	assert.NoError(t, err)

	// signing out makes the user unseen again
	require.NoError(t, mgr.Reset(ctx, usr.ID, s2.ID))
	assert.False(t, mgr.Cleaned(usr.ID))
	_, err = mgr.Check(ctx, s2.ID)
	assert.Equal(t, session.ErrRevoked, err)

	s3, err := mgr.Start(ctx, usr)
	require.NoError(t, err)
	_, err = mgr.Check(ctx, s1.ID)
	assert.Equal(t, session.ErrRevoked, err)
	_, err = mgr.Check(ctx, s3.ID)
	assert.NoError(t, err)

	_, err = mgr.Check(ctx, "unknown")
	assert.Equal(t, session.ErrNotFound, errors.Cause(err))
	assert.NoError(t, mgr.Reset(ctx, usr.ID, "unknown"))
}

func TestManager_Init(t *testing.T) {
	mgr, _ := setup(t)
	ctx := context.Background()

	_, err := mgr.Start(ctx, user.User{ID: "u1"})
	require.NoError(t, err)
	assert.True(t, mgr.Cleaned("u1"))

	mgr.Init()
	assert.False(t, mgr.Cleaned("u1"))
}

func TestAwaitSession(t *testing.T) {
	usr := user.User{ID: "u1"}
	errNotYet := errors.New("not yet")

	tests := []struct {
		name         string
		failures     int
		wantAttempts int
		wantErr      error
	}{
		{name: "first attempt", failures: 0, wantAttempts: 1},
		{name: "third attempt", failures: 2, wantAttempts: 3},
		{name: "never", failures: 5, wantAttempts: session.AwaitAttempts, wantErr: session.ErrSessionNotEstablished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int
			got, err := session.AwaitSession(context.Background(), time.Millisecond, func(context.Context) (user.User, error) {
				attempts++
				if attempts <= tt.failures {
					return user.User{}, errNotYet
				}
				return usr, nil
			})
			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
			if tt.wantErr == nil {
				assert.Equal(t, usr, got)
			}
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var attempts int
		_, err := session.AwaitSession(ctx, time.Hour, func(context.Context) (user.User, error) {
			attempts++
			cancel()
			return user.User{}, errNotYet
		})
		assert.Equal(t, 1, attempts)
		assert.Equal(t, session.ErrSessionNotEstablished, errors.Cause(err))
	})
}
