package video_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/video"
	"github.com/trezcool/tirgul/storage/database/inmem"
	"github.com/trezcool/tirgul/tests"
)

func setup(t *testing.T) (*video.Service, video.Repository) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewVideoRepository(db)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return video.NewService(repo, testutil.NewLoggerMock(), validate, core.NewTestConfig()), repo
}

func TestService_GetCourse(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, repo, "Algo", "vid-1", 0, 10, 20, 30)

	_, err := svc.GetCourse(ctx, "u1", 999)
	assert.Equal(t, video.ErrCourseNotFound, errors.Cause(err))

	require.NoError(t, svc.GrantAccess(ctx, "u1", c.ID))
	_, err = svc.MarkEpisodeWatched(ctx, "u1", c.ID, 2)
	require.NoError(t, err)

	got, err := svc.GetCourse(ctx, "u1", c.ID)
	require.NoError(t, err)
	require.Len(t, got.Episodes, 3)
	assert.Equal(t, []bool{false, true, false}, []bool{got.Episodes[0].Completed, got.Episodes[1].Completed, got.Episodes[2].Completed})

	anon, err := svc.GetCourse(ctx, "", c.ID)
	require.NoError(t, err)
	assert.False(t, anon.Episodes[1].Completed)
}

func TestService_MarkEpisodeWatched(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, repo, "Algo", "vid-1", 0, 10, 20, 30)

	_, err := svc.MarkEpisodeWatched(ctx, "u1", c.ID, 1)
	assert.Equal(t, video.ErrNoAccess, errors.Cause(err))

	require.NoError(t, svc.GrantAccess(ctx, "u1", c.ID))

	_, err = svc.MarkEpisodeWatched(ctx, "u1", c.ID, 9)
	assert.Equal(t, video.ErrEpisodeNotFound, errors.Cause(err))

	ids, err := svc.MarkEpisodeWatched(ctx, "u1", c.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{c.Episodes[2].ID}, ids)

	ids, err = svc.MarkEpisodeWatched(ctx, "u1", c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{c.Episodes[0].ID, c.Episodes[2].ID}, ids)

	// idempotent
	ids, err = svc.MarkEpisodeWatched(ctx, "u1", c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{c.Episodes[0].ID, c.Episodes[2].ID}, ids)
}

func TestService_IssuePlaybackToken(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, repo, "Algo", "vid-1", 0, 10)

	_, err := svc.IssuePlaybackToken(ctx, "u1", "vid-1", "fp-1")
	assert.Equal(t, video.ErrNoAccess, errors.Cause(err))

	require.NoError(t, svc.GrantAccess(ctx, "u1", c.ID))

	_, err = svc.IssuePlaybackToken(ctx, "u1", "vid-1", " ")
	assert.IsType(t, &core.ValidationError{}, err)

	tkn, err := svc.IssuePlaybackToken(ctx, "u1", "vid-1", "fp-1")
	require.NoError(t, err)
	assert.True(t, tkn.ExpiresAt.After(time.Now()))

	claims, err := svc.ParsePlaybackToken(tkn.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "vid-1", claims.Audience)
	assert.NotEmpty(t, claims.DeviceID)

	// same device again
	tkn2, err := svc.IssuePlaybackToken(ctx, "u1", "vid-1", "fp-1")
	require.NoError(t, err)
	claims2, err := svc.ParsePlaybackToken(tkn2.Token)
	require.NoError(t, err)
	assert.Equal(t, claims.DeviceID, claims2.DeviceID)

	// second device is within the limit, third is not
	_, err = svc.IssuePlaybackToken(ctx, "u1", "vid-1", "fp-2")
	require.NoError(t, err)
	_, err = svc.IssuePlaybackToken(ctx, "u1", "vid-1", "fp-3")
	assert.Equal(t, video.ErrDeviceLimitExceeded, errors.Cause(err))
	assert.Equal(t, "device limit exceeded", err.Error())

	_, err = svc.ParsePlaybackToken(tkn.Token + "x")
	assert.Equal(t, video.ErrInvalidToken, err)
}

func TestService_IssuePlaybackToken_concurrentDevices(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, repo, "Algo", "vid-1", 0, 10)
	require.NoError(t, svc.GrantAccess(ctx, "u1", c.ID))

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for _, fp := range []string{"a", "b", "c", "d", "e"} {
		wg.Add(1)
		go func(fp string) {
			defer wg.Done()
			_, err := svc.IssuePlaybackToken(ctx, "u1", "vid-1", fp)
			errs <- err
		}(fp)
	}
	wg.Wait()
	close(errs)

	var ok, limited int
	for err := range errs {
		switch errors.Cause(err) {
		case nil:
			ok++
		case video.ErrDeviceLimitExceeded:
			limited++
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 3, limited)

	devices, err := repo.QueryDevices(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestService_AddEpisode(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, video.NewCourse{Title: "Algo"})
	assert.IsType(t, validator.ValidationErrors{}, err)

	c, err := svc.CreateCourse(ctx, video.NewCourse{Title: " Algo ", VideoUID: "vid-1"})
	require.NoError(t, err)
	assert.Equal(t, "Algo", c.Title)

	ep1, err := svc.AddEpisode(ctx, video.NewEpisode{CourseID: c.ID, Title: "Intro", StartTime: 0, EndTime: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, ep1.Index)
	assert.Equal(t, "vid-1", ep1.VideoUID)

	ep2, err := svc.AddEpisode(ctx, video.NewEpisode{CourseID: c.ID, Title: "Sorting", StartTime: 10, EndTime: 25})
	require.NoError(t, err)
	assert.Equal(t, 2, ep2.Index)

	_, err = svc.AddEpisode(ctx, video.NewEpisode{CourseID: c.ID, Title: "Back", StartTime: 5, EndTime: 8})
	assert.IsType(t, &core.ValidationError{}, err)

	_, err = svc.AddEpisode(ctx, video.NewEpisode{CourseID: c.ID, Title: "Empty", StartTime: 30, EndTime: 30})
	assert.IsType(t, validator.ValidationErrors{}, err)

	_, err = svc.AddEpisode(ctx, video.NewEpisode{CourseID: 999, Title: "X", StartTime: 0, EndTime: 1})
	assert.Equal(t, video.ErrCourseNotFound, errors.Cause(err))
}

func TestService_PruneDevices(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, seen := range []time.Time{now.Add(-100 * 24 * time.Hour), now.Add(-time.Hour)} {
		_, err := repo.CreateDevice(ctx, video.Device{ID: string(rune('a' + i)), UserID: "u1", CreatedAt: seen, LastSeen: seen})
		require.NoError(t, err)
	}

	n, err := svc.PruneDevices(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	devices, err := repo.QueryDevices(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}
