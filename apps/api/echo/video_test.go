package echoapi

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tirgul/core/user"
	"github.com/trezcool/tirgul/core/video"
	"github.com/trezcool/tirgul/tests"
)

func Test_videoApi(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.videoRepo, "Algo", "vid-1", 0, 10, 20, 30)
	path := "/v1/courses/" + strconv.Itoa(c.ID)

	token := f.signIn(t, user.User{ID: "u1", Email: "u1@tirgul.test"})
	stranger := f.signIn(t, user.User{ID: "u2", Email: "u2@tirgul.test"})
	require.NoError(t, f.videoRepo.GrantAccess(ctx, "u1", c.ID, c.CreatedAt))

	watched := func(ids ...string) []byte {
		return marchallObj(t, video.WatchedEpisodes{EpisodesWatched: ids})
	}
	runHTTPTests(t, f, []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Unknown course", path: "/v1/courses/999", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "No access", method: http.MethodPost, path: path + "/episodes/1/watched", token: stranger,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "no access to this course"}),
		},
		{
			name: "Unknown episode", method: http.MethodPost, path: path + "/episodes/7/watched", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "episode not found"}),
		},
		{
			name: "Mark watched", method: http.MethodPost, path: path + "/episodes/2/watched", token: token,
			wantData: watched(c.Episodes[1].ID),
		},
		{
			name: "Mark watched again", method: http.MethodPost, path: path + "/episodes/2/watched", token: token,
			wantData: watched(c.Episodes[1].ID),
		},
		{
			name: "Mark another", method: http.MethodPost, path: path + "/episodes/1/watched", token: token,
			wantData: watched(c.Episodes[0].ID, c.Episodes[1].ID),
		},
	})

	t.Run("Course progress", func(t *testing.T) {
		rec := f.do(httpTest{path: path, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got video.Course
		unmarshal(t, rec, &got)
		require.Len(t, got.Episodes, 3)
		assert.True(t, got.Episodes[0].Completed)
		assert.True(t, got.Episodes[1].Completed)
		assert.False(t, got.Episodes[2].Completed)
	})
}

func Test_videoApi_playbackToken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.videoRepo, "Algo", "vid-1", 0, 10)
	token := f.signIn(t, user.User{ID: "u1", Email: "u1@tirgul.test"})
	stranger := f.signIn(t, user.User{ID: "u2", Email: "u2@tirgul.test"})
	require.NoError(t, f.videoRepo.GrantAccess(ctx, "u1", c.ID, c.CreatedAt))

	fp := func(s string) []byte { return []byte(`{"fingerprint": "` + s + `"}`) }
	path := "/v1/videos/vid-1/token"
	runHTTPTests(t, f, []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: path, body: fp("a"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "No access", method: http.MethodPost, path: path, body: fp("a"), token: stranger,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "no access to this course"}),
		},
		{
			name: "Fingerprint required", method: http.MethodPost, path: path, body: fp(" "), token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"fingerprint": "שדה חובה"}`),
		},
		{name: "First device", method: http.MethodPost, path: path, body: fp("a"), token: token},
		{name: "Same device", method: http.MethodPost, path: path, body: fp("a"), token: token},
		{name: "Second device", method: http.MethodPost, path: path, body: fp("b"), token: token},
		{
			name: "Device limit", method: http.MethodPost, path: path, body: fp("c"), token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "device limit exceeded"}),
		},
	})

	t.Run("Token", func(t *testing.T) {
		rec := f.do(httpTest{method: http.MethodPost, path: path, body: fp("a"), token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var tkn video.PlaybackToken
		unmarshal(t, rec, &tkn)
		assert.NotEmpty(t, tkn.Token)
		assert.False(t, tkn.ExpiresAt.IsZero())
	})
}
