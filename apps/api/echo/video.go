package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core/video"
)

type PlaybackTokenRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type videoApi struct {
	svc *video.Service
}

func registerVideoAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *video.Service) {
	api := videoApi{svc: svc}

	cg := g.Group("/courses/:id", authed...)
	cg.GET("", api.retrieveCourse)
	cg.POST("/episodes/:index/watched", api.markWatched)

	vg := g.Group("/videos/:uid", authed...)
	vg.POST("/token", api.playbackToken)
}

// Handlers

func (api *videoApi) retrieveCourse(ctx echo.Context) error {
	courseID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	c, err := api.svc.GetCourse(ctx.Request().Context(), usr.ID, courseID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *videoApi) markWatched(ctx echo.Context) error {
	courseID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	index, err := intParam(ctx, "index")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ids, err := api.svc.MarkEpisodeWatched(ctx.Request().Context(), usr.ID, courseID, index)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, video.WatchedEpisodes{EpisodesWatched: ids})
}

func (api *videoApi) playbackToken(ctx echo.Context) error {
	var data PlaybackTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlaybackTokenRequest")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tkn, err := api.svc.IssuePlaybackToken(ctx.Request().Context(), usr.ID, ctx.Param("uid"), data.Fingerprint)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tkn)
}
