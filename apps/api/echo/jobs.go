package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/jobs"
)

func registerJobsAPI(g *echo.Group, feed *jobs.Feed) {
	g.GET("/jobs/:track", func(ctx echo.Context) error {
		track, err := catalog.ParseTrack(ctx.Param("track"))
		if err != nil {
			return err
		}
		postings, err := feed.Fetch(ctx.Request().Context(), track)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, postings)
	})
}
