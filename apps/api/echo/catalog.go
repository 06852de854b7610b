package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core/catalog"
)

type CoursesResponse struct {
	Track   catalog.Track    `json:"track"`
	Year    catalog.Year     `json:"year"`
	Tag     string           `json:"tag,omitempty"`
	Courses []catalog.Course `json:"courses"`
}

func registerCatalogAPI(g *echo.Group) {
	cg := g.Group("/catalog/:track")
	cg.GET("/years/:year/courses", coursesForYear)
	cg.GET("/specializations", specializations)
}

// Handlers

func coursesForYear(ctx echo.Context) error {
	track, err := catalog.ParseTrack(ctx.Param("track"))
	if err != nil {
		return err
	}
	year, err := catalog.ParseYear(ctx.Param("year"))
	if err != nil {
		return errors.Wrap(err, "parsing year")
	}
	tag := ctx.QueryParam("tag")
	return ctx.JSON(http.StatusOK, CoursesResponse{
		Track:   track,
		Year:    year,
		Tag:     tag,
		Courses: catalog.CoursesForYear(year, track, tag),
	})
}

func specializations(ctx echo.Context) error {
	track, err := catalog.ParseTrack(ctx.Param("track"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, catalog.Specializations(track))
}
