package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/tutor"
)

type tutorApi struct {
	svc      *tutor.Service
	validate *validator.Validate
}

func registerTutorAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *tutor.Service, validate *validator.Validate) {
	api := tutorApi{
		svc:      svc,
		validate: validate,
	}

	tg := g.Group("/tutors")

	// authed endpoints
	// the authed group must exist before the un-authed routes of the same paths are added
	ag := tg.Group("", authed...)
	ag.GET("/requests", api.queryRequests, adminMiddleware())
	ag.POST("/:id/feedback", api.submitFeedback)
	ag.DELETE("/:id/feedback", api.deleteFeedback)

	// un-authed endpoints
	tg.GET("", api.list)
	tg.POST("/requests", api.requestListing)
}

// Handlers

func (api *tutorApi) list(ctx echo.Context) error {
	degree, err := catalog.ParseTrack(ctx.QueryParam("degree"))
	if err != nil {
		return err
	}
	page := api.svc.List(ctx.Request().Context(), degree, ctx.QueryParam("course"), boolQueryParam(ctx, "all"))
	return ctx.JSON(http.StatusOK, page)
}

func (api *tutorApi) submitFeedback(ctx echo.Context) error {
	tutorID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data tutor.NewFeedback
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tutors, err := api.svc.SubmitFeedback(ctx.Request().Context(), usr, tutorID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tutors)
}

func (api *tutorApi) deleteFeedback(ctx echo.Context) error {
	tutorID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tutors, err := api.svc.DeleteFeedback(ctx.Request().Context(), usr, tutorID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tutors)
}

func (api *tutorApi) requestListing(ctx echo.Context) error {
	var data tutor.NewTutorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTutorRequest")
	}
	req, err := api.svc.RequestListing(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *tutorApi) queryRequests(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	reqs, err := api.svc.QueryRequests(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return err
	}
	if reqs == nil {
		reqs = []tutor.TutorRequest{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}
