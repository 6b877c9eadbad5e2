package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/accesscode"
)

type accessCodeApi struct {
	svc *accesscode.Service
}

func registerAccessCodeAPI(g *echo.Group, session echo.MiddlewareFunc, svc *accesscode.Service) {
	api := accessCodeApi{svc: svc}

	g.POST("/access-codes/consume", api.consume)

	ag := g.Group("/admin/access-codes", session)
	ag.POST("", api.generate)
	ag.GET("", api.query)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *accessCodeApi) consume(ctx echo.Context) error {
	var data accesscode.ConsumeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConsumeRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Consume(ctx.Request().Context(), data.Code, data.CourseID, data.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *accessCodeApi) generate(ctx echo.Context) error {
	var data accesscode.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	codes, err := api.svc.Generate(ctx.Request().Context(), data.CourseID, data.Count)
	if err != nil {
		return errors.Wrap(err, "generating access codes")
	}
	return ctx.JSON(http.StatusCreated, codes)
}

func (api *accessCodeApi) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if courseID := core.CleanString(ctx.QueryParam("course_id")); courseID != "" {
		codes, err := api.svc.QueryByCourse(reqCtx, courseID)
		if err != nil {
			return errors.Wrap(err, "querying access codes by course")
		}
		return ctx.JSON(http.StatusOK, codes)
	}

	codes, err := api.svc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying access codes")
	}
	return ctx.JSON(http.StatusOK, codes)
}

func (api *accessCodeApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteUnused(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
