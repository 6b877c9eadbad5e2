package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/attempt"
)

type attemptApi struct {
	svc *attempt.Service
}

func registerAttemptAPI(g *echo.Group, session echo.MiddlewareFunc, svc *attempt.Service) {
	api := attemptApi{svc: svc}

	ag := g.Group("/attempts")
	ag.POST("", api.submit)
	ag.POST("/status", api.status)

	adg := g.Group("/admin/attempts", session)
	adg.GET("", api.query)
	adg.POST("/reset", api.reset)
}

type statusRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	CourseIDs []string `json:"course_ids" validate:"required,min=1"`
}

func (sr *statusRequest) Validate() error {
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	return core.Validate.Struct(sr)
}

type resetRequest struct {
	Email    string `json:"email" validate:"required,email"`
	CourseID string `json:"course_id" validate:"required"`
}

func (rr *resetRequest) Validate() error {
	rr.Email = core.CleanString(rr.Email, true /* lower */)
	rr.CourseID = core.CleanString(rr.CourseID)
	return core.Validate.Struct(rr)
}

// Handlers

func (api *attemptApi) submit(ctx echo.Context) error {
	var data attempt.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *attemptApi) status(ctx echo.Context) error {
	var data statusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to statusRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	statuses, err := api.svc.StatusFor(ctx.Request().Context(), data.Email, data.CourseIDs)
	if err != nil {
		return errors.Wrap(err, "querying attempt status")
	}
	return ctx.JSON(http.StatusOK, statuses)
}

func (api *attemptApi) query(ctx echo.Context) error {
	attempts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	return ctx.JSON(http.StatusOK, attempts)
}

func (api *attemptApi) reset(ctx echo.Context) error {
	var data resetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to resetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Reset(ctx.Request().Context(), data.Email, data.CourseID); err != nil {
		return errors.Wrap(err, "resetting attempts")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}
