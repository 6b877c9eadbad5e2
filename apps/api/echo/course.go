package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, session echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}

	// participant-facing endpoints
	cg := g.Group("/courses")
	cg.GET("", api.queryActive)
	cg.GET("/:id", api.retrieve)
	cg.GET("/:id/questions", api.queryQuestions)

	// back office
	ag := g.Group("/admin/courses", session)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/questions", api.createQuestion)
	ag.GET("/:id/questions", api.queryAdminQuestions)
	ag.PUT("/questions/:qid", api.updateQuestion)
	ag.DELETE("/questions/:qid", api.destroyQuestion)
}

// publicQuestion strips the correct option from a question delivered to test takers.
type publicQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Handlers

func (api *courseApi) queryActive(ctx echo.Context) error {
	courses, err := api.svc.QueryActive(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying active courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) queryQuestions(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	crs, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	questions, err := api.svc.QueryQuestions(reqCtx, crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course questions")
	}

	pub := make([]publicQuestion, 0, len(questions))
	for _, qst := range questions {
		pub = append(pub, publicQuestion{ID: qst.ID, Text: qst.Text, Options: qst.Options})
	}
	return ctx.JSON(http.StatusOK, pub)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) createQuestion(ctx echo.Context) error {
	var data course.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	qst, err := api.svc.AddQuestion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qst)
}

func (api *courseApi) queryAdminQuestions(ctx echo.Context) error {
	questions, err := api.svc.QueryQuestions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *courseApi) updateQuestion(ctx echo.Context) error {
	var data course.UpdateQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	qst, err := api.svc.UpdateQuestion(ctx.Request().Context(), ctx.Param("qid"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qst)
}

func (api *courseApi) destroyQuestion(ctx echo.Context) error {
	if err := api.svc.DeleteQuestion(ctx.Request().Context(), ctx.Param("qid")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
