package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/admin"
)

type adminApi struct {
	svc       *admin.Service
	analytics *admin.Analytics
	conf      *core.Config
}

func registerAdminAPI(g *echo.Group, session echo.MiddlewareFunc, svc *admin.Service, analytics *admin.Analytics, conf *core.Config) {
	api := adminApi{svc: svc, analytics: analytics, conf: conf}

	ag := g.Group("/admin")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)

	sg := ag.Group("", session)
	sg.GET("/me", api.me)
	sg.PUT("/settings", api.updateSettings)
	sg.GET("/dashboard", api.dashboard)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *loginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

// Handlers

func (api *adminApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	adm, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == admin.ErrInvalidCredentials {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := generateToken(adm, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	ctx.SetCookie(newSessionCookie(token, api.conf))
	return ctx.JSON(http.StatusOK, echo.Map{"email": adm.Email})
}

func (api *adminApi) logout(ctx echo.Context) error {
	ctx.SetCookie(expiredSessionCookie())
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *adminApi) me(ctx echo.Context) error {
	claims, err := getAdminClaims(ctx)
	if err != nil {
		return err
	}
	adm, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api *adminApi) updateSettings(ctx echo.Context) error {
	var data admin.UpdateSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getAdminClaims(ctx)
	if err != nil {
		return err
	}

	adm, err := api.svc.UpdateSettings(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == admin.ErrInvalidCredentials {
			return core.NewValidationError(nil, core.FieldError{Field: "current_password", Error: "current password is incorrect"})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	dash, err := api.analytics.Dashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
