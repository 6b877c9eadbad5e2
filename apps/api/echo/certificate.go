package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/certificate"
	pdfsvc "github.com/ecrmi/institute/services/pdf"
)

type certificateApi struct {
	svc *certificate.Service
	pdf *pdfsvc.Renderer
}

func registerCertificateAPI(g *echo.Group, session echo.MiddlewareFunc, svc *certificate.Service, pdf *pdfsvc.Renderer) {
	api := certificateApi{svc: svc, pdf: pdf}

	cg := g.Group("/certificates")
	cg.GET("", api.queryByEmail)
	cg.GET("/:code", api.download)
	cg.GET("/:code/verify", api.verify)

	ag := g.Group("/admin/certificates", session)
	ag.GET("", api.query)
	ag.DELETE("/:code", api.revoke)
}

// certVerification is the public verify-by-code response.
type certVerification struct {
	Valid           bool   `json:"valid"`
	ParticipantName string `json:"participant_name,omitempty"`
	CourseTitle     string `json:"course_title,omitempty"`
	Score           int    `json:"score,omitempty"`
	IssuedAt        string `json:"issued_at,omitempty"`
}

// Handlers

func (api *certificateApi) queryByEmail(ctx echo.Context) error {
	email := core.CleanString(ctx.QueryParam("email"), true /* lower */)
	if email == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "email is required"})
	}

	certs, err := api.svc.QueryByEmail(ctx.Request().Context(), email)
	if err != nil {
		return errors.Wrap(err, "querying certificates by email")
	}
	return ctx.JSON(http.StatusOK, certs)
}

// download re-renders the PDF from the stored record on every request.
func (api *certificateApi) download(ctx echo.Context) error {
	cert, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return err
	}

	doc, err := api.pdf.CourseCertificate(cert, api.svc.VerificationURL(cert))
	if err != nil {
		return errors.Wrap(err, "rendering certificate PDF")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="certificate-%s.pdf"`, cert.Code))
	return ctx.Blob(http.StatusOK, "application/pdf", doc)
}

func (api *certificateApi) verify(ctx echo.Context) error {
	cert, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		if errors.Cause(err) == certificate.ErrNotFound {
			return ctx.JSON(http.StatusOK, certVerification{Valid: false})
		}
		return errors.Wrap(err, "verifying certificate")
	}

	return ctx.JSON(http.StatusOK, certVerification{
		Valid:           true,
		ParticipantName: cert.ParticipantName,
		CourseTitle:     cert.CourseTitle,
		Score:           cert.Score,
		IssuedAt:        cert.IssuedAt.Format("2006-01-02"),
	})
}

func (api *certificateApi) query(ctx echo.Context) error {
	certs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying certificates")
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *certificateApi) revoke(ctx echo.Context) error {
	if err := api.svc.Revoke(ctx.Request().Context(), ctx.Param("code")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
