package echoapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/membership"
	pdfsvc "github.com/ecrmi/institute/services/pdf"
)

type membershipApi struct {
	svc  *membership.Service
	pdf  *pdfsvc.Renderer
	conf *core.Config
}

func registerMembershipAPI(g *echo.Group, session echo.MiddlewareFunc, svc *membership.Service, pdf *pdfsvc.Renderer, conf *core.Config) {
	api := membershipApi{svc: svc, pdf: pdf, conf: conf}

	mg := g.Group("/membership")
	mg.POST("/apply", api.apply)
	mg.POST("/update", api.applyUpdate)
	mg.GET("/status", api.status)
	mg.GET("/verify/:certID", api.verify)
	mg.GET("/download/:certID", api.download)
	mg.GET("/letter/:certID", api.letter)

	ag := g.Group("/admin/memberships", session)
	ag.GET("", api.queryApplications)
	ag.GET("/members", api.queryMembers)
	ag.POST("/import", api.importCSV)
	ag.POST("/import/undo", api.undoImport)
	ag.GET("/export", api.exportMembers)
	ag.GET("/applications/export", api.exportApplications)
	ag.POST("/:id", api.review)
}

type undoImportRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func (ur *undoImportRequest) Validate() error {
	return core.Validate.Struct(ur)
}

// Handlers

func (api *membershipApi) apply(ctx echo.Context) error {
	var data membership.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	app, err := api.svc.Apply(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "filing application")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *membershipApi) applyUpdate(ctx echo.Context) error {
	var data membership.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	app, err := api.svc.ApplyUpdate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "filing update request")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *membershipApi) status(ctx echo.Context) error {
	lookup := core.CleanString(ctx.QueryParam("lookup"))
	if lookup == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "lookup", Error: "lookup is required"})
	}

	res, err := api.svc.StatusByLookup(ctx.Request().Context(), lookup)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *membershipApi) verify(ctx echo.Context) error {
	res, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("certID"))
	if err != nil {
		return errors.Wrap(err, "verifying membership")
	}
	return ctx.JSON(http.StatusOK, res)
}

// download re-renders the membership certificate PDF from the Member record.
func (api *membershipApi) download(ctx echo.Context) error {
	mbr, err := api.svc.GetMemberByCertID(ctx.Request().Context(), ctx.Param("certID"))
	if err != nil {
		return err
	}

	verifyURL := api.conf.FrontendBaseURL + "/membership/verify/" + mbr.CertificateID
	doc, err := api.pdf.MembershipCertificate(mbr, verifyURL)
	if err != nil {
		return errors.Wrap(err, "rendering membership certificate PDF")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.pdf"`, mbr.CertificateID))
	return ctx.Blob(http.StatusOK, "application/pdf", doc)
}

func (api *membershipApi) letter(ctx echo.Context) error {
	mbr, err := api.svc.GetMemberByCertID(ctx.Request().Context(), ctx.Param("certID"))
	if err != nil {
		return err
	}

	doc, err := api.pdf.AdmissionLetter(mbr)
	if err != nil {
		return errors.Wrap(err, "rendering admission letter PDF")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="admission-letter-%s.pdf"`, mbr.CertificateID))
	return ctx.Blob(http.StatusOK, "application/pdf", doc)
}

func (api *membershipApi) queryApplications(ctx echo.Context) error {
	apps, err := api.svc.QueryApplications(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *membershipApi) queryMembers(ctx echo.Context) error {
	mbrs, err := api.svc.QueryMembers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, mbrs)
}

func (api *membershipApi) review(ctx echo.Context) error {
	var data membership.Decision
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Decision")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	id := ctx.Param("id")

	if data.Action == "approve" {
		app, mbr, err := api.svc.Approve(reqCtx, id, data.MembershipType, data.AdminNotes)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, echo.Map{"application": app, "member": mbr})
	}

	app, err := api.svc.Reject(reqCtx, id, data.AdminNotes)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"application": app})
}

// importCSV accepts the CSV either as a multipart "file" field or as the raw
// request body.
func (api *membershipApi) importCSV(ctx echo.Context) error {
	body := ctx.Request().Body
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded CSV")
		}
		defer f.Close()
		body = f
	}

	report, err := api.svc.ImportCSV(ctx.Request().Context(), body)
	if err != nil {
		return errors.Wrap(err, "importing members CSV")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *membershipApi) undoImport(ctx echo.Context) error {
	var data undoImportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to undoImportRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.UndoImport(ctx.Request().Context(), data.IDs); err != nil {
		return errors.Wrap(err, "undoing import")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *membershipApi) exportMembers(ctx echo.Context) error {
	mbrs, err := api.svc.QueryMembers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying members")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"name", "email", "phone", "job_title", "organization", "membership_type", "certificate_id", "joined_at"})
	for _, mbr := range mbrs {
		_ = w.Write([]string{
			mbr.Name, mbr.Email, mbr.Phone, mbr.JobTitle, mbr.Organization,
			mbr.MembershipType, mbr.CertificateID, mbr.JoinedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "writing members CSV")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="members.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (api *membershipApi) exportApplications(ctx echo.Context) error {
	apps, err := api.svc.QueryApplications(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"name", "email", "phone", "job_title", "organization", "requested_type", "approved_type", "status", "is_update_request", "certificate_id", "documents", "submitted_at"})
	for _, app := range apps {
		_ = w.Write([]string{
			app.Name, app.Email, app.Phone, app.JobTitle, app.Organization,
			app.RequestedType, app.ApprovedType, string(app.Status),
			strconv.FormatBool(app.IsUpdateRequest), app.CertificateID,
			strings.Join(app.DocumentURLs, " "), app.SubmittedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "writing applications CSV")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="applications.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv", buf.Bytes())
}
