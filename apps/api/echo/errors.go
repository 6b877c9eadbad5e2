package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/accesscode"
	"github.com/ecrmi/institute/core/admin"
	"github.com/ecrmi/institute/core/attempt"
	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/course"
	"github.com/ecrmi/institute/core/membership"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "admin not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// domainErrCodes maps sentinel domain errors to their HTTP status:
// not-found -> 404, business-rule violations -> 403.
var domainErrCodes = map[error]int{
	course.ErrNotFound:           http.StatusNotFound,
	course.ErrQuestionNotFound:   http.StatusNotFound,
	attempt.ErrNotFound:          http.StatusNotFound,
	attempt.ErrAttemptsExhausted: http.StatusForbidden,
	certificate.ErrNotFound:      http.StatusNotFound,
	certificate.ErrNameLocked:    http.StatusForbidden,
	membership.ErrNotFound:       http.StatusNotFound,
	membership.ErrMemberNotFound: http.StatusNotFound,
	accesscode.ErrNotFound:       http.StatusNotFound,
	accesscode.ErrCodeInvalid:    http.StatusForbidden,
	accesscode.ErrCodeUsed:       http.StatusForbidden,
	admin.ErrNotFound:            http.StatusNotFound,
	admin.ErrEmailExists:         http.StatusBadRequest,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if c, ok := domainErrCodes[origErr]; ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logger.Error(msg, errors.Wrap(err, msg))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
