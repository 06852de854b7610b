package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/jobs"
	"github.com/trezcool/tirgul/core/session"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/user"
	"github.com/trezcool/tirgul/core/video"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errSessionRevoked   = echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
	errRefreshExpired   = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound     = echo.NewHTTPError(http.StatusNotFound, "not found")
	errMethodNotAllowed = echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed")
)

// knownErrors maps domain errors to the status they are returned with. Their message is returned as is.
var knownErrors = map[error]int{
	catalog.ErrUnknownTrack:      http.StatusNotFound,
	catalog.ErrUnknownYear:       http.StatusNotFound,
	tutor.ErrTutorNotFound:       http.StatusNotFound,
	tutor.ErrFeedbackNotFound:    http.StatusNotFound,
	tutor.ErrDuplicateFeedback:   http.StatusConflict,
	video.ErrCourseNotFound:      http.StatusNotFound,
	video.ErrEpisodeNotFound:     http.StatusNotFound,
	video.ErrNoAccess:            http.StatusForbidden,
	video.ErrDeviceLimitExceeded: http.StatusForbidden,
	session.ErrNotFound:          http.StatusUnauthorized,
	session.ErrRevoked:           http.StatusUnauthorized,
	jobs.ErrFeedUnavailable:      http.StatusBadGateway,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if status, ok := knownErrors[cause]; ok {
			code = status
			message = cause.Error()
		} else {
			switch origErr := cause.(type) {
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
				code = http.StatusBadRequest
				message = core.FieldErrors(origErr, translator)
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
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr = claims.User()
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
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
