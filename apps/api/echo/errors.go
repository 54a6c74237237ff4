package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mazungumzo/core"
	"github.com/trezcool/mazungumzo/core/chat"
	"github.com/trezcool/mazungumzo/core/event"
)

// set by NewServer; used to translate validator errors
var appTranslator ut.Translator

var (
	errHttpNotFound      = echo.NewHTTPError(http.StatusNotFound, "not found")
	errHttpQuotaExceeded = echo.NewHTTPError(http.StatusTooManyRequests, chat.ErrQuotaExceeded.Error())
	errHttpUnavailable   = echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable, please retry")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
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
				fldErrs[vErr.Field()] = vErr.Translate(appTranslator)
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
		case *chat.ConflictError:
			// caller should re-fetch state and retry; never auto-retried here
			code = http.StatusConflict
			message = origErr.Error()
		case *chat.InvalidStateError:
			code = http.StatusConflict
			message = origErr.Error()
		case *event.UnavailableError:
			code = errHttpUnavailable.Code
			message = errHttpUnavailable.Message
		default:
			switch cause {
			case chat.ErrQuotaExceeded:
				code = errHttpQuotaExceeded.Code
				message = errHttpQuotaExceeded.Message
			case chat.ErrRequestNotFound:
				code = errHttpNotFound.Code
				message = errHttpNotFound.Message
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if !ctx.Response().Committed {
			_ = ctx.JSON(code, map[string]interface{}{"error": message})
		}
	}
}
