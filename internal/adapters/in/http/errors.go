package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// badRequestError marks input that could not be turned into a command.
type badRequestError struct {
	cause error
}

func badRequest(err error) error {
	if err == nil {
		return nil
	}
	return &badRequestError{cause: err}
}

func (e *badRequestError) Error() string { return e.cause.Error() }
func (e *badRequestError) Unwrap() error { return e.cause }

// statusFor maps an application error to a response.
func statusFor(err error) ErrorResponse {
	var (
		transition *errs.InvalidTransitionError
		badInput   *badRequestError
		httpErr    *echo.HTTPError
	)

	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return ErrorResponse{Code: httpErr.Code, Message: msg}
	case errors.As(err, &badInput):
		return ErrorResponse{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &transition):
		return ErrorResponse{
			Code:         http.StatusUnprocessableEntity,
			Message:      err.Error(),
			Precondition: transition.Precondition,
			Current:      transition.Current,
		}
	case errors.Is(err, errs.ErrObjectNotFound):
		return ErrorResponse{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, errs.ErrAlreadyAssigned):
		return ErrorResponse{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, errs.ErrInvalidTransition):
		return ErrorResponse{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return ErrorResponse{Code: http.StatusBadRequest, Message: err.Error()}
	default:
		return ErrorResponse{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}

// ErrorHandler renders every handler error as ErrorResponse.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := statusFor(err)
		ctx := c.Request().Context()
		if resp.Code >= http.StatusInternalServerError {
			log.Error(ctx, "request failed", err)
		} else {
			log.Debug(ctx, "request rejected: "+err.Error())
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Code)
		} else {
			err = c.JSON(resp.Code, resp)
		}
		if err != nil {
			log.Warn(ctx, "write error response", err)
		}
	}
}
