// errors.go - structured error responses for the HTTP API
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"diagram2terraform/internal/workflow"
)

// APIError is the JSON error envelope. State is attached when the error
// came out of a session workflow so clients can re-render without a
// second request.
type APIError struct {
	Status  int             `json:"-"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details string          `json:"details,omitempty"`
	State   *workflow.State `json:"state,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

func NewValidationError(message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// fromWorkflowError maps workflow errors onto HTTP statuses.
func fromWorkflowError(err error, st *workflow.State) *APIError {
	var validation *workflow.ValidationError
	var failure *workflow.RequestFailure

	apiErr := &APIError{State: st}
	switch {
	case errors.Is(err, workflow.ErrBusy):
		apiErr.Status = http.StatusConflict
		apiErr.Code = "GENERATION_IN_PROGRESS"
		apiErr.Message = workflow.ErrBusy.Message
	case errors.As(err, &validation):
		apiErr.Status = http.StatusBadRequest
		apiErr.Code = "VALIDATION_ERROR"
		apiErr.Message = validation.Message
	case errors.As(err, &failure):
		apiErr.Status = http.StatusBadGateway
		apiErr.Code = "GENERATION_FAILED"
		apiErr.Message = failure.Message
	default:
		apiErr.Status = http.StatusInternalServerError
		apiErr.Code = "INTERNAL_ERROR"
		apiErr.Message = workflow.UserMessage(err)
	}
	return apiErr
}

// ErrorHandler renders every error returned by a handler as an APIError.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
