package workflow

import (
	"errors"
	"strings"
)

const (
	MsgMissingInput      = "Please upload an image and select a cloud provider."
	MsgInvalidAPIKey     = "API Key is invalid or not configured correctly. Please check your environment setup."
	MsgQuotaExceeded     = "API quota exceeded. Please check your Google AI Studio account."
	msgGenerationFailure = "Failed to generate Terraform code. "
)

// ValidationError is a locally recovered input problem. Message is user-facing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var ErrBusy = &ValidationError{Message: "A generation request is already in progress."}

// RequestFailure wraps an error from the model call together with the
// message shown to the user.
type RequestFailure struct {
	Message string
	Err     error
}

func (e *RequestFailure) Error() string {
	return e.Message
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// DescribeFailure rewrites authentication and quota failures into
// actionable messages; anything else is shown verbatim behind a lead-in.
func DescribeFailure(err error) string {
	if err == nil {
		return ""
	}

	message := msgGenerationFailure + err.Error()
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "api key not valid"), strings.Contains(lower, "api_key_not_valid"):
		return MsgInvalidAPIKey
	case strings.Contains(lower, "quota"):
		return MsgQuotaExceeded
	}
	return message
}

// UserMessage converts any workflow error to the single string a
// presentation layer should display.
func UserMessage(err error) string {
	var validation *ValidationError
	var failure *RequestFailure

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &failure):
		return failure.Message
	}
	return DescribeFailure(err)
}
