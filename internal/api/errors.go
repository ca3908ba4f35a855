package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinelogapp/cinelog-server/internal/errors"
)

// APIError is the error body every endpoint answers with. Domain errors
// carry their own code and status; anything else is mapped by status.
type APIError struct {
	status  int
	Code    string `json:"code" doc:"Stable error code, e.g. IMDB_ID_IN_USE"`
	Message string `json:"message" doc:"What went wrong"`
	Details any    `json:"details,omitempty" doc:"Extra context such as per-field messages"`
}

func (e *APIError) Error() string {
	return e.Message
}

// GetStatus satisfies huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType keeps error bodies plain JSON instead of problem+json.
func (e *APIError) ContentType(string) string {
	return "application/json"
}

// RegisterErrorHandler replaces huma's error constructor so that domain
// errors surface with their taxonomy code and status instead of huma's
// RFC 9457 problem shape. Call it once before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *errors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}
		}

		// Huma rejects request bodies that fail schema validation with
		// 422. The contract keeps every malformed request at 400.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		apiErr := &APIError{
			status:  status,
			Code:    string(statusToCode(status)),
			Message: message,
		}
		if len(errs) > 0 {
			details := make([]string, 0, len(errs))
			for _, err := range errs {
				if err != nil {
					details = append(details, err.Error())
				}
			}
			apiErr.Details = details
		}
		return apiErr
	}
}

func statusToCode(status int) errors.Code {
	switch status {
	case http.StatusBadRequest:
		return errors.CodeValidation
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusConflict:
		return errors.CodeAlreadyExists
	default:
		return errors.CodeInternal
	}
}
