package api

import (
	"encoding/json/v2"
	"fmt"
	"net/http"

	"github.com/cinelogapp/cinelog-server/internal/errors"
)

// MessageResponse is the body of every successful mutation.
type MessageResponse struct {
	Message string `json:"message" doc:"Human-readable result message"`
}

// MessageOutput wraps MessageResponse for huma.
type MessageOutput struct {
	Body MessageResponse
}

func messageOutput(format string, args ...any) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: fmt.Sprintf(format, args...)}}
}

func createdOutput(entity, id string) *MessageOutput {
	return messageOutput("%s was successfully created. (id: '%s')", entity, id)
}

func updatedOutput(entity, id string, modified bool) *MessageOutput {
	if !modified {
		return messageOutput("Fields have the same value, no update was performed")
	}
	return messageOutput("%s with id: '%s' was successfully updated", entity, id)
}

func patchedOutput(entity, field, id string, modified bool) *MessageOutput {
	if !modified {
		return messageOutput("Field has the same value, no patch was performed")
	}
	return messageOutput("%s %s with id: '%s' was successfully patched", entity, field, id)
}

func deletedOutput(entity, id string) *MessageOutput {
	return messageOutput("%s with id: '%s' was successfully deleted", entity, id)
}

// PageOutput carries a pre-encoded listing body. The body is kept raw so
// an empty listing can answer 204 with no body at all, which huma cannot
// express with a typed body.
type PageOutput struct {
	Status int
	Body   []byte `contentType:"application/json"`
}

func pageOutput(v any) (*PageOutput, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &PageOutput{Status: http.StatusOK, Body: body}, nil
}

func noContent() *PageOutput {
	return &PageOutput{Status: http.StatusNoContent}
}

// emptyToNoContent turns the empty-listing error into a bare 204 and
// passes every other error through.
func emptyToNoContent(err error) (*PageOutput, error) {
	if errors.Is(err, errors.ErrEmpty) {
		return noContent(), nil
	}
	return nil, err
}
