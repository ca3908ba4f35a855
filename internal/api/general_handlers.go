package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerGeneralRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "hello",
		Method:      http.MethodGet,
		Path:        "/api/v1/hello",
		Summary:     "Greeting",
		Description: "Answers with a greeting so callers can check the API is reachable",
		Tags:        []string{"General"},
	}, s.handleHello)

	huma.Register(s.api, huma.Operation{
		OperationID:   "healthCheck",
		Method:        http.MethodGet,
		Path:          "/api/v1/health",
		Summary:       "Health check",
		Description:   "Reports service health",
		Tags:          []string{"General"},
		DefaultStatus: http.StatusMultiStatus,
	}, s.handleHealth)
}

// === DTOs ===

type HelloOutput struct {
	Body string
}

type HealthResponse struct {
	Status  string `json:"status" doc:"Service status"`
	Message string `json:"message" doc:"Status description"`
}

type HealthOutput struct {
	Body HealthResponse
}

// === Handlers ===

func (s *Server) handleHello(_ context.Context, _ *struct{}) (*HelloOutput, error) {
	return &HelloOutput{Body: "Hello there 👋, the CineLog API is running!!"}, nil
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{
		Body: HealthResponse{
			Status:  "UP",
			Message: "All systems working correctly.",
		},
	}, nil
}
