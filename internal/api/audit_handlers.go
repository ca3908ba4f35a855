package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
)

func (s *Server) registerAuditRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "auditCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit",
		Summary:     "Audit catalog consistency",
		Description: "Scans every document and reports cross-document invariant violations",
		Tags:        []string{"Audit"},
	}, s.handleAudit)
}

// === DTOs ===

type AuditOutput struct {
	Body *catalog.AuditReport
}

// === Handlers ===

func (s *Server) handleAudit(ctx context.Context, _ *struct{}) (*AuditOutput, error) {
	report, err := s.auditor.Audit(ctx)
	if err != nil {
		return nil, err
	}
	return &AuditOutput{Body: report}, nil
}
