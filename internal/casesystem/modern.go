package casesystem

import (
	"context"
	"log/slog"
	"net/http"
)

// ModernClient queries the modern case system.
type ModernClient struct {
	c *client
}

func NewModernClient(cfg Config, logger *slog.Logger) *ModernClient {
	return &ModernClient{c: newClient("modern", cfg, logger)}
}

type identRequest struct {
	Ident string `json:"ident"`
}

func (m *ModernClient) QueryModernCaseStatus(ctx context.Context, subject string) (ModernStatus, error) {
	var status ModernStatus
	if _, err := m.c.do(ctx, http.MethodPost, "/api/cases/status", identRequest{Ident: subject}, &status); err != nil {
		return ModernStatus{}, err
	}
	return status, nil
}
