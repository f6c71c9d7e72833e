package casesystem

import (
	"context"
	"log/slog"
	"net/http"
)

// LegacyClient queries the legacy case system.
type LegacyClient struct {
	c *client
}

func NewLegacyClient(cfg Config, logger *slog.Logger) *LegacyClient {
	return &LegacyClient{c: newClient("legacy", cfg, logger)}
}

func (l *LegacyClient) QueryLegacyCaseStatus(ctx context.Context, subject string) (LegacyStatus, error) {
	var status LegacyStatus
	if _, err := l.c.do(ctx, http.MethodPost, "/api/saker", identRequest{Ident: subject}, &status); err != nil {
		return LegacyStatus{}, err
	}
	return status, nil
}
