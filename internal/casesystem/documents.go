package casesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentClient fetches document metadata from the archive.
type DocumentClient struct {
	c *client
}

func NewDocumentClient(cfg Config, logger *slog.Logger) *DocumentClient {
	return &DocumentClient{c: newClient("documents", cfg, logger)}
}

func (d *DocumentClient) FetchDocument(ctx context.Context, documentID string) (Document, error) {
	var doc Document
	found, err := d.c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(documentID), nil, &doc)
	if err != nil {
		return Document{}, err
	}
	if !found {
		return Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	return doc, nil
}
