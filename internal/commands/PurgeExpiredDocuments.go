package commands

import (
	"context"
	"fmt"

	"github.com/blxryer/haste-server/internal/scope"
	"github.com/blxryer/haste-server/internal/services/documents"

	"github.com/The127/ioc"
)

type PurgeExpiredDocuments struct{}

type PurgeExpiredDocumentsResponse struct {
	Purged int64
}

func HandlePurgeExpiredDocuments(ctx context.Context, _ PurgeExpiredDocuments) (*PurgeExpiredDocumentsResponse, error) {
	store := ioc.GetDependency[*documents.Store](scope.GetScope(ctx))

	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to purge documents: %w", err)
	}

	return &PurgeExpiredDocumentsResponse{
		Purged: purged,
	}, nil
}
