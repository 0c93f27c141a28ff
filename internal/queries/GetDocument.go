package queries

import (
	"context"
	"fmt"

	"github.com/blxryer/haste-server/internal/scope"
	"github.com/blxryer/haste-server/internal/services/documents"
	"github.com/blxryer/haste-server/internal/utils/storeError"
	"github.com/blxryer/haste-server/internal/utils/validate"

	"github.com/The127/ioc"
)

type GetDocument struct {
	Key        string `validate:"required,max=255"`
	SkipExpire bool
}

type GetDocumentResponse struct {
	Key   string
	Value string
}

func HandleGetDocument(ctx context.Context, query GetDocument) (*GetDocumentResponse, error) {
	err := validate.Validate(query)
	if err != nil {
		return nil, err
	}

	store := ioc.GetDependency[*documents.Store](scope.GetScope(ctx))

	value, ok, err := store.Get(ctx, query.Key, documents.WithSkipExpire(query.SkipExpire))
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", query.Key, storeError.ErrDocumentNotFound)
	}

	return &GetDocumentResponse{
		Key:   query.Key,
		Value: value,
	}, nil
}
