package commands

import (
	"context"
	"fmt"

	"github.com/blxryer/haste-server/internal/scope"
	"github.com/blxryer/haste-server/internal/services/documents"
	"github.com/blxryer/haste-server/internal/utils/validate"

	"github.com/The127/ioc"
)

type SetDocument struct {
	Key        string `validate:"required,max=255"`
	Value      string
	SkipExpire bool
}

type SetDocumentResponse struct {
	Key string
}

func HandleSetDocument(ctx context.Context, command SetDocument) (*SetDocumentResponse, error) {
	err := validate.Validate(command)
	if err != nil {
		return nil, err
	}

	store := ioc.GetDependency[*documents.Store](scope.GetScope(ctx))

	err = store.Set(ctx, command.Key, command.Value, documents.WithSkipExpire(command.SkipExpire))
	if err != nil {
		return nil, fmt.Errorf("failed to set document: %w", err)
	}

	return &SetDocumentResponse{
		Key: command.Key,
	}, nil
}
