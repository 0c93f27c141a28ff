package database

import (
	"github.com/blxryer/haste-server/internal/repositories"
)

type Database interface {
	// Migrate provisions the document schema, it is safe to run repeatedly.
	Migrate() error
	Documents() repositories.DocumentRepository
	Close() error
}
