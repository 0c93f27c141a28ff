package inmemory

import (
	"fmt"

	db "github.com/blxryer/haste-server/internal/database"
	"github.com/blxryer/haste-server/internal/repositories"
	"github.com/blxryer/haste-server/internal/repositories/inmemory"

	"github.com/hashicorp/go-memdb"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		inmemory.DocumentsTable: inmemory.DocumentsTableSchema,
	},
}

type database struct {
	memDB     *memdb.MemDB
	documents *inmemory.DocumentRepository
}

func NewInMemoryDatabase() (db.Database, error) {
	memDb, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}

	return &database{
		memDB:     memDb,
		documents: inmemory.NewInMemoryDocumentRepository(memDb),
	}, nil
}

// Migrate is a no-op, the schema is fixed when the database is created.
func (d *database) Migrate() error {
	return nil
}

func (d *database) Documents() repositories.DocumentRepository {
	return d.documents
}

func (d *database) Close() error {
	return nil
}
