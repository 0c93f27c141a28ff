package inmemory

import (
	"context"
	"fmt"

	"github.com/blxryer/haste-server/internal/repositories"

	"github.com/hashicorp/go-memdb"
)

const DocumentsTable = "documents"

// DocumentsTableSchema is unique on key, memdb requires the primary index to be named id.
var DocumentsTableSchema = &memdb.TableSchema{
	Name: DocumentsTable,
	Indexes: map[string]*memdb.IndexSchema{
		"id": {
			Name:    "id",
			Unique:  true,
			Indexer: &memdb.StringFieldIndex{Field: "Key"},
		},
	},
}

type memoryDocument struct {
	Key        string
	Value      string
	Expiration *int64
}

func (d memoryDocument) Map() *repositories.Document {
	return repositories.NewDocument(d.Key, d.Value, copyExpiration(d.Expiration))
}

func copyExpiration(expiration *int64) *int64 {
	if expiration == nil {
		return nil
	}

	copied := *expiration
	return &copied
}

type DocumentRepository struct {
	memDB *memdb.MemDB
}

func NewInMemoryDocumentRepository(memDB *memdb.MemDB) *DocumentRepository {
	return &DocumentRepository{
		memDB: memDB,
	}
}

func (r *DocumentRepository) First(_ context.Context, filter *repositories.DocumentFilter) (*repositories.Document, error) {
	txn := r.memDB.Txn(false)
	defer txn.Abort()

	if filter.HasKey() {
		obj, err := txn.First(DocumentsTable, "id", filter.GetKey())
		if err != nil {
			return nil, fmt.Errorf("failed to get document: %w", err)
		}
		if obj == nil {
			return nil, nil
		}

		document := obj.(memoryDocument).Map()
		if !filter.Matches(document) {
			return nil, nil
		}

		return document, nil
	}

	iterator, err := txn.Get(DocumentsTable, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		document := obj.(memoryDocument).Map()
		if filter.Matches(document) {
			return document, nil
		}
	}

	return nil, nil
}

func (r *DocumentRepository) Upsert(_ context.Context, document *repositories.Document) error {
	txn := r.memDB.Txn(true)
	defer txn.Abort()

	err := txn.Insert(DocumentsTable, memoryDocument{
		Key:        document.GetKey(),
		Value:      document.GetValue(),
		Expiration: copyExpiration(document.GetExpiration()),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	txn.Commit()
	return nil
}

func (r *DocumentRepository) UpdateExpiration(_ context.Context, key string, expiration int64) (int64, error) {
	txn := r.memDB.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(DocumentsTable, "id", key)
	if err != nil {
		return 0, fmt.Errorf("failed to get document: %w", err)
	}
	if obj == nil {
		return 0, nil
	}

	updated := obj.(memoryDocument)
	updated.Expiration = &expiration

	err = txn.Insert(DocumentsTable, updated)
	if err != nil {
		return 0, fmt.Errorf("failed to update document expiration: %w", err)
	}

	txn.Commit()
	return 1, nil
}

func (r *DocumentRepository) DeleteExpired(_ context.Context, now int64) (int64, error) {
	txn := r.memDB.Txn(true)
	defer txn.Abort()

	iterator, err := txn.Get(DocumentsTable, "id")
	if err != nil {
		return 0, fmt.Errorf("failed to get documents: %w", err)
	}

	// collect first, deleting while iterating a write txn is unsafe
	var expired []memoryDocument
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		document := obj.(memoryDocument)
		if !document.Map().IsLiveAt(now) {
			expired = append(expired, document)
		}
	}

	for _, document := range expired {
		err := txn.Delete(DocumentsTable, document)
		if err != nil {
			return 0, fmt.Errorf("failed to delete document %s: %w", document.Key, err)
		}
	}

	txn.Commit()
	return int64(len(expired)), nil
}
