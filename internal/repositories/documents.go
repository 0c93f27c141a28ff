package repositories

import (
	"context"

	"github.com/blxryer/haste-server/internal/utils/pointer"
)

type Document struct {
	key        string
	value      string
	expiration *int64
}

func NewDocument(key string, value string, expiration *int64) *Document {
	return &Document{
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

func (d *Document) GetKey() string {
	return d.key
}

func (d *Document) GetValue() string {
	return d.value
}

// GetExpiration is the absolute unix second the document expires at, nil means never.
func (d *Document) GetExpiration() *int64 {
	return d.expiration
}

func (d *Document) HasExpiration() bool {
	return d.expiration != nil
}

func (d *Document) SetExpiration(expiration *int64) {
	d.expiration = expiration
}

func (d *Document) IsLiveAt(now int64) bool {
	return d.expiration == nil || *d.expiration > now
}

type DocumentFilter struct {
	key    *string
	liveAt *int64
}

func NewDocumentFilter() *DocumentFilter {
	return &DocumentFilter{}
}

func (f *DocumentFilter) clone() *DocumentFilter {
	cloned := *f
	return &cloned
}

func (f *DocumentFilter) ByKey(key string) *DocumentFilter {
	cloned := f.clone()
	cloned.key = &key
	return cloned
}

func (f *DocumentFilter) HasKey() bool {
	return f.key != nil
}

func (f *DocumentFilter) GetKey() string {
	return pointer.DerefOrZero(f.key)
}

// LiveAt restricts the filter to documents that have not expired at now.
func (f *DocumentFilter) LiveAt(now int64) *DocumentFilter {
	cloned := f.clone()
	cloned.liveAt = &now
	return cloned
}

func (f *DocumentFilter) HasLiveAt() bool {
	return f.liveAt != nil
}

func (f *DocumentFilter) GetLiveAt() int64 {
	return pointer.DerefOrZero(f.liveAt)
}

func (f *DocumentFilter) Matches(document *Document) bool {
	if f.HasKey() && document.GetKey() != f.GetKey() {
		return false
	}

	if f.HasLiveAt() && !document.IsLiveAt(f.GetLiveAt()) {
		return false
	}

	return true
}

type DocumentRepository interface {
	// First returns nil without an error when no document matches.
	First(ctx context.Context, filter *DocumentFilter) (*Document, error)
	// Upsert inserts the document or replaces value and expiration of the one stored under its key.
	Upsert(ctx context.Context, document *Document) error
	// UpdateExpiration returns the number of documents touched, zero is not an error.
	UpdateExpiration(ctx context.Context, key string, expiration int64) (int64, error)
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}
