package redisdb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/blxryer/haste-server/internal/repositories"

	"github.com/redis/go-redis/v9"
)

const (
	valueField      = "value"
	expirationField = "expiration"
)

// refreshScript only touches documents that still exist.
var refreshScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("EXPIREAT", KEYS[1], ARGV[2])
return 1
`)

type DocumentRepository struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisDocumentRepository(client redis.UniversalClient, prefix string) *DocumentRepository {
	return &DocumentRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *DocumentRepository) storageKey(key string) string {
	return r.prefix + key
}

func (r *DocumentRepository) First(ctx context.Context, filter *repositories.DocumentFilter) (*repositories.Document, error) {
	if !filter.HasKey() {
		return nil, fmt.Errorf("redis documents can only be looked up by key")
	}

	fields, err := r.client.HGetAll(ctx, r.storageKey(filter.GetKey())).Result()
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	value, ok := fields[valueField]
	if !ok {
		return nil, nil
	}

	var expiration *int64
	if raw, ok := fields[expirationField]; ok {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing expiration of %s: %w", filter.GetKey(), err)
		}
		expiration = &parsed
	}

	// redis evicts on its own clock, the filter is applied against ours
	document := repositories.NewDocument(filter.GetKey(), value, expiration)
	if !filter.Matches(document) {
		return nil, nil
	}

	return document, nil
}

func (r *DocumentRepository) Upsert(ctx context.Context, document *repositories.Document) error {
	key := r.storageKey(document.GetKey())

	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if document.HasExpiration() {
			expiration := *document.GetExpiration()
			p.HSet(ctx, key, valueField, document.GetValue(), expirationField, expiration)
			p.ExpireAt(ctx, key, time.Unix(expiration, 0))
		} else {
			p.HSet(ctx, key, valueField, document.GetValue())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) UpdateExpiration(ctx context.Context, key string, expiration int64) (int64, error) {
	touched, err := refreshScript.Run(ctx, r.client, []string{r.storageKey(key)}, expirationField, expiration).Int64()
	if err != nil {
		return 0, fmt.Errorf("refreshing expiration: %w", err)
	}

	return touched, nil
}

// DeleteExpired is a no-op, redis drops expired keys itself.
func (r *DocumentRepository) DeleteExpired(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}
