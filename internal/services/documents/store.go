package documents

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/blxryer/haste-server/internal/logging"
	"github.com/blxryer/haste-server/internal/repositories"
	"github.com/blxryer/haste-server/internal/services/clock"
	"github.com/blxryer/haste-server/internal/utils/pointer"
	"github.com/blxryer/haste-server/internal/utils/validate"

	"github.com/patrickmn/go-cache"
)

type Options struct {
	SkipExpire bool
}

type Option func(*Options)

// SkipExpire stores a document without expiration on Set, and reads without
// refreshing the expiration on Get.
func SkipExpire() Option {
	return func(o *Options) {
		o.SkipExpire = true
	}
}

func WithSkipExpire(skipExpire bool) Option {
	return func(o *Options) {
		o.SkipExpire = skipExpire
	}
}

func collectOptions(opts []Option) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Store keeps documents under caller supplied keys with a sliding expiration.
type Store struct {
	documents repositories.DocumentRepository
	clock     clock.Service
	ttl       int64

	refreshes *cache.Cache
	pending   sync.WaitGroup
}

// NewStore expects the schema behind documents to be provisioned already.
// A ttl below one second disables expiration.
func NewStore(documents repositories.DocumentRepository, clockService clock.Service, ttl time.Duration) *Store {
	return &Store{
		documents: documents,
		clock:     clockService,
		ttl:       int64(ttl / time.Second),
		refreshes: cache.New(time.Minute, 5*time.Minute),
	}
}

func (s *Store) expiresAt(now int64) *int64 {
	if s.ttl <= 0 {
		return nil
	}

	return pointer.To(now + s.ttl)
}

func (s *Store) Set(ctx context.Context, key string, value string, opts ...Option) error {
	options := collectOptions(opts)

	err := validate.Key(key)
	if err != nil {
		return err
	}

	var expiration *int64
	if !options.SkipExpire {
		expiration = s.expiresAt(clock.UnixNow(s.clock))
	}

	err = s.documents.Upsert(ctx, repositories.NewDocument(key, value, expiration))
	if err != nil {
		logging.Logger.Errorf("error persisting document %s: %s", key, err)
		return fmt.Errorf("persisting document: %w", err)
	}

	return nil
}

// Get returns ok false without an error when no live document exists for key.
func (s *Store) Get(ctx context.Context, key string, opts ...Option) (string, bool, error) {
	options := collectOptions(opts)
	now := clock.UnixNow(s.clock)

	filter := repositories.NewDocumentFilter().
		ByKey(key).
		LiveAt(now)
	document, err := s.documents.First(ctx, filter)
	if err != nil {
		logging.Logger.Errorf("error retrieving document %s: %s", key, err)
		return "", false, fmt.Errorf("retrieving document: %w", err)
	}
	if document == nil {
		return "", false, nil
	}

	if document.HasExpiration() && !options.SkipExpire {
		expiration := s.expiresAt(now)
		if expiration != nil {
			s.refresh(ctx, key, *expiration)
		}
	}

	return document.GetValue(), true, nil
}

// SetAsync runs Set in the background and reports success to onDone exactly once.
func (s *Store) SetAsync(ctx context.Context, key string, value string, onDone func(ok bool), opts ...Option) {
	go func() {
		err := s.Set(ctx, key, value, opts...)
		onDone(err == nil)
	}()
}

// GetAsync runs Get in the background, onDone receives ok false for missing
// documents and failures alike.
func (s *Store) GetAsync(ctx context.Context, key string, onDone func(value string, ok bool), opts ...Option) {
	go func() {
		value, ok, err := s.Get(ctx, key, opts...)
		onDone(value, ok && err == nil)
	}()
}

// PurgeExpired deletes the documents reads already treat as missing.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.documents.DeleteExpired(ctx, clock.UnixNow(s.clock))
	if err != nil {
		logging.Logger.Errorf("error purging expired documents: %s", err)
		return 0, fmt.Errorf("purging expired documents: %w", err)
	}

	logging.Logger.Infof("purged %d expired documents", purged)
	return purged, nil
}

// refresh moves the expiration of key in the background. Failures are logged
// only. A refresh to the same second that is already issued is skipped, it
// would write the same value.
func (s *Store) refresh(ctx context.Context, key string, expiration int64) {
	token := key + "@" + strconv.FormatInt(expiration, 10)
	if s.refreshes.Add(token, struct{}{}, cache.DefaultExpiration) != nil {
		return
	}

	ctx = context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		touched, err := s.documents.UpdateExpiration(ctx, key, expiration)
		if err != nil {
			s.refreshes.Delete(token)
			logging.Logger.Errorf("error updating expiration of document %s: %s", key, err)
			return
		}

		if touched == 0 {
			logging.Logger.Debugf("expiration refresh of document %s touched nothing", key)
		}
	}()
}

// Wait blocks until all issued expiration refreshes finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) Close() error {
	s.Wait()
	s.refreshes.Flush()
	return nil
}
