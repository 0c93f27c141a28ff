package documents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blxryer/haste-server/internal/database/inmemory"
	"github.com/blxryer/haste-server/internal/repositories"
	"github.com/blxryer/haste-server/internal/services/clock"
	"github.com/blxryer/haste-server/internal/utils/storeError"

	"github.com/stretchr/testify/suite"
)

var errBackend = errors.New("backend unavailable")

type faultyRepository struct {
	repositories.DocumentRepository

	mu            sync.Mutex
	failUpsertKey string
	failFirst     bool
	failRefresh   bool
	refreshCalls  int
}

func (r *faultyRepository) First(ctx context.Context, filter *repositories.DocumentFilter) (*repositories.Document, error) {
	r.mu.Lock()
	fail := r.failFirst
	r.mu.Unlock()

	if fail {
		return nil, errBackend
	}
	return r.DocumentRepository.First(ctx, filter)
}

func (r *faultyRepository) Upsert(ctx context.Context, document *repositories.Document) error {
	r.mu.Lock()
	fail := r.failUpsertKey != "" && r.failUpsertKey == document.GetKey()
	r.mu.Unlock()

	if fail {
		return errBackend
	}
	return r.DocumentRepository.Upsert(ctx, document)
}

func (r *faultyRepository) UpdateExpiration(ctx context.Context, key string, expiration int64) (int64, error) {
	r.mu.Lock()
	r.refreshCalls++
	fail := r.failRefresh
	r.mu.Unlock()

	if fail {
		return 0, errBackend
	}
	return r.DocumentRepository.UpdateExpiration(ctx, key, expiration)
}

func (r *faultyRepository) RefreshCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshCalls
}

type StoreTestSuite struct {
	suite.Suite

	ctx        context.Context
	start      time.Time
	clock      clock.Service
	setTime    clock.TimeSetterFn
	repository *faultyRepository
}

func TestStoreTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	db, err := inmemory.NewInMemoryDatabase()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.start = time.Unix(1_700_000_000, 0)
	s.clock, s.setTime = clock.NewMockService(s.start)
	s.repository = &faultyRepository{DocumentRepository: db.Documents()}
}

func (s *StoreTestSuite) newStore(ttl time.Duration) *Store {
	store := NewStore(s.repository, s.clock, ttl)
	s.T().Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func (s *StoreTestSuite) at(seconds int64) {
	s.setTime(s.start.Add(time.Duration(seconds) * time.Second))
}

func (s *StoreTestSuite) unix(seconds int64) int64 {
	return s.start.Unix() + seconds
}

func (s *StoreTestSuite) storedExpiration(key string) *int64 {
	document, err := s.repository.DocumentRepository.First(s.ctx, repositories.NewDocumentFilter().ByKey(key))
	s.Require().NoError(err)
	s.Require().NotNil(document)
	return document.GetExpiration()
}

func (s *StoreTestSuite) TestSetThenGet() {
	// arrange
	store := s.newStore(100 * time.Second)

	// act
	err := store.Set(s.ctx, "a", "x")
	s.Require().NoError(err)
	value, ok, err := store.Get(s.ctx, "a")

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("x", value)
}

func (s *StoreTestSuite) TestSetStoresExpirationFromTtl() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)

	// act
	err := store.Set(s.ctx, "a", "x")

	// assert
	s.Require().NoError(err)
	s.Require().NotNil(s.storedExpiration("a"))
	s.Equal(s.unix(100), *s.storedExpiration("a"))
}

func (s *StoreTestSuite) TestSetIsIdempotent() {
	// arrange
	store := s.newStore(100 * time.Second)

	// act
	s.Require().NoError(store.Set(s.ctx, "a", "x"))
	s.Require().NoError(store.Set(s.ctx, "a", "x"))

	// assert
	value, ok, err := store.Get(s.ctx, "a", SkipExpire())
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("x", value)

	purged, err := s.repository.DeleteExpired(s.ctx, s.unix(1000))
	s.Require().NoError(err)
	s.Equal(int64(1), purged)
}

func (s *StoreTestSuite) TestSetOverwritesValueAndExpiration() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))

	// act
	err := store.Set(s.ctx, "a", "y", SkipExpire())

	// assert
	s.Require().NoError(err)
	s.Nil(s.storedExpiration("a"))

	s.at(10_000)
	value, ok, err := store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("y", value)
}

func (s *StoreTestSuite) TestExpiredDocumentIsMissing() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))

	// act
	s.at(99)
	beforeValue, beforeOk, beforeErr := store.Get(s.ctx, "a", SkipExpire())
	s.at(100)
	atOk := s.exists(store, "a")
	s.at(101)
	afterOk := s.exists(store, "a")

	// assert
	s.Require().NoError(beforeErr)
	s.True(beforeOk)
	s.Equal("x", beforeValue)
	s.False(atOk)
	s.False(afterOk)
}

func (s *StoreTestSuite) exists(store *Store, key string) bool {
	_, ok, err := store.Get(s.ctx, key, SkipExpire())
	s.Require().NoError(err)
	return ok
}

func (s *StoreTestSuite) TestGetSlidesExpiration() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))

	// act
	s.at(50)
	value, ok, err := store.Get(s.ctx, "a")
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("x", value)
	s.Equal(s.unix(150), *s.storedExpiration("a"))

	s.at(140)
	value, ok, err = store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("x", value)
}

func (s *StoreTestSuite) TestGetWithSkipExpireKeepsExpiration() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))

	// act
	s.at(50)
	value, ok, err := store.Get(s.ctx, "a", SkipExpire())
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("x", value)
	s.Equal(s.unix(100), *s.storedExpiration("a"))
	s.Equal(0, s.repository.RefreshCalls())

	s.at(101)
	_, ok, err = store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StoreTestSuite) TestNoTtlNeverExpires() {
	// arrange
	store := s.newStore(0)
	s.Require().NoError(store.Set(s.ctx, "b", "y"))

	// act
	s.at(1 << 30)
	value, ok, err := store.Get(s.ctx, "b")
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("y", value)
	s.Nil(s.storedExpiration("b"))
	s.Equal(0, s.repository.RefreshCalls())
}

func (s *StoreTestSuite) TestSkipExpireOnSetNeverExpires() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.Require().NoError(store.Set(s.ctx, "b", "y", SkipExpire()))

	// act
	s.at(1 << 30)
	value, ok, err := store.Get(s.ctx, "b")

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("y", value)
}

func (s *StoreTestSuite) TestNoTtlDoesNotRefreshExistingExpiration() {
	// arrange
	expiring := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(expiring.Set(s.ctx, "a", "x"))
	store := s.newStore(0)

	// act
	s.at(50)
	_, ok, err := store.Get(s.ctx, "a")
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(s.unix(100), *s.storedExpiration("a"))
	s.Equal(0, s.repository.RefreshCalls())
}

func (s *StoreTestSuite) TestGetMissingKey() {
	// arrange
	store := s.newStore(100 * time.Second)

	// act
	value, ok, err := store.Get(s.ctx, "missing")

	// assert
	s.Require().NoError(err)
	s.False(ok)
	s.Empty(value)
}

func (s *StoreTestSuite) TestSetFailureLeavesOtherKeysIntact() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))
	s.repository.failUpsertKey = "broken"

	// act
	err := store.Set(s.ctx, "broken", "z")

	// assert
	s.ErrorIs(err, errBackend)

	value, ok, err := store.Get(s.ctx, "a", SkipExpire())
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("x", value)

	_, ok, err = store.Get(s.ctx, "broken")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StoreTestSuite) TestGetFailureIsReported() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.repository.failFirst = true

	// act
	value, ok, err := store.Get(s.ctx, "a")

	// assert
	s.ErrorIs(err, errBackend)
	s.False(ok)
	s.Empty(value)
}

func (s *StoreTestSuite) TestRefreshFailureDoesNotAffectGet() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))
	s.repository.failRefresh = true

	// act
	s.at(50)
	value, ok, err := store.Get(s.ctx, "a")
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("x", value)
	s.Equal(1, s.repository.RefreshCalls())
	s.Equal(s.unix(100), *s.storedExpiration("a"))
}

func (s *StoreTestSuite) TestFailedRefreshIsRetriedByNextGet() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))
	s.repository.failRefresh = true
	s.at(50)
	_, _, err := store.Get(s.ctx, "a")
	s.Require().NoError(err)
	store.Wait()
	s.repository.failRefresh = false

	// act
	_, _, err = store.Get(s.ctx, "a")
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.Equal(2, s.repository.RefreshCalls())
	s.Equal(s.unix(150), *s.storedExpiration("a"))
}

func (s *StoreTestSuite) TestRefreshesWithinOneSecondAreCoalesced() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))

	// act
	s.at(50)
	for range 3 {
		_, ok, err := store.Get(s.ctx, "a")
		s.Require().NoError(err)
		s.True(ok)
	}
	store.Wait()
	s.at(51)
	_, _, err := store.Get(s.ctx, "a")
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.Equal(2, s.repository.RefreshCalls())
	s.Equal(s.unix(151), *s.storedExpiration("a"))
}

func (s *StoreTestSuite) TestRefreshOutlivesCanceledContext() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))
	ctx, cancel := context.WithCancel(s.ctx)

	// act
	s.at(50)
	_, ok, err := store.Get(ctx, "a")
	cancel()
	store.Wait()

	// assert
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(s.unix(150), *s.storedExpiration("a"))
}

func (s *StoreTestSuite) TestSetRejectsInvalidKeys() {
	// arrange
	store := s.newStore(100 * time.Second)

	// act
	emptyErr := store.Set(s.ctx, "", "x")
	longErr := store.Set(s.ctx, strings.Repeat("k", 256), "x")
	maxErr := store.Set(s.ctx, strings.Repeat("k", 255), "x")

	// assert
	s.ErrorIs(emptyErr, storeError.ErrBadRequest)
	s.ErrorIs(longErr, storeError.ErrBadRequest)
	s.NoError(maxErr)
}

func (s *StoreTestSuite) TestSetAsync() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.repository.failUpsertKey = "broken"
	done := make(chan bool, 2)

	// act
	store.SetAsync(s.ctx, "a", "x", func(ok bool) { done <- ok })
	first := <-done
	store.SetAsync(s.ctx, "broken", "x", func(ok bool) { done <- ok })
	second := <-done

	// assert
	s.True(first)
	s.False(second)
}

func (s *StoreTestSuite) TestGetAsync() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))

	type result struct {
		value string
		ok    bool
	}
	done := make(chan result, 1)
	onDone := func(value string, ok bool) { done <- result{value: value, ok: ok} }

	// act
	store.GetAsync(s.ctx, "a", onDone)
	found := <-done
	store.GetAsync(s.ctx, "missing", onDone)
	missing := <-done
	s.repository.mu.Lock()
	s.repository.failFirst = true
	s.repository.mu.Unlock()
	store.GetAsync(s.ctx, "a", onDone)
	failed := <-done

	// assert
	s.Equal(result{value: "x", ok: true}, found)
	s.False(missing.ok)
	s.False(failed.ok)
}

func (s *StoreTestSuite) TestPurgeExpired() {
	// arrange
	store := s.newStore(100 * time.Second)
	s.at(0)
	s.Require().NoError(store.Set(s.ctx, "a", "x"))
	s.Require().NoError(store.Set(s.ctx, "b", "y", SkipExpire()))

	// act
	s.at(200)
	purged, err := store.PurgeExpired(s.ctx)

	// assert
	s.Require().NoError(err)
	s.Equal(int64(1), purged)
	s.True(s.exists(store, "b"))
}
