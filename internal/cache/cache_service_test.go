package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"ca-backoffice/internal/license"

	"github.com/rs/zerolog"
)

// newDegradableService builds a Service without a Redis client. The breaker
// state machine never touches the client, and an open breaker short-circuits
// every operation before the client is used.
func newDegradableService(checkInterval time.Duration) *Service {
	return &Service{
		log:           zerolog.Nop(),
		healthy:       true,
		maxFailures:   3,
		checkInterval: checkInterval,
	}
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	s := newDegradableService(time.Hour)
	errDown := errors.New("connection refused")

	s.recordFailure(errDown)
	s.recordFailure(errDown)
	if !s.Healthy() {
		t.Fatal("Breaker must stay closed below the failure threshold")
	}

	s.recordFailure(errDown)
	if s.Healthy() {
		t.Fatal("Breaker should open after three consecutive failures")
	}
}

func TestBreakerAllowsRetryAfterInterval(t *testing.T) {
	s := newDegradableService(50 * time.Millisecond)
	errDown := errors.New("connection refused")
	for i := 0; i < 3; i++ {
		s.recordFailure(errDown)
	}
	if s.Healthy() {
		t.Fatal("Breaker should be open")
	}

	time.Sleep(60 * time.Millisecond)
	if !s.Healthy() {
		t.Error("An open breaker should let a request through once the interval passes")
	}
}

func TestBreakerClosesOnSuccess(t *testing.T) {
	s := newDegradableService(time.Hour)
	errDown := errors.New("connection refused")
	for i := 0; i < 3; i++ {
		s.recordFailure(errDown)
	}

	s.recordSuccess()
	if !s.Healthy() {
		t.Error("A successful operation should close the breaker")
	}

	// The failure count resets too: two fresh failures keep it closed.
	s.recordFailure(errDown)
	s.recordFailure(errDown)
	if !s.Healthy() {
		t.Error("Failure count should reset on recovery")
	}
}

func TestDegradedCacheSkipsOperations(t *testing.T) {
	s := newDegradableService(time.Hour)
	errDown := errors.New("connection refused")
	for i := 0; i < 3; i++ {
		s.recordFailure(errDown)
	}
	ctx := context.Background()

	// Every operation must bail out before reaching the (absent) client.
	if _, err := s.GetInt(ctx, KeyActiveStaffCount); err != ErrMiss {
		t.Errorf("GetInt on a degraded cache = %v, want ErrMiss", err)
	}
	var dest struct{}
	if err := s.GetJSON(ctx, KeyLicenseStatus, &dest); err != ErrMiss {
		t.Errorf("GetJSON on a degraded cache = %v, want ErrMiss", err)
	}
	s.SetInt(ctx, KeyActiveStaffCount, 5, ActiveStaffTTL)
	s.SetJSON(ctx, KeyLicenseStatus, dest, LicenseStatusTTL)
	s.Invalidate(ctx, KeyActiveStaffCount)
}

// countingStore records how often its methods run, standing in for the
// database repository.
type countingStore struct {
	license.Store
	countCalls int
	staff      int
}

func (f *countingStore) CountActiveStaff(ctx context.Context) (int, error) {
	f.countCalls++
	return f.staff, nil
}

func TestCachedStoreFallsBackWhenDegraded(t *testing.T) {
	s := newDegradableService(time.Hour)
	for i := 0; i < 3; i++ {
		s.recordFailure(errors.New("connection refused"))
	}

	backing := &countingStore{staff: 7}
	store := NewCachedStore(backing, s)

	for i := 0; i < 2; i++ {
		n, err := store.CountActiveStaff(context.Background())
		if err != nil {
			t.Fatalf("CountActiveStaff failed: %v", err)
		}
		if n != 7 {
			t.Errorf("CountActiveStaff = %d, want 7", n)
		}
	}
	if backing.countCalls != 2 {
		t.Errorf("Backing store calls = %d, want every read to fall through", backing.countCalls)
	}
}

func TestNewCachedStoreNilServicePassthrough(t *testing.T) {
	backing := &countingStore{staff: 1}
	if store := NewCachedStore(backing, nil); store != license.Store(backing) {
		t.Error("A nil cache service should return the store unchanged")
	}
}
