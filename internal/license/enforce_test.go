package license

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ca-backoffice/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// fakeStore is an in-memory Store for middleware tests.
type fakeStore struct {
	mu          sync.Mutex
	records     []*Record
	nextID      int64
	activeStaff int
	failReads   bool
	failWrites  bool
}

var errStoreDown = errors.New("store unavailable")

func (f *fakeStore) GetActiveLicense(ctx context.Context) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errStoreDown
	}
	var newest *Record
	for _, r := range f.records {
		if r.Status == StatusActive && (newest == nil || r.ID > newest.ID) {
			newest = r
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (f *fakeStore) ReplaceActiveLicense(ctx context.Context, rec *Record) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return 0, errStoreDown
	}
	for _, r := range f.records {
		if r.Status == StatusActive {
			r.Status = StatusExpired
		}
	}
	f.nextID++
	cp := *rec
	cp.ID = f.nextID
	cp.Status = StatusActive
	f.records = append(f.records, &cp)
	return cp.ID, nil
}

func (f *fakeStore) SetLicenseStatus(ctx context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errStoreDown
	}
	for _, r := range f.records {
		if r.ID == id {
			r.Status = status
		}
	}
	return nil
}

func (f *fakeStore) ExpireActiveLicenses(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return 0, errStoreDown
	}
	var n int64
	for _, r := range f.records {
		if r.Status == StatusActive {
			r.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountActiveStaff(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return 0, errStoreDown
	}
	return f.activeStaff, nil
}

func (f *fakeStore) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.records {
		if r.Status == StatusActive {
			n++
		}
	}
	return n
}

func newTestEnforcer(t *testing.T, store *fakeStore) (*Enforcer, *Issuer) {
	t.Helper()
	codec := NewCodec(testSecret)
	return NewEnforcer(store, NewVerifier(codec), nil, zerolog.Nop()), NewIssuer(codec)
}

// mountGate mounts the middleware ahead of a handler that records whether
// claims reached the request context.
func mountGate(e *Enforcer) (*gin.Engine, *bool, **Claims) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	reached := false
	var seen *Claims
	router.GET("/protected", e.Middleware(), func(c *gin.Context) {
		reached = true
		seen = ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, &reached, &seen
}

func doRequest(router *gin.Engine) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestMiddlewareNoActiveLicense(t *testing.T) {
	store := &fakeStore{activeStaff: 1}
	enforcer, _ := newTestEnforcer(t, store)
	router, reached, seen := mountGate(enforcer)

	w, body := doRequest(router)
	if w.Code != http.StatusForbidden {
		t.Errorf("Status = %d, want 403", w.Code)
	}
	if body["requires_license"] != true {
		t.Errorf("Expected requires_license flag, got %v", body)
	}
	if *reached {
		t.Error("Handler must not run without a license")
	}
	if *seen != nil {
		t.Error("No claims may be attached when rejecting")
	}
}

func TestMiddlewareExpiredLicenseAutoExpires(t *testing.T) {
	store := &fakeStore{activeStaff: 1}
	enforcer, issuer := newTestEnforcer(t, store)

	token, err := issuer.Issue(IssueParams{
		Kind:           TypeCommercial,
		Company:        "Acme CA",
		DurationMonths: 1,
		Now:            time.Now().AddDate(-1, 0, 0),
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	store.records = append(store.records, &Record{
		ID: 1, Token: token, Company: "Acme CA", Status: StatusActive, MaxUsers: 5,
	})

	router, _, _ := mountGate(enforcer)
	w, body := doRequest(router)
	if w.Code != http.StatusForbidden {
		t.Errorf("Status = %d, want 403", w.Code)
	}
	if body["expired"] != true {
		t.Errorf("Expected expired flag, got %v", body)
	}
	if store.activeCount() != 0 {
		t.Error("Expired license should be demoted in storage")
	}
}

func TestMiddlewareRejectStandsWhenDemotionWriteFails(t *testing.T) {
	store := &fakeStore{activeStaff: 1}
	enforcer, issuer := newTestEnforcer(t, store)

	token, _ := issuer.Issue(IssueParams{
		Kind:           TypeCommercial,
		Company:        "Acme CA",
		DurationMonths: 1,
		Now:            time.Now().AddDate(-1, 0, 0),
	})
	store.records = append(store.records, &Record{ID: 1, Token: token, Status: StatusActive})
	store.failWrites = true

	router, reached, _ := mountGate(enforcer)
	w, body := doRequest(router)
	if w.Code != http.StatusForbidden || body["expired"] != true {
		t.Errorf("Reject must stand despite the failed demotion write, got %d %v", w.Code, body)
	}
	if *reached {
		t.Error("Handler must not run")
	}
}

func TestMiddlewareSeatLimitBoundary(t *testing.T) {
	store := &fakeStore{}
	enforcer, issuer := newTestEnforcer(t, store)

	token, err := issuer.Issue(IssueParams{
		Kind:     TypeCommercial,
		Company:  "Acme CA",
		MaxUsers: 5,
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := enforcer.Activate(context.Background(), token); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	// Exactly at the limit: allowed.
	store.activeStaff = 5
	router, reached, seen := mountGate(enforcer)
	w, _ := doRequest(router)
	if w.Code != http.StatusOK {
		t.Errorf("Status at limit = %d, want 200", w.Code)
	}
	if !*reached || *seen == nil {
		t.Error("Handler should run with claims attached at the seat limit")
	}

	// One over: rejected, record stays active, message names both counts.
	store.activeStaff = 6
	router2, reached2, _ := mountGate(enforcer)
	w2, body := doRequest(router2)
	if w2.Code != http.StatusForbidden {
		t.Errorf("Status over limit = %d, want 403", w2.Code)
	}
	if body["user_limit_exceeded"] != true {
		t.Errorf("Expected user_limit_exceeded flag, got %v", body)
	}
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "5") || !strings.Contains(msg, "6") {
		t.Errorf("Message should cite both allowed and actual counts, got %q", msg)
	}
	if *reached2 {
		t.Error("Handler must not run over the seat limit")
	}
	if store.activeCount() != 1 {
		t.Error("Seat overage must not auto-expire the stored license")
	}
}

func TestMiddlewarePublishesLifecycleEvents(t *testing.T) {
	store := &fakeStore{activeStaff: 1}
	codec := NewCodec(testSecret)
	bus := events.NewEventBus()
	enforcer := NewEnforcer(store, NewVerifier(codec), bus, zerolog.Nop())
	issuer := NewIssuer(codec)

	expired := make(chan events.Event, 1)
	overLimit := make(chan events.Event, 1)
	bus.Subscribe(events.EventLicenseExpired, func(ev events.Event) { expired <- ev })
	bus.Subscribe(events.EventSeatLimitExceeded, func(ev events.Event) { overLimit <- ev })

	staleToken, _ := issuer.Issue(IssueParams{
		Kind:           TypeCommercial,
		Company:        "Acme CA",
		DurationMonths: 1,
		Now:            time.Now().AddDate(-1, 0, 0),
	})
	store.records = append(store.records, &Record{
		ID: 1, Token: staleToken, Company: "Acme CA", Status: StatusActive,
	})

	router, _, _ := mountGate(enforcer)
	doRequest(router)
	select {
	case ev := <-expired:
		if ev.Data["company"] != "Acme CA" {
			t.Errorf("Expired event data = %v, want company name", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected an expiry event after auto-demotion")
	}

	freshToken, _ := issuer.Issue(IssueParams{Kind: TypeCommercial, Company: "Acme CA", MaxUsers: 2})
	if _, err := enforcer.Activate(context.Background(), freshToken); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	store.activeStaff = 3

	doRequest(router)
	select {
	case ev := <-overLimit:
		if ev.Data["max_users"] != 2 || ev.Data["active_staff"] != 3 {
			t.Errorf("Seat event data = %v, want both counts", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a seat overage event")
	}
}

func TestMiddlewarePersistenceFailureNeverAllows(t *testing.T) {
	store := &fakeStore{failReads: true}
	enforcer, _ := newTestEnforcer(t, store)

	router, reached, _ := mountGate(enforcer)
	w, _ := doRequest(router)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	if *reached {
		t.Error("A persistence failure must never be treated as a valid license")
	}
}

func TestActivateSupersedesAtomically(t *testing.T) {
	store := &fakeStore{}
	enforcer, issuer := newTestEnforcer(t, store)
	ctx := context.Background()

	tokenA, _ := issuer.Issue(IssueParams{Kind: TypeCommercial, Company: "Firm A"})
	tokenB, _ := issuer.Issue(IssueParams{Kind: TypeEnterprise, Company: "Firm B"})

	if _, err := enforcer.Activate(ctx, tokenA); err != nil {
		t.Fatalf("Activate A failed: %v", err)
	}
	if _, err := enforcer.Activate(ctx, tokenB); err != nil {
		t.Fatalf("Activate B failed: %v", err)
	}

	if store.activeCount() != 1 {
		t.Fatalf("Active records = %d, want exactly 1", store.activeCount())
	}
	rec, err := store.GetActiveLicense(ctx)
	if err != nil || rec == nil {
		t.Fatalf("GetActiveLicense failed: %v", err)
	}
	if rec.Company != "Firm B" {
		t.Errorf("Active company = %q, want the superseding license", rec.Company)
	}
}

func TestActivateRejectsInvalidToken(t *testing.T) {
	store := &fakeStore{}
	enforcer, _ := newTestEnforcer(t, store)

	_, err := enforcer.Activate(context.Background(), "junk-token")
	if err == nil {
		t.Fatal("Expected activation of an invalid token to fail")
	}
	var actErr *ActivationError
	if !errors.As(err, &actErr) {
		t.Errorf("Expected ActivationError, got %T", err)
	}
	if len(store.records) != 0 {
		t.Error("An invalid token must never reach persistence")
	}
}

func TestDeactivateIdempotent(t *testing.T) {
	store := &fakeStore{}
	enforcer, issuer := newTestEnforcer(t, store)
	ctx := context.Background()

	token, _ := issuer.Issue(IssueParams{Kind: TypeCommercial, Company: "Acme CA"})
	if _, err := enforcer.Activate(ctx, token); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	if err := enforcer.Deactivate(ctx); err != nil {
		t.Fatalf("First Deactivate failed: %v", err)
	}
	if store.activeCount() != 0 {
		t.Error("Expected no active records after deactivation")
	}
	if err := enforcer.Deactivate(ctx); err != nil {
		t.Errorf("Second Deactivate should be a no-op, got %v", err)
	}
}

func TestStatusReport(t *testing.T) {
	store := &fakeStore{activeStaff: 3}
	enforcer, issuer := newTestEnforcer(t, store)
	ctx := context.Background()

	report, err := enforcer.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if report.Activated {
		t.Error("Expected Activated=false before any activation")
	}

	token, _ := issuer.Issue(IssueParams{
		Kind:           TypeCommercial,
		Company:        "Acme CA",
		MaxUsers:       5,
		DurationMonths: 12,
	})
	if _, err := enforcer.Activate(ctx, token); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	report, err = enforcer.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !report.Activated || !report.Valid {
		t.Errorf("Expected activated valid license, got %+v", report)
	}
	if report.MaxUsers != 5 || report.ActiveStaff != 3 {
		t.Errorf("Seat numbers wrong: %+v", report)
	}
	if report.DaysRemaining < 300 {
		t.Errorf("DaysRemaining = %d, want roughly a year", report.DaysRemaining)
	}
}
