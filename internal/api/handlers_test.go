package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("/api/staff") {
			t.Fatalf("request %d should have been allowed", i+1)
		}
	}
	if rl.Allow("/api/staff") {
		t.Error("fourth request should have been rejected")
	}
	// A different endpoint has its own bucket.
	if !rl.Allow("/api/clients") {
		t.Error("different endpoint should not share the limit")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("key") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("key") {
		t.Fatal("second request should be rejected")
	}

	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("key") {
		t.Error("request after window expiry should be allowed")
	}
}

func TestPaginationDefaults(t *testing.T) {
	router := gin.New()
	var limit, offset int
	router.GET("/list", func(c *gin.Context) {
		limit, offset = pagination(c)
		c.Status(http.StatusOK)
	})

	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 50, 0},
		{"?limit=10&offset=20", 10, 20},
		{"?limit=0", 50, 0},
		{"?limit=-5&offset=-1", 50, 0},
		{"?limit=9999", 50, 0},
		{"?limit=abc&offset=xyz", 50, 0},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/list"+tc.query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if limit != tc.wantLimit || offset != tc.wantOffset {
			t.Errorf("query %q: got limit=%d offset=%d, want %d/%d",
				tc.query, limit, offset, tc.wantLimit, tc.wantOffset)
		}
	}
}

func TestErrorResponseShape(t *testing.T) {
	router := gin.New()
	router.GET("/fail", func(c *gin.Context) {
		errorResponse(c, http.StatusBadRequest, "something was wrong")
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["error"] != true {
		t.Errorf("expected error=true, got %v", response["error"])
	}
	if response["message"] != "something was wrong" {
		t.Errorf("unexpected message: %v", response["message"])
	}
}

func TestSuccessResponseShape(t *testing.T) {
	router := gin.New()
	router.GET("/ok", func(c *gin.Context) {
		successResponse(c, gin.H{"value": 42})
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["success"] != true {
		t.Errorf("expected success=true, got %v", response["success"])
	}
}

func TestAuditDetailEscapesValues(t *testing.T) {
	detail := auditDetail(map[string]string{
		"company": `Shah "and" Sons \ Associates`,
	})

	var decoded map[string]string
	if err := json.Unmarshal([]byte(detail), &decoded); err != nil {
		t.Fatalf("detail is not valid JSON: %v", err)
	}
	if decoded["company"] != `Shah "and" Sons \ Associates` {
		t.Errorf("company round-tripped as %q", decoded["company"])
	}
}

func TestInvalidateSeatCountWithoutCache(t *testing.T) {
	s := &Server{}
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/staff", nil)

	// Redis disabled: staff mutations must still complete.
	s.invalidateSeatCount(c)
}

func TestListResponseIncludesPaging(t *testing.T) {
	router := gin.New()
	router.GET("/list", func(c *gin.Context) {
		listResponse(c, []string{"a", "b"}, 12, 2, 4)
	})

	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["total"] != float64(12) {
		t.Errorf("expected total 12, got %v", response["total"])
	}
	if response["limit"] != float64(2) || response["offset"] != float64(4) {
		t.Errorf("unexpected paging fields: %v / %v", response["limit"], response["offset"])
	}
}
