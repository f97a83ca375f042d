package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TestCorrelationIDMiddleware_GeneratesID verifies a new ID is assigned and echoed.
func TestCorrelationIDMiddleware_GeneratesID(t *testing.T) {
	logger := zap.NewNop()
	var gotCtxID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtxID, _ = r.Context().Value("correlation_id").(string)
	})

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Handle("/x", inner)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	headerID := w.Header().Get("X-Correlation-ID")
	if headerID == "" {
		t.Fatal("X-Correlation-ID header not set")
	}
	if gotCtxID != headerID {
		t.Errorf("context ID %q != header ID %q", gotCtxID, headerID)
	}
}

// TestCorrelationIDMiddleware_PropagatesID verifies an incoming ID is reused.
func TestCorrelationIDMiddleware_PropagatesID(t *testing.T) {
	logger := zap.NewNop()
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Correlation-ID", "incoming-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "incoming-id" {
		t.Errorf("X-Correlation-ID = %q, want incoming-id", got)
	}
}

// TestRateLimitMiddleware verifies denial past the burst and pass-through when nil.
func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	router := mux.NewRouter()
	router.Use(RateLimitMiddleware(limiter))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/x", nil))
	if first.Code != http.StatusOK {
		t.Errorf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("GET", "/x", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}

	// nil limiter disables the middleware entirely
	open := mux.NewRouter()
	open.Use(RateLimitMiddleware(nil))
	open.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {})
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		open.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d with nil limiter status = %d, want 200", i, w.Code)
		}
	}
}

// TestGetRoute verifies path-template collapsing for metrics labels.
func TestGetRoute(t *testing.T) {
	router := mux.NewRouter()
	var got string
	router.HandleFunc("/analysis/{kind}", func(w http.ResponseWriter, r *http.Request) {
		got = getRoute(r)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/analysis/missing", nil))
	if got != "/analysis/{kind}" {
		t.Errorf("getRoute = %q, want /analysis/{kind}", got)
	}

	// Outside a mux route the prefix fallback applies.
	plain := httptest.NewRequest("GET", "/charts/frequency", nil)
	if r := getRoute(plain); r != "/charts/{kind}" {
		t.Errorf("getRoute = %q, want /charts/{kind}", r)
	}
}
