package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const questsPath = "/v1/guilds/guild-discord-42/quests"

// ============================================================================
// Chain Tests
// ============================================================================

func TestChain_AppliesInDeclarationOrder(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("H"))
	})

	tag := func(label string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(label))
				next.ServeHTTP(w, r)
			})
		}
	}

	req := httptest.NewRequest(http.MethodGet, questsPath, nil)

	rr := httptest.NewRecorder()
	Chain(handler).ServeHTTP(rr, req)
	if rr.Body.String() != "H" {
		t.Errorf("empty chain: expected bare handler output, got %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	Chain(handler, tag("1"), tag("2"), tag("3")).ServeHTTP(rr, req)
	if rr.Body.String() != "123H" {
		t.Errorf("expected outermost-first order '123H', got %q", rr.Body.String())
	}
}

// ============================================================================
// RequestID Tests
// ============================================================================

func TestRequestID_GeneratesUUIDWhenAbsent(t *testing.T) {
	t.Parallel()

	handler := &captureHandler{}
	req := httptest.NewRequest(http.MethodGet, questsPath, nil)
	rr := httptest.NewRecorder()

	RequestID(handler).ServeHTTP(rr, req)

	responseID := rr.Header().Get("X-Request-ID")
	if responseID == "" {
		t.Fatal("expected X-Request-ID header in response")
	}
	if len(responseID) != 36 || strings.Count(responseID, "-") != 4 {
		t.Errorf("generated ID is not UUID-shaped: %q", responseID)
	}
	if got := GetRequestID(handler.ctx); got != responseID {
		t.Errorf("context ID %q should match response header %q", got, responseID)
	}
}

func TestRequestID_PreservesUpstreamHeader(t *testing.T) {
	t.Parallel()

	handler := &captureHandler{}
	req := httptest.NewRequest(http.MethodGet, questsPath, nil)
	req.Header.Set("X-Request-ID", "bot-gateway-7f3a")
	rr := httptest.NewRecorder()

	RequestID(handler).ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "bot-gateway-7f3a" {
		t.Errorf("expected upstream ID preserved, got %q", got)
	}
	if got := GetRequestID(handler.ctx); got != "bot-gateway-7f3a" {
		t.Errorf("expected upstream ID in context, got %q", got)
	}
}

func TestGetRequestID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"present", context.WithValue(context.Background(), RequestIDKey, "req-12345"), "req-12345"},
		{"missing", context.Background(), ""},
		{"wrong type", context.WithValue(context.Background(), RequestIDKey, 12345), ""},
	}
	for _, tc := range cases {
		if got := GetRequestID(tc.ctx); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

// ============================================================================
// Recovery Tests
// ============================================================================

func TestRecovery_NoPanic_ProceedsNormally(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	req := httptest.NewRequest(http.MethodGet, questsPath, nil)
	rr := httptest.NewRecorder()

	Recovery(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRecovery_PanicYieldsProblemJSON(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("quest store unavailable")
	})

	req := httptest.NewRequest(http.MethodPost, questsPath, nil)
	rr := httptest.NewRecorder()

	Recovery(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Internal Server Error") {
		t.Errorf("expected generic error title in body, got %q", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "quest store unavailable") {
		t.Error("panic value must not leak into the response body")
	}
}

// ============================================================================
// CORS Tests
// ============================================================================

func TestCORS_OriginAllowlist(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name      string
		allowed   []string
		origin    string
		wantAllow string
	}{
		{"listed origin", []string{"https://dashboard.ravenhall.gg"}, "https://dashboard.ravenhall.gg", "https://dashboard.ravenhall.gg"},
		{"unlisted origin", []string{"https://dashboard.ravenhall.gg"}, "https://evil.example", ""},
		{"wildcard", []string{"*"}, "https://any.example", "https://any.example"},
		{"no origin header", []string{"https://dashboard.ravenhall.gg"}, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, questsPath, nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()

			CORS(tc.allowed)(handler).ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllow {
				t.Errorf("expected Allow-Origin %q, got %q", tc.wantAllow, got)
			}
		})
	}
}

func TestCORS_Preflight_ShortCircuits(t *testing.T) {
	t.Parallel()

	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodOptions, questsPath, nil)
	req.Header.Set("Origin", "https://dashboard.ravenhall.gg")
	rr := httptest.NewRecorder()

	CORS([]string{"https://dashboard.ravenhall.gg"})(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status %d for preflight, got %d", http.StatusNoContent, rr.Code)
	}
	if handler.called {
		t.Error("handler must not run for a preflight request")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key") {
		t.Error("expected Idempotency-Key among allowed headers")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), "Retry-After") {
		t.Error("expected Retry-After among exposed headers")
	}
}

// ============================================================================
// Compress Tests
// ============================================================================

func TestCompress_GzipRoundTrip(t *testing.T) {
	t.Parallel()

	payload := `{"data":{"id":"QUESA1B2C3","title":"Into the Barrowmaze","status":"ANNOUNCED"}}`
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	req := httptest.NewRequest(http.MethodGet, questsPath, nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()

	Compress(handler).ServeHTTP(rr, req)

	if got := rr.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected Content-Encoding 'gzip', got %q", got)
	}

	reader, err := gzip.NewReader(rr.Body)
	if err != nil {
		t.Fatalf("failed to create gzip reader: %v", err)
	}
	defer func() { _ = reader.Close() }()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read decompressed data: %v", err)
	}
	if string(decompressed) != payload {
		t.Errorf("decompressed content mismatch: %q", string(decompressed))
	}
}

func TestCompress_WithoutGzipAccept_PassesThrough(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	req := httptest.NewRequest(http.MethodGet, questsPath, nil)
	rr := httptest.NewRecorder()

	Compress(handler).ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") == "gzip" {
		t.Error("must not compress without gzip Accept-Encoding")
	}
	if rr.Body.String() != `{"data":[]}` {
		t.Errorf("expected untouched body, got %q", rr.Body.String())
	}
}

// ============================================================================
// Logger Tests
// ============================================================================

func TestLogger_CapturesStatusAndForwards(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})

	req := httptest.NewRequest(http.MethodPost, questsPath, nil)
	rr := httptest.NewRecorder()

	Logger(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if rr.Body.String() != "created" {
		t.Errorf("expected body 'created', got %q", rr.Body.String())
	}
}

func TestResponseWriter_RecordsWrittenStatus(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusTooManyRequests)

	if rw.statusCode != http.StatusTooManyRequests {
		t.Errorf("expected captured status %d, got %d", http.StatusTooManyRequests, rw.statusCode)
	}
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected forwarded status %d, got %d", http.StatusTooManyRequests, rr.Code)
	}
}
