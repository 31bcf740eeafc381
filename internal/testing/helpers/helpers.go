package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/pkg/jwt"
)

// ActorHeader names the header carrying the acting member's identifier.
// Mirrors the constant the handler package resolves actors from.
const ActorHeader = "X-Actor-ID"

// ============================================================================
// Service token helpers
// ============================================================================

// NewTestJWTService creates a JWT service with a fixed test secret.
func NewTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()

	svc, err := jwt.NewService(jwt.Config{
		Secret:         "questboard-test-secret",
		Issuer:         "questboard-test",
		ExpirationMins: 15,
	})
	if err != nil {
		t.Fatalf("helpers: failed to create JWT service: %v", err)
	}
	return svc
}

// ServiceToken mints a guild-scoped service token.
func ServiceToken(t *testing.T, svc *jwt.Service, guildID string) string {
	t.Helper()

	token, err := svc.Sign(jwt.Claims{GuildID: guildID, Role: "service"})
	if err != nil {
		t.Fatalf("helpers: failed to sign service token: %v", err)
	}
	return token
}

// ============================================================================
// HTTP request helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	headers map[string]string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithServiceToken adds a bearer token identifying the calling integration.
func (rb *RequestBuilder) WithServiceToken(token string) *RequestBuilder {
	rb.headers["Authorization"] = "Bearer " + token
	return rb
}

// WithActor sets the acting member the operation runs on behalf of.
func (rb *RequestBuilder) WithActor(userID ident.ID) *RequestBuilder {
	rb.headers[ActorHeader] = userID.String()
	return rb
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var bodyReader io.Reader
	if rb.body != nil {
		bodyBytes, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(rb.method, rb.path, bodyReader)

	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	return req
}

// ============================================================================
// Response assertion helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertProblemDetails validates an RFC 9457 Problem Details error response
func AssertProblemDetails(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	var problem model.ProblemDetails
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v. Body: %s", err, string(bodyBytes))
	}

	if problem.Status != expectedStatus {
		t.Errorf("expected problem.status %d, got %d", expectedStatus, problem.Status)
	}

	if expectedCode != 0 && problem.Code != expectedCode {
		t.Errorf("expected problem.code %d, got %d", expectedCode, problem.Code)
	}
}

// DecodeResponse decodes the response body into the given struct
func DecodeResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}
}

// ============================================================================
// Database assertion helpers
// ============================================================================

// AssertDocumentExists checks that a guild-scoped document exists.
func AssertDocumentExists(t *testing.T, db *database.Mongo, collection, guildID string, id ident.ID) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := db.Collection(collection).CountDocuments(ctx, bson.M{"guild_id": guildID, "id": id.String()})
	if err != nil {
		t.Fatalf("failed to query for document: %v", err)
	}
	if n == 0 {
		t.Errorf("expected document %s in %s to exist, but it doesn't", id, collection)
	}
}

// AssertDocumentNotExists checks that a guild-scoped document does not exist.
func AssertDocumentNotExists(t *testing.T, db *database.Mongo, collection, guildID string, id ident.ID) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := db.Collection(collection).CountDocuments(ctx, bson.M{"guild_id": guildID, "id": id.String()})
	if err != nil {
		t.Fatalf("failed to query for document: %v", err)
	}
	if n > 0 {
		t.Errorf("expected document %s in %s to not exist, but it does", id, collection)
	}
}

// ============================================================================
// Utility helpers
// ============================================================================

// StringPtr returns a pointer to the string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the int
func IntPtr(i int) *int {
	return &i
}

// BoolPtr returns a pointer to the bool
func BoolPtr(b bool) *bool {
	return &b
}

// TimePtr returns a pointer to the time
func TimePtr(t time.Time) *time.Time {
	return &t
}

// RolePtr returns a pointer to the role
func RolePtr(r model.Role) *model.Role {
	return &r
}

// StatusPtr returns a pointer to the quest status
func StatusPtr(s model.QuestStatus) *model.QuestStatus {
	return &s
}

// MustParseTime parses a time string or fails the test
func MustParseTime(t *testing.T, layout, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}
