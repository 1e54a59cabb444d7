// -----------------------------------------------------------------------------
// API test helpers
// -----------------------------------------------------------------------------
// Fluent wrappers over httptest for exercising the router end to end:
//
//	apitest.NewRequest("POST", "/trains/t1/tickets").
//		WithToken(token).
//		WithJSON(body).
//		Send(handler).
//		AssertStatus(t, http.StatusCreated).
//		AssertJSONPath(t, "data.fare", float64(945))
// -----------------------------------------------------------------------------

package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/biyonik/rail-booking-api/pkg/auth"
)

type Request struct {
	method  string
	url     string
	body    io.Reader
	headers map[string]string
}

func NewRequest(method, url string) *Request {
	return &Request{
		method:  method,
		url:     url,
		headers: make(map[string]string),
	}
}

// WithJSON marshals data as the request body. Strings are sent as-is so
// tests can post malformed JSON.
func (r *Request) WithJSON(data any) *Request {
	switch v := data.(type) {
	case string:
		r.body = strings.NewReader(v)
	default:
		raw, _ := json.Marshal(v)
		r.body = bytes.NewReader(raw)
	}
	r.headers["Content-Type"] = "application/json"
	return r
}

func (r *Request) WithHeader(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) WithToken(token string) *Request {
	if token == "" {
		return r
	}
	return r.WithHeader("Authorization", "Bearer "+token)
}

func (r *Request) Send(handler http.Handler) *Response {
	req := httptest.NewRequest(r.method, r.url, r.body)
	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return &Response{Recorder: w}
}

type Response struct {
	Recorder *httptest.ResponseRecorder
}

func (r *Response) AssertStatus(t *testing.T, expected int) *Response {
	t.Helper()
	if r.Recorder.Code != expected {
		t.Errorf("expected status %d, got %d: %s", expected, r.Recorder.Code, r.Recorder.Body.String())
	}
	return r
}

func (r *Response) AssertHeader(t *testing.T, key, expected string) *Response {
	t.Helper()
	if got := r.Recorder.Header().Get(key); got != expected {
		t.Errorf("expected header %s=%q, got %q", key, expected, got)
	}
	return r
}

func (r *Response) AssertJSON(t *testing.T) *Response {
	t.Helper()
	if ct := r.Recorder.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected JSON response, got %s", ct)
	}
	return r
}

// AssertJSONPath compares the value at a dotted path ("data.ticketId").
// Numbers decode as float64.
func (r *Response) AssertJSONPath(t *testing.T, path string, expected any) *Response {
	t.Helper()
	actual, ok := r.Path(t, path)
	if !ok {
		t.Errorf("JSON path %q not found in %s", path, r.Body())
		return r
	}
	if actual != expected {
		t.Errorf("expected %v at %q, got %v", expected, path, actual)
	}
	return r
}

// Path looks up a dotted path in the decoded body.
func (r *Response) Path(t *testing.T, path string) (any, bool) {
	t.Helper()
	var current any = r.JSON(t)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func (r *Response) JSON(t *testing.T) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal(r.Recorder.Body.Bytes(), &data); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", r.Body(), err)
	}
	return data
}

func (r *Response) Body() string {
	return r.Recorder.Body.String()
}

// Token signs an access token for tests.
func Token(t *testing.T, cfg auth.JWTConfig, userID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, userID+"@example.com", role, cfg, time.Now())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}
