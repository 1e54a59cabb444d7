// Package request wraps *http.Request with the helpers controllers need:
// route parameters, query values, strict JSON decoding and the caller
// identity set by the auth middleware.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/biyonik/rail-booking-api/pkg/auth"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// RequestParamsKeyType is the context key of route parameters.
type RequestParamsKeyType struct{}

var RequestParamsKey = RequestParamsKeyType{}

// ErrUnauthenticated is returned by Identity when no auth middleware ran.
var ErrUnauthenticated = errors.New("unauthenticated request")

type Request struct {
	*http.Request
}

func New(r *http.Request) *Request {
	return &Request{Request: r}
}

func (r *Request) IsJSON() bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// Query returns the first value of key or defaultValue.
func (r *Request) Query(key string, defaultValue string) string {
	vals, exists := r.URL.Query()[key]
	if !exists || len(vals) == 0 {
		return defaultValue
	}
	return vals[0]
}

// RouteParam returns a {name} segment matched by the router.
func (r *Request) RouteParam(key string) string {
	params, ok := r.Context().Value(RequestParamsKey).(map[string]string)
	if !ok {
		return ""
	}
	return params[key]
}

// ParseJSON decodes the body into dest. Unknown fields, trailing data and
// bodies over MaxBodyBytes are rejected.
func (r *Request) ParseJSON(dest any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes+1))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if decoder.More() {
		return errors.New("malformed JSON: unexpected data after the object")
	}
	return nil
}

// ClientIP returns the client address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Identity is the authenticated caller.
func (r *Request) Identity() (auth.Identity, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return auth.Identity{}, ErrUnauthenticated
	}
	return id, nil
}
