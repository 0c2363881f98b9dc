package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// OwnerHeader carries the authenticated owner ID set by the gateway
const OwnerHeader = "x-user-id"

// Ctx returns a context canceled on test cleanup
func Ctx(t *testing.T) context.Context {
	t.Helper()
	ctx, cf := context.WithTimeout(context.Background(), time.Second*20)
	t.Cleanup(cf)
	return ctx
}

// Req prepares a request for the echo handlers, json body is added if not empty, owner header if owner is set
func Req(method, url, body, owner string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	return req
}

// Code serves req and requires the status code
func Code(t *testing.T, e *echo.Echo, req *http.Request, code int) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, req)
	require.Equal(t, code, resp.Code, resp.Body.String())
	return resp
}

// Body reads r as trimmed string
func Body(t *testing.T, r io.Reader) string {
	t.Helper()
	var b bytes.Buffer
	_, err := b.ReadFrom(r)
	require.Nil(t, err)
	return strings.TrimSpace(b.String())
}

// Decode reads json from r
func Decode[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var res T
	require.Nil(t, json.NewDecoder(r).Decode(&res))
	return res
}

// Invoke sends r to a running server, the body is drained on cleanup
func Invoke(t *testing.T, cl *http.Client, r *http.Request) *http.Response {
	t.Helper()
	resp, err := cl.Do(r)
	require.Nil(t, err, "not nil error = %v", err)
	t.Cleanup(func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	})
	return resp
}

// CheckCode requires the status code, reports the body otherwise
func CheckCode(t *testing.T, resp *http.Response, expected int) *http.Response {
	t.Helper()
	if resp.StatusCode != expected {
		b, _ := io.ReadAll(resp.Body)
		require.Equal(t, expected, resp.StatusCode, string(b))
	}
	return resp
}
