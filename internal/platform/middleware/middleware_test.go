package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// invoke runs a single middleware around handler for a GET request to path
// and returns the recorder plus the handler error.
func invoke(t *testing.T, mw echo.MiddlewareFunc, handler echo.HandlerFunc, path string, mutate func(*http.Request)) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	err := mw(handler)(e.NewContext(req, rec))
	return rec, err
}

func quietLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestRequestID_GeneratesNew(t *testing.T) {
	var seen string
	handler := func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		return c.NoContent(http.StatusOK)
	}

	rec, err := invoke(t, RequestID(), handler, "/", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" {
		t.Error("handler saw no request_id")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q does not match context value %q", got, seen)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	const supplied = "my-custom-id"

	var seen string
	handler := func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		return c.NoContent(http.StatusOK)
	}

	rec, err := invoke(t, RequestID(), handler, "/", func(req *http.Request) {
		req.Header.Set(RequestIDHeader, supplied)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != supplied {
		t.Errorf("handler saw request_id %q, want %q", seen, supplied)
	}
	if got := rec.Header().Get(RequestIDHeader); got != supplied {
		t.Errorf("response header = %q, want %q", got, supplied)
	}
}

func TestLogger_HandlerErrorPropagates(t *testing.T) {
	boom := echo.NewHTTPError(http.StatusBadGateway, "upstream broke")
	handler := func(c echo.Context) error { return boom }

	_, err := invoke(t, Logger(quietLogger()), handler, "/test", nil)
	if err != boom {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
}

func TestLogger_SuccessPath(t *testing.T) {
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	if _, err := invoke(t, Logger(quietLogger()), handler, "/test", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	handler := func(c echo.Context) error {
		panic("test panic")
	}

	_, err := invoke(t, Recovery(quietLogger()), handler, "/panic", nil)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusInternalServerError)
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	if _, err := invoke(t, Recovery(quietLogger()), handler, "/ok", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
