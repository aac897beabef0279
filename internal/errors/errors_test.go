package errors

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeServiceUnavail, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{ErrorCode("NO_SUCH_CODE"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := getStatusCode(tc.code); got != tc.want {
			t.Errorf("getStatusCode(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestWriteError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, testLogger(), ServiceUnavailable("order dataset is not loaded"), "req-1")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("error responses must have success=false")
	}
	if resp.Error.Code != CodeServiceUnavail {
		t.Errorf("expected code %s, got %s", CodeServiceUnavail, resp.Error.Code)
	}
	if resp.Error.RequestID != "req-1" {
		t.Errorf("expected request ID req-1, got %q", resp.Error.RequestID)
	}
}

func TestWriteError_UnknownErrorBecomesInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, testLogger(), io.ErrUnexpectedEOF, "req-2")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, resp.Error.Code)
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]int{"orders": 3})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success responses must have success=true")
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape: %T", resp.Data)
	}
	if data["orders"] != float64(3) {
		t.Errorf("expected orders=3, got %v", data["orders"])
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, "ok", map[string]string{"Cache-Control": "public, max-age=300"})

	if got := w.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Errorf("expected cache header to be set, got %q", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	wrapped := InternalWrap(io.ErrClosedPipe, "report computation failed")

	if wrapped.Unwrap() != io.ErrClosedPipe {
		t.Error("Unwrap should return the cause")
	}
	msg := wrapped.Error()
	if msg == "" || msg == "report computation failed" {
		t.Errorf("expected code and cause in message, got %q", msg)
	}
}
