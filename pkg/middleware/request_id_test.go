package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRequestIDPropagatesIncomingHeader(t *testing.T) {
	const incoming = "req-incoming-123"
	r := gin.New()
	r.Use(RequestID())
	r.GET("/health", func(c *gin.Context) {
		if got := RequestIDFromContext(c); got != incoming {
			t.Fatalf("unexpected request id in context: got %q want %q", got, incoming)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != incoming {
		t.Fatalf("unexpected response request id: got %q want %q", got, incoming)
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := rec.Header().Get(RequestIDHeader); got == "" {
		t.Fatal("expected generated request id header")
	}
}

func TestRequestLogRecordsRequestFields(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	r := gin.New()
	r.Use(RequestID(), RequestLog())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Message != "http_request" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if entry.Data["status"] != http.StatusNotFound || entry.Data["request_id"] != "rid-1" || entry.Data["path"] != "/missing" {
		t.Fatalf("unexpected fields %v", entry.Data)
	}
}
