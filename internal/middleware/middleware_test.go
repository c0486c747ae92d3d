package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Logger(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/health?verbose=1", nil)

	out := buf.String()
	for _, want := range []string{`"component":"http"`, `"path":"/health?verbose=1"`, `"status":200`, `"method":"GET"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if ok, _ := rl.Allow("a"); !ok {
		t.Fatal("first request refused")
	}
	now = now.Add(10 * time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Fatal("second request refused")
	}
	ok, retry := rl.Allow("a")
	if ok || retry != 50*time.Second {
		t.Fatalf("third request: ok=%v retry=%v", ok, retry)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Fatal("other key should be independent")
	}

	now = now.Add(51 * time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Fatal("request after window refused")
	}
}

func TestRateLimitKeysByDevice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.GET("/devices/:deviceId/detection", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	if rr := serve(r, http.MethodGet, "/devices/a/detection", nil); rr.Code != http.StatusOK {
		t.Fatalf("first request: %d", rr.Code)
	}
	rr := serve(r, http.MethodGet, "/devices/a/detection", nil)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", rr.Code)
	}
	if rr := serve(r, http.MethodGet, "/devices/b/detection", nil); rr.Code != http.StatusOK {
		t.Fatalf("other device limited: %d", rr.Code)
	}
}

func TestDeviceAuth(t *testing.T) {
	const secret = "s3cret"
	token, err := auth.GenerateToken("phone-1", secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/devices/:deviceId/profile", DeviceAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(DeviceIDKey))
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/devices/phone-1/profile", "", http.StatusUnauthorized},
		{"wrong scheme", "/devices/phone-1/profile", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/devices/phone-1/profile", "Bearer nope", http.StatusUnauthorized},
		{"other device", "/devices/phone-2/profile", "Bearer " + token, http.StatusForbidden},
		{"ok", "/devices/phone-1/profile", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			rr := serve(r, http.MethodGet, tt.path, h)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK && rr.Body.String() != "phone-1" {
				t.Errorf("device id not set: %q", rr.Body.String())
			}
		})
	}
}
