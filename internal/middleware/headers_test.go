package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS_AllowedOrigin(t *testing.T) {
	h := CORS([]string{"http://console.test"})(okHandler)

	req := httptest.NewRequest("OPTIONS", "/api/v1/superadmin/users", nil)
	req.Header.Set("Origin", "http://console.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status: got %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://console.test" {
		t.Errorf("missing allow-origin header")
	}
}

func TestCORS_UnknownOrigin(t *testing.T) {
	h := CORS([]string{"http://console.test"})(okHandler)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unexpected allow-origin for unknown origin")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff")
	}
	if !strings.HasPrefix(rr.Header().Get("Strict-Transport-Security"), "max-age=") {
		t.Error("missing HSTS")
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "boom") {
		t.Error("panic value leaked to client")
	}
}
