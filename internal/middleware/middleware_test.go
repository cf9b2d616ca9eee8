package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Veysel440/ipgate/internal/jwtauth"
	"github.com/Veysel440/ipgate/internal/logging"
)

func ok200() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
}

func TestAuthWith(t *testing.T) {
	keys := jwtauth.Load("k1:first-secret,k2:second-secret", "k2", nil)
	var seen string
	h := AuthWith(keys, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Operator(r.Context())
		w.WriteHeader(200)
	}))

	good, err := jwtauth.Sign(keys, "ops@office", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := jwtauth.Sign(keys, "ops@office", -time.Minute)
	foreign, _ := jwtauth.Sign(jwtauth.Load("k2:other", "k2", nil), "ops@office", time.Minute)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).SignedString([]byte("second-secret"))

	cases := []struct {
		name, header string
		want         int
	}{
		{"valid", "Bearer " + good, 200},
		{"missing", "", 401},
		{"expired", "Bearer " + expired, 401},
		{"wrong key", "Bearer " + foreign, 401},
		{"no expiry", "Bearer " + noExp, 401},
		{"not bearer", "Basic abc", 401},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/admin/access-log", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("want %d, got %d", tc.want, rr.Code)
			}
		})
	}
	if seen != "ops@office" {
		t.Fatalf("operator not in context: %q", seen)
	}
}

func TestAllowCIDR(t *testing.T) {
	h := AllowCIDR("127.0.0.1/32")(ok200())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	h.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("loopback: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/metrics", nil)
	req.RemoteAddr = "10.0.0.5:5000"
	req.Header.Set("X-Real-IP", "127.0.0.1")
	h.ServeHTTP(rr, req)
	if rr.Code != 403 {
		t.Fatalf("headers must not open /metrics: %d", rr.Code)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(ReqIDHeader)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if got == "" || rr.Header().Get(ReqIDHeader) != got {
		t.Fatalf("request id %q / %q", got, rr.Header().Get(ReqIDHeader))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(ReqIDHeader, "edge-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "edge-123" {
		t.Fatalf("incoming id not kept: %q", got)
	}
}

func TestRecoverJSON(t *testing.T) {
	h := RecoverJSON(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != 500 {
		t.Fatalf("want 500, got %d", rr.Code)
	}
}
