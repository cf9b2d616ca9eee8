package upstream

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestNew_ProxiesToUpstream(t *testing.T) {
	var gotPath, gotXFF string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotXFF = r.Header.Get("X-Forwarded-For")
		_, _ = io.WriteString(w, "origin")
	}))
	defer origin.Close()

	h, err := New(origin.URL, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/contracts", nil)
	req.Header.Set("X-Forwarded-For", "66.211.23.74")
	h.ServeHTTP(rr, req)

	if rr.Code != 200 || rr.Body.String() != "origin" {
		t.Fatalf("proxy response %d %q", rr.Code, rr.Body.String())
	}
	if gotPath != "/contracts" {
		t.Fatalf("path %q", gotPath)
	}
	if gotXFF == "" {
		t.Fatal("x-forwarded-for not forwarded")
	}
}

func TestNew_StaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "debug-ip.html"), []byte("debug"), 0o600); err != nil {
		t.Fatal(err)
	}
	h, err := New("", dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/debug-ip.html", nil))
	if rr.Code != 200 || rr.Body.String() != "debug" {
		t.Fatalf("static response %d %q", rr.Code, rr.Body.String())
	}
}

func TestNew_BadConfig(t *testing.T) {
	if _, err := New("", "", nil); err == nil {
		t.Fatal("expected error without target")
	}
	if _, err := New("ftp://files", "", nil); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
