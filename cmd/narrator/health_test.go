package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","version":"v0.3.0"}`))
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	out, _, err := execute(t, "", "health", "--addr", addr)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if want := "narrator server at " + addr + ": ok (version v0.3.0)"; !strings.Contains(out, want) {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestHealthCmd_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	_, _, err := execute(t, "", "health", "--addr", addr, "--timeout", "500ms")
	if err == nil || !strings.Contains(err.Error(), "narrator server at "+addr) {
		t.Fatalf("err = %v, want a health failure naming the address", err)
	}
}
