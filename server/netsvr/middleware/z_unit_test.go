package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var payload = strings.Repeat(`{"dist":"Gauss","x":0.6147778630256653}`, 200)

func textHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, payload)
}

func TestCompressionGzipAndZstd(t *testing.T) {
	h := Compression(http.HandlerFunc(textHandler))

	req := httptest.NewRequest(http.MethodGet, "/v1/fill", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, got %q", rec.Header().Get("Content-Encoding"))
	}
	gr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	got, _ := io.ReadAll(gr)
	if string(got) != payload {
		t.Fatalf("gzip round trip mismatch")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/fill", nil)
	req.Header.Set("Accept-Encoding", "zstd, gzip")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "zstd" {
		t.Fatalf("zstd should win, got %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := zstd.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer zr.Close()
	got, _ = io.ReadAll(zr)
	if string(got) != payload {
		t.Fatalf("zstd round trip mismatch")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != payload {
		t.Fatalf("no accept-encoding should pass through")
	}
}

func TestCompressionNoBody(t *testing.T) {
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 must not carry encoding or body: %d %d", rec.Code, rec.Body.Len())
	}
}

func TestRequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(textHandler)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/dists?x=1", nil))
	id := rec.Header().Get("X-Request-Id")
	if id == "" {
		t.Fatalf("request id header missing")
	}
	out := buf.String()
	if !strings.Contains(out, "http.access") || !strings.Contains(out, "status=200") || !strings.Contains(out, "req_id="+id) {
		t.Fatalf("access log: %s", out)
	}
}

func TestRecoverLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RecoverLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("engine state corrupt")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "http.panic") {
		t.Fatalf("panic not logged")
	}
}
