package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "wildcard echoes origin",
			allowed:    []string{"*"},
			method:     http.MethodPost,
			origin:     "https://app.example.com",
			wantOrigin: "https://app.example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "listed origin",
			allowed:    []string{"https://a.example.com"},
			method:     http.MethodGet,
			origin:     "https://a.example.com",
			wantOrigin: "https://a.example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unlisted origin",
			allowed:    []string{"https://a.example.com"},
			method:     http.MethodGet,
			origin:     "https://evil.example.com",
			wantOrigin: "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight short circuits",
			allowed:    []string{"*"},
			method:     http.MethodOptions,
			origin:     "https://app.example.com",
			wantOrigin: "https://app.example.com",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := CORS(tc.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(tc.method, "/edit-image", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantOrigin)
			}
			if tc.method == http.MethodOptions && called {
				t.Fatalf("preflight reached the handler")
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{name: "propagates caller id", header: "abc-123", wantSame: true},
		{name: "generates when missing", header: "", wantSame: false},
		{name: "replaces ids with spaces", header: "a b", wantSame: false},
		{name: "replaces oversized ids", header: strings.Repeat("x", 200), wantSame: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tc.header != "" {
				req.Header.Set("X-Request-ID", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if seen == "" {
				t.Fatalf("request id missing from context")
			}
			if got := rec.Header().Get("X-Request-ID"); got != seen {
				t.Fatalf("response header = %q, context = %q", got, seen)
			}
			if (seen == tc.header) != tc.wantSame {
				t.Fatalf("request id = %q, header = %q, wantSame %v", seen, tc.header, tc.wantSame)
			}
		})
	}
}

type httpObservation struct {
	method string
	route  string
	status int
}

type recordingHTTPRecorder struct {
	got []httpObservation
}

func (r *recordingHTTPRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	r.got = append(r.got, httpObservation{method: method, route: route, status: status})
}

func TestLoggerRecordsRouteAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rec := &recordingHTTPRecorder{}

	r := chi.NewRouter()
	r.Use(RequestID, Logger(logger, rec))
	r.Post("/edit-image", func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusUnsupportedMediaType)
	})

	req := httptest.NewRequest(http.MethodPost, "/edit-image", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if len(rec.got) != 2 {
		t.Fatalf("observations = %d, want 2", len(rec.got))
	}
	if want := (httpObservation{method: "POST", route: "/edit-image", status: 415}); rec.got[0] != want {
		t.Fatalf("first observation = %+v, want %+v", rec.got[0], want)
	}
	if rec.got[1].status != http.StatusNotFound {
		t.Fatalf("unmatched status = %d, want 404", rec.got[1].status)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("log lines = %d, want at least 2", len(lines))
	}
	var inner map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &inner); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if inner["request_id"] != "rid-1" {
		t.Fatalf("handler log request_id = %v, want rid-1", inner["request_id"])
	}
}

func TestLoggerImplicitStatus(t *testing.T) {
	rec := &recordingHTTPRecorder{}
	h := Logger(zerolog.Nop(), rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(rec.got) != 1 || rec.got[0].status != http.StatusOK {
		t.Fatalf("observations = %+v", rec.got)
	}
	if rec.got[0].route != "unmatched" {
		t.Fatalf("route outside chi = %q, want unmatched", rec.got[0].route)
	}
}
