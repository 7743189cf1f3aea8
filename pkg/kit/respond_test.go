package kit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "ok", body: `{"name":"x"}`},
		{name: "unknown field", body: `{"name":"x","id":"1"}`, wantErr: true},
		{name: "trailing data", body: `{"name":"x"}{"name":"y"}`, wantErr: true},
		{name: "not json", body: `name=x`, wantErr: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("a", MaxJSONBody) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestRecoverer_WritesErrorWithRequestID(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Recoverer(zap.NewNop()))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}

	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Error != "server error" || er.RequestID == "" {
		t.Fatalf("response=%+v", er)
	}
}

func TestRoutePatternOrPath(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = RoutePatternOrPath(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/42", nil))
	if got != "/products/{id}" {
		t.Fatalf("pattern=%q", got)
	}

	plain := httptest.NewRequest(http.MethodGet, "/raw/path", nil)
	if got := RoutePatternOrPath(plain); got != "/raw/path" {
		t.Fatalf("path=%q", got)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("catalog", LogConfig{Level: "debug", Encoding: "console"}); err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if _, err := NewLogger("catalog", LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
