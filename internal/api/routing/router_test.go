package routing

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v; body=%s", err, rec.Body.String())
	}
	return payload.Message
}

func TestRouterDispatchesFirstMatch(t *testing.T) {
	rt := NewRouter()
	var hit string
	rt.Handle(http.MethodGet, "/tasks", func(w http.ResponseWriter, r *http.Request) { hit = "list" })
	rt.Handle(http.MethodGet, "/tasks/:id", func(w http.ResponseWriter, r *http.Request) { hit = "get " + Param(r, "id") })
	rt.Handle(http.MethodGet, "/tasks/:other", func(w http.ResponseWriter, r *http.Request) { hit = "shadowed" })
	rt.Handle(http.MethodPatch, "/tasks/:id/complete", func(w http.ResponseWriter, r *http.Request) { hit = "complete " + Param(r, "id") })

	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/tasks", "list"},
		{http.MethodGet, "/tasks/7", "get 7"},
		{http.MethodPatch, "/tasks/7/complete", "complete 7"},
	}
	for _, tt := range tests {
		hit = ""
		serve(t, rt, tt.method, tt.path, "")
		if hit != tt.want {
			t.Fatalf("%s %s: hit=%q want %q", tt.method, tt.path, hit, tt.want)
		}
	}
}

func TestRouterNotFound(t *testing.T) {
	rt := NewRouter()
	rt.Handle(http.MethodGet, "/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodDelete, "/tasks"},
	} {
		rec := serve(t, rt, tt.method, tt.path, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: status=%d", tt.method, tt.path, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Fatalf("expected empty body, got %q", rec.Body.String())
		}
	}
}

func TestRouterQueryAndBody(t *testing.T) {
	rt := NewRouter()
	var (
		query map[string]string
		got   struct {
			Title string `json:"title"`
		}
		decodeErr error
	)
	rt.Handle(http.MethodPost, "/tasks", func(w http.ResponseWriter, r *http.Request) {
		query = Query(r)
		decodeErr = DecodeBody(r, &got)
		w.WriteHeader(http.StatusCreated)
	})

	rec := serve(t, rt, http.MethodPost, "/tasks?search=abc&search=def&x=1", `{"title":"buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d", rec.Code)
	}
	if decodeErr != nil || got.Title != "buy milk" {
		t.Fatalf("body not decoded: %v %+v", decodeErr, got)
	}
	if query["search"] != "abc" || query["x"] != "1" {
		t.Fatalf("query=%v", query)
	}
}

func TestRouterMalformedBody(t *testing.T) {
	rt := NewRouter()
	called := false
	rt.Handle(http.MethodPost, "/tasks", func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := serve(t, rt, http.MethodPost, "/tasks", `{"title":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if called {
		t.Fatalf("handler should not run")
	}
	if msg := message(t, rec); msg != ErrMalformedBody.Error() {
		t.Fatalf("message=%q", msg)
	}
}

func TestRouterBodyTooLarge(t *testing.T) {
	rt := NewRouter()
	rt.SetMaxBodyBytes(16)
	rt.Handle(http.MethodPost, "/tasks", func(w http.ResponseWriter, r *http.Request) {})

	rec := serve(t, rt, http.MethodPost, "/tasks", `{"title":"this is far too long"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestDecodeBodyTypeMismatch(t *testing.T) {
	rt := NewRouter()
	var err error
	rt.Handle(http.MethodPost, "/tasks", func(w http.ResponseWriter, r *http.Request) {
		var v struct {
			Title *string `json:"title"`
		}
		err = DecodeBody(r, &v)
	})

	serve(t, rt, http.MethodPost, "/tasks", `{"title": 5}`)
	if err == nil || !strings.Contains(err.Error(), ErrMalformedBody.Error()) {
		t.Fatalf("err=%v", err)
	}
}

func TestRouterWritesHeaderOnce(t *testing.T) {
	rt := NewRouter()
	rt.Handle(http.MethodGet, "/twice", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := serve(t, rt, http.MethodGet, "/twice", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestMiddlewareChain(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	rt := NewRouter()
	rt.Handle(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})
	rt.Handle(http.MethodGet, "/ok", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"rid": RequestIDFromContext(r.Context())})
	})
	h := Chain(rt, WithRequestID(), Logging(logger), Recover(logger))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "req-1" {
		t.Fatalf("request id header=%q", rec.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(rec.Body.String(), "req-1") {
		t.Fatalf("request id not in context: %s", rec.Body.String())
	}

	rec = serve(t, h, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
	if !strings.Contains(logs.String(), "kaboom") || !strings.Contains(logs.String(), `"status":500`) {
		t.Fatalf("logs missing entries: %s", logs.String())
	}
}
