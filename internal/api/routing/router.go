package routing

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
)

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

var (
	ErrMalformedBody = errors.New("malformed JSON body")
	ErrBodyTooLarge  = errors.New("request body too large")
)

type route struct {
	method  string
	path    RoutePath
	handler http.HandlerFunc
}

// Router dispatches to the first registered route whose method and path
// match. Path parameters, the query string and the JSON body are available
// to handlers through Param, Query and DecodeBody.
type Router struct {
	routes       []route
	maxBodyBytes int64
}

func NewRouter() *Router {
	return &Router{maxBodyBytes: defaultMaxBodyBytes}
}

func (rt *Router) SetMaxBodyBytes(n int64) {
	rt.maxBodyBytes = n
}

func (rt *Router) Handle(method, pattern string, handler http.HandlerFunc) {
	rt.routes = append(rt.routes, route{
		method:  method,
		path:    BuildRoutePath(pattern),
		handler: handler,
	})
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w = &onceWriter{ResponseWriter: w}

	query := parseQuery(r.URL.Query())

	body, err := readJSONBody(w, r, rt.maxBodyBytes)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			WriteMessage(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		WriteMessage(w, http.StatusBadRequest, ErrMalformedBody.Error())
		return
	}

	path := r.URL.EscapedPath()
	for _, rte := range rt.routes {
		if rte.method != r.Method {
			continue
		}
		params, ok := rte.path.Match(path)
		if !ok {
			continue
		}

		ctx := withRequestData(r.Context(), &requestData{
			params: params,
			query:  query,
			body:   body,
		})
		rte.handler(w, r.WithContext(ctx))
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func parseQuery(values url.Values) map[string]string {
	query := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			query[key] = vals[0]
		}
	}
	return query
}

func readJSONBody(w http.ResponseWriter, r *http.Request, limit int64) (json.RawMessage, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, ErrMalformedBody
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, ErrMalformedBody
	}
	return json.RawMessage(data), nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// onceWriter drops any WriteHeader after the first so a handler cannot
// produce two status lines.
type onceWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *onceWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *onceWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *onceWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
