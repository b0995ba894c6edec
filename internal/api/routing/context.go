package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
)

type ctxKey string

const requestDataKey ctxKey = "routing_request"

type requestData struct {
	params map[string]string
	query  map[string]string
	body   json.RawMessage
}

func withRequestData(ctx context.Context, data *requestData) context.Context {
	return context.WithValue(ctx, requestDataKey, data)
}

func fromRequest(r *http.Request) *requestData {
	if data, ok := r.Context().Value(requestDataKey).(*requestData); ok {
		return data
	}
	return &requestData{}
}

// Param returns the path parameter captured for name, or "".
func Param(r *http.Request, name string) string {
	return fromRequest(r).params[name]
}

func Query(r *http.Request) map[string]string {
	return maps.Clone(fromRequest(r).query)
}

func QueryValue(r *http.Request, key string) string {
	return fromRequest(r).query[key]
}

// DecodeBody unmarshals the request body into v. It is a no-op when the
// request had no body.
func DecodeBody(r *http.Request, v any) error {
	body := fromRequest(r).body
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}
