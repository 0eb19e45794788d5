package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const htmxKey contextKey = "htmx"

// HTMXRequest describes the htmx headers sent with a request.
type HTMXRequest struct {
	Enabled bool
	Boosted bool
	Target  string
}

// HTMX records the htmx request headers in the context. Responses vary on
// HX-Request since the same URL serves a partial or a full page.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hx := HTMXRequest{
			Enabled: r.Header.Get("HX-Request") == "true",
			Boosted: r.Header.Get("HX-Boosted") == "true",
			Target:  r.Header.Get("HX-Target"),
		}
		w.Header().Add("Vary", "HX-Request")
		ctx := context.WithValue(r.Context(), htmxKey, hx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func HTMXFrom(r *http.Request) HTMXRequest {
	hx, _ := r.Context().Value(htmxKey).(HTMXRequest)
	return hx
}

// IsPartial reports whether the request wants a fragment rather than a full
// document. Boosted requests swap the whole body and need the full page.
func IsPartial(r *http.Request) bool {
	hx := HTMXFrom(r)
	return hx.Enabled && !hx.Boosted
}
