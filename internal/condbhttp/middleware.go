// Copyright 2026 Canonical.

package condbhttp

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/condb/condb/internal/servermon"
)

// statusRecorder wraps a http.ResponseWriter recording the status code
// written to it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MeasureResponseTime tracks response time of requests.
func MeasureResponseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var mon servermon.Request
		mon.Start(req.Method)
		rec := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&rec, req)
		route := req.URL.Path
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		mon.End(route, strconv.Itoa(rec.status))
	})
}
