// Copyright 2026 Canonical.

package condbhttp

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/condb/condb/version"
)

// DebugHandler serves the debug endpoints of the server: the version
// information and the registered status checks.
type DebugHandler struct {
	Router       *chi.Mux
	StatusChecks map[string]StatusCheck
}

// NewDebugHandler returns a new DebugHandler.
func NewDebugHandler(statusChecks map[string]StatusCheck) *DebugHandler {
	return &DebugHandler{Router: chi.NewRouter(), StatusChecks: statusChecks}
}

// Routes returns the grouped routers routes with group specific middlewares.
func (h *DebugHandler) Routes() chi.Router {
	h.SetupMiddleware()
	h.Router.Get("/info", h.Info)
	h.Router.Get("/status", h.Status)
	return h.Router
}

// SetupMiddleware applies middlewares.
func (h *DebugHandler) SetupMiddleware() {
	h.Router.Use(
		render.SetContentType(
			render.ContentTypeJSON,
		),
	)
}

// Info handles GET /info, returning the current version of the server.
func (h *DebugHandler) Info(w http.ResponseWriter, req *http.Request) {
	render.JSON(w, req, version.VersionInfo)
}

// Status handles GET /status, running the registered status checks
// concurrently and returning their results.
func (h *DebugHandler) Status(w http.ResponseWriter, req *http.Request) {
	var mu sync.Mutex
	results := make(map[string]statusResult, len(h.StatusChecks))
	var wg sync.WaitGroup
	for k, check := range h.StatusChecks {
		k, check := k, check
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := statusResult{
				Name: check.Name(),
			}
			start := time.Now()
			v, err := check.Check(req.Context())
			result.Duration = time.Since(start)
			if err == nil {
				result.Passed = true
				result.Value = v
			} else {
				result.Value = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[k] = result
		}()
	}
	wg.Wait()
	render.JSON(w, req, results)
}

// A statusResult is the result of a single status check in the
// /debug/status response body.
type statusResult struct {
	Name     string
	Value    interface{}
	Passed   bool
	Duration time.Duration
}

// A StatusCheck is a check that is performed as part of the
// /debug/status endpoint.
type StatusCheck interface {
	// Name is a human-readable name for the status check.
	Name() string

	// Check runs the actual check.
	Check(ctx context.Context) (interface{}, error)
}

// MakeStatusCheck creates a status check with the given human readable
// name which runs the given function.
func MakeStatusCheck(name string, f func(context.Context) (interface{}, error)) StatusCheck {
	return statusCheck{
		name: name,
		f:    f,
	}
}

// A statusCheck is the implementation of StatusCheck returned from
// MakeStatusCheck.
type statusCheck struct {
	name string
	f    func(context.Context) (interface{}, error)
}

// Name implements StatusCheck.Name.
func (c statusCheck) Name() string {
	return c.name
}

// Check implements StatusCheck.Check.
func (c statusCheck) Check(ctx context.Context) (interface{}, error) {
	return c.f(ctx)
}

var startTime = time.Now().UTC()

// ServerStartTime is a StatusCheck that returns the server start time.
var ServerStartTime = MakeStatusCheck("server start time", func(_ context.Context) (interface{}, error) {
	return startTime, nil
})
