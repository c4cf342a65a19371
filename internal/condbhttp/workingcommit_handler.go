// Copyright 2026 Canonical.

package condbhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/resolve"
	"github.com/condb/condb/internal/validate"
)

// WorkingCommitHandler serves the working commit of a branch. It is
// mounted under a route carrying {database} and {branch} parameters.
type WorkingCommitHandler struct {
	Router *chi.Mux
	ConDB  *condb.ConDB
}

// NewWorkingCommitHandler returns a new WorkingCommitHandler.
func NewWorkingCommitHandler(c *condb.ConDB) *WorkingCommitHandler {
	return &WorkingCommitHandler{Router: chi.NewRouter(), ConDB: c}
}

// Routes returns the grouped routers routes with group specific middlewares.
func (h *WorkingCommitHandler) Routes() chi.Router {
	h.SetupMiddleware()
	h.Router.Post("/", h.Open)
	h.Router.Get("/", h.Get)
	h.Router.Get("/raw", h.GetRaw)
	h.Router.Get("/validate", h.Validate)
	h.Router.Put("/", h.Update)
	h.Router.Post("/commit", h.Commit)
	h.Router.Delete("/", h.Abandon)
	return h.Router
}

// SetupMiddleware applies middlewares.
func (h *WorkingCommitHandler) SetupMiddleware() {
	h.Router.Use(
		render.SetContentType(
			render.ContentTypeJSON,
		),
	)
}

// Open handles POST /, returning the branch's active working commit and
// creating one if the branch has none.
func (h *WorkingCommitHandler) Open(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	wc, err := h.ConDB.OpenWorkingCommit(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := workingCommitResponse(wc)
	payload := wc.Payload()
	resp.Payload = &payload
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, resp)
}

// Get handles GET /, returning the draft together with its change
// summary and materialized relationship selections.
func (h *WorkingCommitHandler) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	wc, err := h.ConDB.GetWorkingCommit(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "branch"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	changes, err := h.ConDB.Changes(ctx, wc)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := workingCommitResponse(wc)
	payload := wc.Payload()
	resp.Payload = &payload
	resp.Changes = changes
	resp.Resolved = condb.MaterializeRelationships(&payload)
	render.JSON(w, req, resp)
}

// GetRaw handles GET /raw, returning the draft exactly as stored.
func (h *WorkingCommitHandler) GetRaw(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	wc, err := h.ConDB.GetWorkingCommit(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "branch"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := workingCommitResponse(wc)
	payload := wc.Payload()
	resp.Payload = &payload
	render.JSON(w, req, resp)
}

// Validate handles GET /validate, validating the draft.
func (h *WorkingCommitHandler) Validate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	wc, err := h.ConDB.GetWorkingCommit(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "branch"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	payload := wc.Payload()
	result := validate.View(resolve.NewPayloadView(&payload))
	render.JSON(w, req, ValidationResponse{Ref: wc.ID, Result: result})
}

// Update handles PUT /, replacing the draft payload.
func (h *WorkingCommitHandler) Update(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var payload model.Payload
	if err := decodeBody(req, &payload); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	wc, err := h.ConDB.UpdateWorkingCommitPayload(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch"), payload)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := workingCommitResponse(wc)
	updated := wc.Payload()
	resp.Payload = &updated
	render.JSON(w, req, resp)
}

// Commit handles POST /commit, turning the draft into a commit.
func (h *WorkingCommitHandler) Commit(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var body CommitWorkingCommitRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	commit, err := h.ConDB.CommitWorkingCommit(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch"), body.Message, body.Author)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, commitResponse(commit))
}

// Abandon handles DELETE /, discarding the draft.
func (h *WorkingCommitHandler) Abandon(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	if err := h.ConDB.AbandonWorkingCommit(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch")); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
