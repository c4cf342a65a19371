// Copyright 2026 Canonical.

package condbhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/solve"
)

// SolveHandler serves the solve pipeline and the stored artifacts of a
// database. It is mounted under a route carrying a {database}
// parameter.
type SolveHandler struct {
	Router *chi.Mux
	ConDB  *condb.ConDB
}

// NewSolveHandler returns a new SolveHandler.
func NewSolveHandler(c *condb.ConDB) *SolveHandler {
	return &SolveHandler{Router: chi.NewRouter(), ConDB: c}
}

// Routes returns the grouped routers routes with group specific middlewares.
func (h *SolveHandler) Routes() chi.Router {
	h.SetupMiddleware()
	h.Router.Post("/solve", h.Solve)
	h.Router.Get("/artifacts", h.ListArtifacts)
	h.Router.Get("/artifacts/{artifact}", h.GetArtifact)
	h.Router.Get("/artifacts/{artifact}/summary", h.GetArtifactSummary)
	return h.Router
}

// SetupMiddleware applies middlewares.
func (h *SolveHandler) SetupMiddleware() {
	h.Router.Use(
		render.SetContentType(
			render.ContentTypeJSON,
		),
	)
}

// Solve handles POST /solve, running the solve pipeline over the ref
// named in the body. An empty ref solves the database's default branch.
func (h *SolveHandler) Solve(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var body SolveRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	policies := solve.DefaultPolicies()
	if body.Policies != nil {
		policies = *body.Policies
	}
	art, err := h.ConDB.Solve(ctx, u, chi.URLParam(req, "database"), body.Ref, policies, body.Force)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, art)
}

// ListArtifacts handles GET /artifacts, returning artifact summaries,
// newest first.
func (h *SolveHandler) ListArtifacts(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	summaries, err := h.ConDB.ListArtifacts(ctx, chi.URLParam(req, "database"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if summaries == nil {
		summaries = []condb.ArtifactSummary{}
	}
	render.JSON(w, req, summaries)
}

// GetArtifact handles GET /artifacts/{artifact}, returning the full
// artifact including its expanded configuration.
func (h *SolveHandler) GetArtifact(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	art, err := h.ConDB.GetArtifact(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "artifact"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, art)
}

// GetArtifactSummary handles GET /artifacts/{artifact}/summary.
func (h *SolveHandler) GetArtifactSummary(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	art, err := h.ConDB.GetArtifact(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "artifact"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, condb.ArtifactSummary{
		ID:         art.ID,
		CreatedAt:  art.CreatedAt,
		Scope:      art.Scope,
		Statistics: art.Metadata.Statistics,
		IssueCount: len(art.Metadata.Issues),
		Valid:      art.Validation.Valid,
	})
}
