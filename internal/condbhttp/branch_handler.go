// Copyright 2026 Canonical.

package condbhttp

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
)

// BranchHandler serves the branch collection of a database, including
// the merge and rebase operations. It is mounted under a route carrying
// a {database} parameter.
type BranchHandler struct {
	Router *chi.Mux
	ConDB  *condb.ConDB
}

// NewBranchHandler returns a new BranchHandler.
func NewBranchHandler(c *condb.ConDB) *BranchHandler {
	return &BranchHandler{Router: chi.NewRouter(), ConDB: c}
}

// Routes returns the grouped routers routes with group specific middlewares.
func (h *BranchHandler) Routes() chi.Router {
	h.SetupMiddleware()
	h.Router.Get("/", h.List)
	h.Router.Post("/", h.Add)
	h.Router.Get("/{branch}", h.Get)
	h.Router.Delete("/{branch}", h.Delete)
	h.Router.Post("/{branch}/merge", h.Merge)
	h.Router.Post("/{branch}/rebase", h.Rebase)
	h.Router.Post("/{branch}/validate-merge", h.ValidateMerge)
	h.Router.Post("/{branch}/validate-rebase", h.ValidateRebase)
	h.Router.Post("/{branch}/resolve-conflicts", h.ResolveConflicts)
	h.Router.Post("/{branch}/abort-merge", h.AbortMerge)
	h.Router.Get("/{branch}/validate", h.Validate)
	return h.Router
}

// SetupMiddleware applies middlewares.
func (h *BranchHandler) SetupMiddleware() {
	h.Router.Use(
		render.SetContentType(
			render.ContentTypeJSON,
		),
	)
}

// List handles GET /, returning the database's branches. A status query
// parameter restricts the listing to branches with that status.
func (h *BranchHandler) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	databaseID := chi.URLParam(req, "database")
	status := dbmodel.BranchStatus(req.URL.Query().Get("status"))
	branches, err := h.ConDB.ListBranches(ctx, databaseID, status)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := make([]Branch, len(branches))
	for i := range branches {
		resp[i] = branchResponse(&branches[i])
	}
	render.JSON(w, req, resp)
}

// Add handles POST /, forking a new branch.
func (h *BranchHandler) Add(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var body AddBranchRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	branch, err := h.ConDB.AddBranch(ctx, u, chi.URLParam(req, "database"), body.Name, body.ParentBranch, body.Description)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, branchResponse(branch))
}

// Get handles GET /{branch}.
func (h *BranchHandler) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	branch, err := h.ConDB.GetBranch(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "branch"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, branchResponse(branch))
}

// Delete handles DELETE /{branch}, archiving the branch.
func (h *BranchHandler) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	if err := h.ConDB.DeleteBranch(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch")); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Merge handles POST /{branch}/merge, merging the branch into the
// target branch named in the body.
func (h *BranchHandler) Merge(w http.ResponseWriter, req *http.Request) {
	h.merge(w, req, h.ConDB.Merge)
}

// Rebase handles POST /{branch}/rebase, rebasing the branch onto the
// target branch named in the body.
func (h *BranchHandler) Rebase(w http.ResponseWriter, req *http.Request) {
	h.merge(w, req, h.ConDB.Rebase)
}

func (h *BranchHandler) merge(w http.ResponseWriter, req *http.Request, f func(ctx context.Context, u condb.Identity, databaseID, source, target string, force bool) (*condb.MergeResult, error)) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var body MergeRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if body.TargetBranch == "" {
		writeError(ctx, w, req, errors.E(errors.CodeBadRequest, "target branch not specified"))
		return
	}
	if body.Author != "" {
		u.ID = body.Author
	}
	result, err := f(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch"), body.TargetBranch, body.Force)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, result)
}

// ValidateMerge handles POST /{branch}/validate-merge, a merge dry run.
func (h *BranchHandler) ValidateMerge(w http.ResponseWriter, req *http.Request) {
	h.validateMerge(w, req, h.ConDB.ValidateMerge)
}

// ValidateRebase handles POST /{branch}/validate-rebase, a rebase dry
// run.
func (h *BranchHandler) ValidateRebase(w http.ResponseWriter, req *http.Request) {
	h.validateMerge(w, req, h.ConDB.ValidateRebase)
}

func (h *BranchHandler) validateMerge(w http.ResponseWriter, req *http.Request, f func(ctx context.Context, databaseID, source, target string) (*condb.MergeCheck, error)) {
	ctx := req.Context()
	var body MergeRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if body.TargetBranch == "" {
		writeError(ctx, w, req, errors.E(errors.CodeBadRequest, "target branch not specified"))
		return
	}
	check, err := f(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "branch"), body.TargetBranch)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, check)
}

// ResolveConflicts handles POST /{branch}/resolve-conflicts, completing
// a merge or rebase that was stopped on conflicts.
func (h *BranchHandler) ResolveConflicts(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	result, err := h.ConDB.ResolveMergeConflicts(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, result)
}

// AbortMerge handles POST /{branch}/abort-merge, discarding a merge or
// rebase that was stopped on conflicts.
func (h *BranchHandler) AbortMerge(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	if err := h.ConDB.AbortMerge(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "branch")); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Validate handles GET /{branch}/validate, validating the branch's
// current commit.
func (h *BranchHandler) Validate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	ref := chi.URLParam(req, "branch")
	result, err := h.ConDB.Validate(ctx, chi.URLParam(req, "database"), ref)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, ValidationResponse{Ref: ref, Result: *result})
}
