// Copyright 2026 Canonical.

package condbhttp

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/dbmodel"
)

// CommitHandler serves the commit history of a database, including
// commit tags. It is mounted under a route carrying a {database}
// parameter.
type CommitHandler struct {
	Router *chi.Mux
	ConDB  *condb.ConDB
}

// NewCommitHandler returns a new CommitHandler.
func NewCommitHandler(c *condb.ConDB) *CommitHandler {
	return &CommitHandler{Router: chi.NewRouter(), ConDB: c}
}

// Routes returns the grouped routers routes with group specific middlewares.
func (h *CommitHandler) Routes() chi.Router {
	h.SetupMiddleware()
	h.Router.Get("/", h.List)
	h.Router.Get("/{hash}", h.Get)
	h.Router.Get("/{hash}/history", h.History)
	h.Router.Get("/{hash}/tags", h.ListTags)
	h.Router.Post("/{hash}/tags", h.AddTag)
	h.Router.Delete("/{hash}/tags/{tag}", h.DeleteTag)
	return h.Router
}

// SetupMiddleware applies middlewares.
func (h *CommitHandler) SetupMiddleware() {
	h.Router.Use(
		render.SetContentType(
			render.ContentTypeJSON,
		),
	)
}

// List handles GET /, returning the database's commits, newest first.
func (h *CommitHandler) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	commits, err := h.ConDB.ListCommits(ctx, chi.URLParam(req, "database"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := make([]Commit, len(commits))
	for i := range commits {
		resp[i] = commitResponse(&commits[i])
	}
	render.JSON(w, req, resp)
}

// Get handles GET /{hash}.
func (h *CommitHandler) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	commit, err := h.ConDB.GetCommit(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "hash"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, commitResponse(commit))
}

// History handles GET /{hash}/history, walking the commit's parent
// chain. A limit query parameter caps the walk.
func (h *CommitHandler) History(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	limit := 0
	if s := req.URL.Query().Get("limit"); s != "" {
		var err error
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			writeError(ctx, w, req, invalidQueryParam("limit", s))
			return
		}
	}
	commits, err := h.ConDB.CommitHistory(ctx, chi.URLParam(req, "database"), chi.URLParam(req, "hash"), limit)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := make([]Commit, len(commits))
	for i := range commits {
		resp[i] = commitResponse(&commits[i])
	}
	render.JSON(w, req, resp)
}

// ListTags handles GET /{hash}/tags.
func (h *CommitHandler) ListTags(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	query := dbmodel.CommitTagQuery{
		CommitHash: chi.URLParam(req, "hash"),
		TagType:    dbmodel.TagType(req.URL.Query().Get("type")),
		TagName:    req.URL.Query().Get("name"),
	}
	tags, err := h.ConDB.ListCommitTags(ctx, chi.URLParam(req, "database"), query)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := make([]CommitTag, len(tags))
	for i := range tags {
		resp[i] = commitTagResponse(&tags[i])
	}
	render.JSON(w, req, resp)
}

// AddTag handles POST /{hash}/tags.
func (h *CommitHandler) AddTag(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var body AddCommitTagRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	tag, err := h.ConDB.TagCommit(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "hash"), body.TagType, body.TagName, body.Description)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, commitTagResponse(tag))
}

// DeleteTag handles DELETE /{hash}/tags/{tag}.
func (h *CommitHandler) DeleteTag(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	if err := h.ConDB.DeleteCommitTag(ctx, u, chi.URLParam(req, "database"), chi.URLParam(req, "hash"), chi.URLParam(req, "tag")); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
