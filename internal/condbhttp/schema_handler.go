// Copyright 2026 Canonical.

package condbhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/model"
)

// SchemaHandler serves the schema classes and instances of a ref. It is
// mounted under a route carrying a {database} parameter and optionally
// a {branch} parameter; without a branch the database's default branch
// is used. Reads resolve the ref, mutations stage changes on the
// branch's working commit.
type SchemaHandler struct {
	Router *chi.Mux
	ConDB  *condb.ConDB
}

// NewSchemaHandler returns a new SchemaHandler.
func NewSchemaHandler(c *condb.ConDB) *SchemaHandler {
	return &SchemaHandler{Router: chi.NewRouter(), ConDB: c}
}

// Routes returns the grouped routers routes with group specific middlewares.
func (h *SchemaHandler) Routes() chi.Router {
	h.SetupMiddleware()
	h.Router.Get("/schema", h.Schema)
	h.Router.Get("/schema/classes", h.ListClasses)
	h.Router.Post("/schema/classes", h.AddClass)
	h.Router.Get("/schema/classes/{class}", h.GetClass)
	h.Router.Put("/schema/classes/{class}", h.UpdateClass)
	h.Router.Delete("/schema/classes/{class}", h.DeleteClass)
	h.Router.Get("/instances", h.ListInstances)
	h.Router.Post("/instances", h.AddInstance)
	h.Router.Get("/instances/{instance}", h.GetInstance)
	h.Router.Get("/instances/{instance}/validate", h.ValidateInstance)
	h.Router.Put("/instances/{instance}", h.UpdateInstance)
	h.Router.Delete("/instances/{instance}", h.DeleteInstance)
	h.Router.Get("/validate", h.Validate)
	return h.Router
}

// SetupMiddleware applies middlewares.
func (h *SchemaHandler) SetupMiddleware() {
	h.Router.Use(
		render.SetContentType(
			render.ContentTypeJSON,
		),
	)
}

// ref returns the ref the request reads from: the branch route
// parameter, a ref query parameter, or empty for the default branch.
func (h *SchemaHandler) ref(req *http.Request) string {
	if branch := chi.URLParam(req, "branch"); branch != "" {
		return branch
	}
	return req.URL.Query().Get("ref")
}

// branch returns the branch the request mutates: the branch route
// parameter, or else the name of the database's default branch.
func (h *SchemaHandler) branch(req *http.Request) (string, error) {
	if branch := chi.URLParam(req, "branch"); branch != "" {
		return branch, nil
	}
	database, err := h.ConDB.GetDatabase(req.Context(), chi.URLParam(req, "database"))
	if err != nil {
		return "", err
	}
	return database.DefaultBranchName, nil
}

// Schema handles GET /schema, returning the full schema of the ref.
func (h *SchemaHandler) Schema(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	schema, err := h.ConDB.Schema(ctx, chi.URLParam(req, "database"), h.ref(req))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, schema)
}

// ListClasses handles GET /schema/classes.
func (h *SchemaHandler) ListClasses(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	schema, err := h.ConDB.Schema(ctx, chi.URLParam(req, "database"), h.ref(req))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	classes := schema.Classes
	if classes == nil {
		classes = []model.ClassDef{}
	}
	render.JSON(w, req, classes)
}

// AddClass handles POST /schema/classes.
func (h *SchemaHandler) AddClass(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var class model.ClassDef
	if err := decodeBody(req, &class); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	branch, err := h.branch(req)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	added, err := h.ConDB.AddClass(ctx, u, chi.URLParam(req, "database"), branch, class)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, added)
}

// GetClass handles GET /schema/classes/{class}.
func (h *SchemaHandler) GetClass(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	class, err := h.ConDB.GetClass(ctx, chi.URLParam(req, "database"), h.ref(req), chi.URLParam(req, "class"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, class)
}

// UpdateClass handles PUT /schema/classes/{class}.
func (h *SchemaHandler) UpdateClass(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var class model.ClassDef
	if err := decodeBody(req, &class); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if class.ID == "" {
		class.ID = chi.URLParam(req, "class")
	}
	branch, err := h.branch(req)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	updated, err := h.ConDB.UpdateClass(ctx, u, chi.URLParam(req, "database"), branch, class)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, updated)
}

// DeleteClass handles DELETE /schema/classes/{class}.
func (h *SchemaHandler) DeleteClass(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	branch, err := h.branch(req)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if err := h.ConDB.DeleteClass(ctx, u, chi.URLParam(req, "database"), branch, chi.URLParam(req, "class")); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInstances handles GET /instances. A class query parameter
// restricts the listing to instances of that class.
func (h *SchemaHandler) ListInstances(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	instances, err := h.ConDB.ListInstances(ctx, chi.URLParam(req, "database"), h.ref(req), req.URL.Query().Get("class"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if instances == nil {
		instances = []model.Instance{}
	}
	render.JSON(w, req, instances)
}

// AddInstance handles POST /instances.
func (h *SchemaHandler) AddInstance(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var inst model.Instance
	if err := decodeBody(req, &inst); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	branch, err := h.branch(req)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	added, err := h.ConDB.AddInstance(ctx, u, chi.URLParam(req, "database"), branch, inst)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, added)
}

// GetInstance handles GET /instances/{instance}. With expand=true the
// instance's relationships are materialized through the resolver.
func (h *SchemaHandler) GetInstance(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	expand := req.URL.Query().Get("expand") == "true"
	view, err := h.ConDB.GetInstance(ctx, chi.URLParam(req, "database"), h.ref(req), chi.URLParam(req, "instance"), expand)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, view)
}

// UpdateInstance handles PUT /instances/{instance}.
func (h *SchemaHandler) UpdateInstance(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var inst model.Instance
	if err := decodeBody(req, &inst); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if inst.ID == "" {
		inst.ID = chi.URLParam(req, "instance")
	}
	branch, err := h.branch(req)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	updated, err := h.ConDB.UpdateInstance(ctx, u, chi.URLParam(req, "database"), branch, inst)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, updated)
}

// DeleteInstance handles DELETE /instances/{instance}.
func (h *SchemaHandler) DeleteInstance(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	branch, err := h.branch(req)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	if err := h.ConDB.DeleteInstance(ctx, u, chi.URLParam(req, "database"), branch, chi.URLParam(req, "instance")); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateInstance handles GET /instances/{instance}/validate,
// validating the single instance against the ref's schema.
func (h *SchemaHandler) ValidateInstance(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	ref := h.ref(req)
	result, err := h.ConDB.ValidateInstance(ctx, chi.URLParam(req, "database"), ref, chi.URLParam(req, "instance"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, ValidationResponse{Ref: ref, Result: *result})
}

// Validate handles GET /validate, validating the ref.
func (h *SchemaHandler) Validate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	ref := h.ref(req)
	result, err := h.ConDB.Validate(ctx, chi.URLParam(req, "database"), ref)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, ValidationResponse{Ref: ref, Result: *result})
}
