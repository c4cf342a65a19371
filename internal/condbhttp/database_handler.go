// Copyright 2026 Canonical.

package condbhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/condb/condb/internal/condb"
)

// DatabaseHandler serves the database collection.
type DatabaseHandler struct {
	Router *chi.Mux
	ConDB  *condb.ConDB
}

// NewDatabaseHandler returns a new DatabaseHandler.
func NewDatabaseHandler(c *condb.ConDB) *DatabaseHandler {
	return &DatabaseHandler{Router: chi.NewRouter(), ConDB: c}
}

// Routes returns the grouped routers routes with group specific middlewares.
func (h *DatabaseHandler) Routes() chi.Router {
	h.SetupMiddleware()
	h.Router.Get("/", h.List)
	h.Router.Post("/", h.Add)
	h.Router.Get("/{database}", h.Get)
	h.Router.Delete("/{database}", h.Delete)
	return h.Router
}

// SetupMiddleware applies middlewares.
func (h *DatabaseHandler) SetupMiddleware() {
	h.Router.Use(
		render.SetContentType(
			render.ContentTypeJSON,
		),
	)
}

// List handles GET /, returning every database.
func (h *DatabaseHandler) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	databases, err := h.ConDB.ListDatabases(ctx)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	resp := make([]Database, len(databases))
	for i := range databases {
		resp[i] = databaseResponse(&databases[i])
	}
	render.JSON(w, req, resp)
}

// Add handles POST /, creating a database.
func (h *DatabaseHandler) Add(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	var body AddDatabaseRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	database, err := h.ConDB.AddDatabase(ctx, u, body.Name, body.Description)
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.Status(req, http.StatusCreated)
	render.JSON(w, req, databaseResponse(database))
}

// Get handles GET /{database}.
func (h *DatabaseHandler) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	database, err := h.ConDB.GetDatabase(ctx, chi.URLParam(req, "database"))
	if err != nil {
		writeError(ctx, w, req, err)
		return
	}
	render.JSON(w, req, databaseResponse(database))
}

// Delete handles DELETE /{database}. A database that has commits,
// branches other than the default or live working commits cannot be
// deleted.
func (h *DatabaseHandler) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	u, ok := requireIdentity(w, req)
	if !ok {
		return
	}
	if err := h.ConDB.DeleteDatabase(ctx, u, chi.URLParam(req, "database")); err != nil {
		writeError(ctx, w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
