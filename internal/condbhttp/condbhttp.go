// Copyright 2026 Canonical.

// Package condbhttp contains the HTTP API of the condb server. Each
// resource group is served by a handler holding its own chi router,
// mounted by the server command.
package condbhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/errors"
)

// A CondbHTTPHandler represents a http handler for the condb service.
type CondbHTTPHandler interface {
	Routes() chi.Router
	SetupMiddleware()
}

type identityKey struct{}

// IdentityMiddleware extracts the request audit headers into the
// request context. The headers are optional at this point, handlers
// performing mutations require an identity through requireIdentity.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		u := condb.Identity{
			ID:    req.Header.Get("X-User-Id"),
			Email: req.Header.Get("X-User-Email"),
			Name:  req.Header.Get("X-User-Name"),
		}
		ctx := context.WithValue(req.Context(), identityKey{}, u)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// identityFromContext returns the identity extracted by
// IdentityMiddleware, which is the zero identity for an anonymous
// request.
func identityFromContext(ctx context.Context) condb.Identity {
	u, _ := ctx.Value(identityKey{}).(condb.Identity)
	return u
}

// requireIdentity returns the caller's identity, writing a 401 response
// when the request carried no X-User-Id header.
func requireIdentity(w http.ResponseWriter, req *http.Request) (condb.Identity, bool) {
	u := identityFromContext(req.Context())
	if u.ID == "" {
		writeError(req.Context(), w, req, errors.E(errors.CodeUnauthorized, "X-User-Id header required"))
		return condb.Identity{}, false
	}
	return u, true
}

// An errorResponse is the body written for a failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFromError maps an error code to the HTTP status of the
// response reporting it.
func statusFromError(err error) int {
	switch errors.ErrorCode(err) {
	case errors.CodeBadRequest,
		errors.CodeNoChanges,
		errors.CodeTypeMismatch,
		errors.CodeMissingRequiredProperty,
		errors.CodeUndefinedProperty,
		errors.CodeUndefinedRelationship,
		errors.CodeQuantifierViolation,
		errors.CodeDerivedCycle,
		errors.CodeDomainConflict,
		errors.CodeValueTypeInconsistency,
		errors.CodeRelationshipError,
		errors.CodeCrossBranchReference,
		errors.CodeMissingCandidate,
		errors.CodeEmptySelection,
		errors.CodeSelectionTooLarge:
		return http.StatusBadRequest
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	case errors.CodeNotFound,
		errors.CodeBranchNotFound,
		errors.CodeCommitNotFound,
		errors.CodeWorkingCommitNotFound,
		errors.CodeClassNotFound:
		return http.StatusNotFound
	case errors.CodeAlreadyExists,
		errors.CodeConflict,
		errors.CodeWorkingCommitExists,
		errors.CodeBranchNotEmpty,
		errors.CodeMergeConflict,
		errors.CodeValidationConflict,
		errors.CodeNoCommonAncestor,
		errors.CodeDatabaseLocked:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError writes the JSON error response for err.
func writeError(ctx context.Context, w http.ResponseWriter, req *http.Request, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		zapctx.Error(ctx, "internal server error", zap.Error(err))
	} else {
		zapctx.Debug(ctx, "request error", zap.Error(err))
	}
	code := string(errors.ErrorCode(err))
	if code == "" {
		code = "internal server error"
	}
	render.Status(req, status)
	render.JSON(w, req, errorResponse{Code: code, Message: err.Error()})
}

// invalidQueryParam returns the bad request error for a malformed
// query parameter.
func invalidQueryParam(name, value string) error {
	return errors.E(errors.CodeBadRequest, "invalid "+name+" query parameter "+strconv.Quote(value))
}

// decodeBody decodes the JSON request body into v, reporting a bad
// request error on malformed input.
func decodeBody(req *http.Request, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return errors.E(errors.CodeBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}
