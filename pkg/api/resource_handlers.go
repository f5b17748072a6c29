package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/httputil"
	"github.com/platinummonkey/mockapi/pkg/middleware"
	"github.com/platinummonkey/mockapi/pkg/observability"
	"github.com/platinummonkey/mockapi/pkg/resources"
	"github.com/sirupsen/logrus"
)

// Query bounds for GET /resources
const (
	defaultLimit = 100
	maxLimit     = 1000
)

// ResourceHandlers serves the CSV-backed resource CRUD endpoints
type ResourceHandlers struct {
	repo       *resources.Repository
	apiKey     *middleware.APIKeyAuth
	writeError middleware.ErrorWriter
}

// NewResourceHandlers creates a new resource handlers instance
func NewResourceHandlers(repo *resources.Repository, apiKey *middleware.APIKeyAuth, writeError middleware.ErrorWriter) *ResourceHandlers {
	return &ResourceHandlers{repo: repo, apiKey: apiKey, writeError: writeError}
}

// RegisterRoutes registers resource routes. Every route requires an API key.
func (h *ResourceHandlers) RegisterRoutes(router *mux.Router) {
	protect := func(fn http.HandlerFunc) http.Handler {
		return h.apiKey.Handler(fn)
	}

	for _, path := range []string{"/resources", "/resources/"} {
		router.Handle(path, protect(h.listResources)).Methods(http.MethodGet)
		router.Handle(path, protect(h.createResource)).Methods(http.MethodPost)
	}
	router.Handle("/resources/{id}", protect(h.getResource)).Methods(http.MethodGet)
	router.Handle("/resources/{id}", protect(h.updateResource)).Methods(http.MethodPut)
	router.Handle("/resources/{id}", protect(h.deleteResource)).Methods(http.MethodDelete)
}

// listResources handles GET /resources
func (h *ResourceHandlers) listResources(w http.ResponseWriter, r *http.Request) {
	var fields []apierrors.FieldError

	skip, ferr := httputil.ParseQueryRange(r, "skip", 0, 0, httputil.Unbounded)
	if ferr != nil {
		fields = append(fields, *ferr)
	}
	limit, ferr := httputil.ParseQueryRange(r, "limit", defaultLimit, 1, maxLimit)
	if ferr != nil {
		fields = append(fields, *ferr)
	}
	if len(fields) > 0 {
		h.writeError(w, r, apierrors.Validation(fields...))
		return
	}

	list, err := h.repo.GetAll(skip, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// getResource handles GET /resources/{id}
func (h *ResourceHandlers) getResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.GetByID(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, res)
}

// createResource handles POST /resources
func (h *ResourceHandlers) createResource(w http.ResponseWriter, r *http.Request) {
	body, err := httputil.ReadBody(r)
	if err != nil {
		h.writeError(w, r, bodyError(err))
		return
	}
	res, err := resources.ParseCreate(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.repo.Create(res)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	logMutation(r, "create", created.ID)
	httputil.WriteCreated(w, created)
}

// updateResource handles PUT /resources/{id}
func (h *ResourceHandlers) updateResource(w http.ResponseWriter, r *http.Request) {
	body, err := httputil.ReadBody(r)
	if err != nil {
		h.writeError(w, r, bodyError(err))
		return
	}
	patch, err := resources.ParseUpdate(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.repo.Update(mux.Vars(r)["id"], patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	logMutation(r, "update", updated.ID)
	httputil.WriteSuccess(w, updated)
}

// deleteResource handles DELETE /resources/{id}
func (h *ResourceHandlers) deleteResource(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := h.repo.Delete(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	logMutation(r, "delete", id)
	httputil.WriteSuccess(w, result)
}

// logMutation records which caller changed a resource
func logMutation(r *http.Request, action, id string) {
	entry := observability.FromContext(r.Context(), nil).WithFields(logrus.Fields{
		"action":      action,
		"resource_id": id,
	})
	if p := middleware.GetPrincipal(r); p != nil {
		entry = entry.WithFields(logrus.Fields{"caller": p.Subject, "scheme": string(p.Scheme)})
	}
	entry.Info("Resource changed")
}

// bodyError reports an unreadable or oversized body as a validation failure
func bodyError(err error) error {
	return &apierrors.Error{
		Kind:   apierrors.KindValidation,
		Detail: "Invalid request body",
		Fields: []apierrors.FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}},
		Err:    err,
	}
}
