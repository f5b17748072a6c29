package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/catalog"
	"github.com/platinummonkey/mockapi/pkg/httputil"
	"github.com/platinummonkey/mockapi/pkg/jsonapi"
	"github.com/platinummonkey/mockapi/pkg/middleware"
)

// Query parameters and bounds for catalog listings
const (
	pageSizeParam   = "page[size]"
	pageNumberParam = "page[number]"

	defaultPageSize = 100
	maxPageSize     = 1000
)

// CatalogHandlers serves the read-only eReserve collections as JSON:API
type CatalogHandlers struct {
	catalog    CatalogProvider
	bearer     *middleware.BearerAuth
	writeError middleware.ErrorWriter
}

// NewCatalogHandlers creates a new catalog handlers instance
func NewCatalogHandlers(provider CatalogProvider, bearer *middleware.BearerAuth, writeError middleware.ErrorWriter) *CatalogHandlers {
	return &CatalogHandlers{catalog: provider, bearer: bearer, writeError: writeError}
}

// RegisterRoutes registers list and get routes for every public collection.
// All of them require a bearer token.
func (h *CatalogHandlers) RegisterRoutes(router *mux.Router) {
	for _, c := range catalog.Public() {
		path := "/" + c.String()
		router.Handle(path, h.bearer.Handler(h.listItems(c))).Methods(http.MethodGet)
		router.Handle(path+"/{id}", h.bearer.Handler(h.getItem(c))).Methods(http.MethodGet)
	}
}

// listItems handles GET /{collection}
func (h *CatalogHandlers) listItems(c catalog.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields []apierrors.FieldError

		size, ferr := httputil.ParseQueryRange(r, pageSizeParam, defaultPageSize, 1, maxPageSize)
		if ferr != nil {
			fields = append(fields, *ferr)
		}
		number, ferr := httputil.ParseQueryRange(r, pageNumberParam, 1, 1, httputil.Unbounded)
		if ferr != nil {
			fields = append(fields, *ferr)
		}
		if len(fields) > 0 {
			h.writeError(w, r, apierrors.Validation(fields...))
			return
		}

		result, err := h.catalog.Current().GetAllPaginated(c, number, size)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		data := make([]jsonapi.Resource, 0, len(result.Items))
		for _, rec := range result.Items {
			res, err := c.Resource(rec)
			if err != nil {
				h.writeError(w, r, apierrors.Internal("Internal server error", err))
				return
			}
			data = append(data, res)
		}

		links := jsonapi.PaginationLinks(requestURL(r), result.Page())
		httputil.WriteJSONAPI(w, http.StatusOK, jsonapi.List(data, links))
	}
}

// getItem handles GET /{collection}/{id}
func (h *CatalogHandlers) getItem(c catalog.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := h.catalog.Current().GetByID(c, mux.Vars(r)["id"])
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		res, err := c.Resource(rec)
		if err != nil {
			h.writeError(w, r, apierrors.Internal("Internal server error", err))
			return
		}
		httputil.WriteJSONAPI(w, http.StatusOK, jsonapi.Single(res))
	}
}

// requestURL returns the absolute request URL without its query string.
// X-Forwarded-Proto overrides the scheme behind a proxy.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); proto {
	case "http", "https":
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.Path
}
