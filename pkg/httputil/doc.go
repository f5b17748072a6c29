// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteJSONAPI(w, http.StatusOK, jsonapi.List(items, links))
//
// Error envelopes:
//
//	httputil.WriteDetail(w, http.StatusNotFound, "Resource with ID 1 not found")
//	httputil.WriteDetailMessage(w, http.StatusUnprocessableEntity, fields, "Validation error")
//	httputil.WriteJSONAPIError(w, http.StatusNotFound, "Not Found", detail)
//
// # Request Parsing
//
//	body, err := httputil.ReadBody(r)
//	limit, ferr := httputil.ParseQueryRange(r, "limit", 100, 1, 1000)
//	skip, ferr := httputil.ParseQueryRange(r, "skip", 0, 0, httputil.Unbounded)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware(logger, onPanic),
//		httputil.RequestIDMiddleware,
//		httputil.CORSMiddleware([]string{"*"}, "X-API-Key"),
//		httputil.LoggingMiddleware(logger),
//		httputil.MaxBytesMiddleware(httputil.DefaultMaxBodyBytes),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authentication middleware
//   - pkg/observability: Metrics middleware and panic logging
package httputil
