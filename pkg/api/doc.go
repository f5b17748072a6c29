// Package api provides the HTTP server for the mock resource and eReserve API.
//
// # Overview
//
// Two endpoint families are served under a common base path (default /api/v1):
//
//   - Resources: CRUD over the CSV-backed resource table, protected by a
//     static API key and answered with plain JSON.
//   - eReserve catalog: read-only JSON:API listings of the catalog
//     collections, protected by a bearer token obtained from the login route.
//
// # API Endpoints
//
//	GET    /                                  - Service name, version and description
//	GET    /api/v1/resources                  - List resources (skip, limit)
//	POST   /api/v1/resources                  - Create resource (201)
//	GET    /api/v1/resources/{id}             - Get resource
//	PUT    /api/v1/resources/{id}             - Update non-null fields
//	DELETE /api/v1/resources/{id}             - Delete resource
//	POST   /api/v1/users/login                - Issue a bearer token
//	GET    /api/v1/{collection}               - List collection (page[number], page[size])
//	GET    /api/v1/{collection}/{id}          - Get collection item
//
// The catalog collections are schools, units, unit-offerings, readings,
// reading-lists, reading-list-usages, reading-list-items,
// reading-list-item-usages, reading-utilisations, integration-users and
// teaching-sessions.
//
// # Error Envelopes
//
// Every failure is rendered by one error writer. Requests under a JSON:API
// path prefix get:
//
//	{"errors": [{"status": "404", "title": "Not Found", "detail": "Item with ID 9 not found in schools"}]}
//
// Everything else gets {"detail": "..."}, or for validation failures:
//
//	{"detail": [{"loc": ["body", "title"], "msg": "Field required", "type": "missing"}], "message": "Validation error"}
//
// # Middleware
//
// The router is wrapped, outermost first, by panic recovery, request IDs,
// CORS, request logging (X-Process-Time), Prometheus metrics and the
// optional rate limiter. Unmatched routes pass through the same chain.
//
// # Usage Example
//
//	server := api.NewServer(api.Options{
//		Info:          api.Info{Name: "Mock API", Version: "0.1.0"},
//		Resources:     resources.NewRepository("data/resources.csv"),
//		Catalog:       store,
//		Authenticator: auth.NewAuthenticator(tokens, store),
//		APIKeys:       auth.NewKeySet("key-one"),
//	})
//	log.Fatal(http.ListenAndServe(":8000", server))
//
// # Related Packages
//
//   - pkg/resources: CSV resource repository
//   - pkg/catalog: eReserve catalog repository and reload store
//   - pkg/auth: Tokens, login and API keys
//   - pkg/middleware: Authentication and rate limiting middleware
//   - pkg/jsonapi: JSON:API documents and pagination links
package api
