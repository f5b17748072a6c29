// Package middleware provides HTTP middleware for authentication and rate limiting.
//
// # Middleware Components
//
// BearerAuth: session-token authentication for the catalog routes
//
//	bearer := middleware.NewBearerAuth(authenticator, auditLogger, writeError)
//	catalogRouter.Use(bearer.Handler)
//	// Validates "Authorization: Bearer <token>", stores *auth.Principal in the context
//
// APIKeyAuth: static key authentication for the resource routes
//
//	apiKey := middleware.NewAPIKeyAuth(keySet, "X-API-Key", writeError)
//	resourceRouter.Use(apiKey.Handler)
//
// RateLimitMiddleware: in-memory, per client address
//
//	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{RequestsPerWindow: 600, WindowDuration: time.Minute})
//	handler = middleware.NewRateLimitMiddleware(limiter, writeError).Handler(handler)
//
// DistributedRateLimiter: the same contract backed by Redis, shared across replicas
//
//	limiter := middleware.NewDistributedRateLimiter(redisClient, config, "mockapi:ratelimit")
//
// Limiter errors are logged and the request is let through.
//
// Every rejection is rendered by the injected ErrorWriter so the caller can
// pick the response envelope.
//
// # Related Packages
//
//   - pkg/auth: Token validation and key sets
//   - pkg/contextkeys: Principal storage
package middleware
