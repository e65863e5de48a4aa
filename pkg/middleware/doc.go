// Package middleware provides HTTP middleware for authentication and rate limiting.
//
// # Overview
//
// This package implements request processing middleware: bearer token
// resolution, principal requirements, and rate limiting (in-memory and
// Redis-backed).
//
// # Middleware Components
//
// AuthMiddleware: resolves the bearer token on every request
//
//	router.Use(middleware.NewAuthMiddleware(resolver, metrics).Handler)
//	// Extracts Bearer token, resolves it, installs *auth.Principal
//
// RequirePrincipal / RequireAdmin: route-level requirements
//
//	protected.Use(middleware.RequirePrincipal)
//	admin.Use(middleware.RequireAdmin)
//
// RateLimitMiddleware: in-memory rate limiting
//
//	router.Use(middleware.NewRateLimitMiddleware().Handler)
//
// LoginRateLimitMiddleware: Redis-backed per-IP throttle for credential
// endpoints
//
//	login.Use(middleware.NewLoginRateLimitMiddleware(redisClient).Handler)
//
// # Related Packages
//
//   - pkg/auth: token resolution
//   - pkg/guard: role hierarchy checks
package middleware
