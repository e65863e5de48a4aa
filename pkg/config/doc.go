// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	FARM_HOST="0.0.0.0"
//	FARM_PORT="8080"
//	FARM_READ_TIMEOUT="15s"
//	FARM_WRITE_TIMEOUT="15s"
//	FARM_CORS_ORIGINS="https://app.example.com,https://admin.example.com"
//
// Database settings:
//
//	FARM_POSTGRES_URL="postgres://localhost/farm"
//	FARM_POSTGRES_MAX_CONNS="25"
//
// Redis settings (optional, backs login rate limiting):
//
//	FARM_REDIS_ADDR="localhost:6379"
//
// Auth settings:
//
//	FARM_JWT_SECRET="<at least 32 bytes>"
//	FARM_JWT_TTL="1h"
//	FARM_JWT_ALLOW_EPHEMERAL="false"   # dev only: random per-process key
//	FARM_TRUST_ADMIN_CLAIMS="false"    # trusted-issuer short-circuit
//
// Bootstrap accounts:
//
//	FARM_BOOTSTRAP_ADMIN_EMAIL / FARM_BOOTSTRAP_ADMIN_PASSWORD
//	FARM_BOOTSTRAP_SUPERADMIN_EMAIL / FARM_BOOTSTRAP_SUPERADMIN_PASSWORD
//
// Crop catalog:
//
//	FARM_CROP_CATALOG="/etc/farm/crops.yaml"
//
// # Validation
//
// LoadConfig fails fast on missing database URL and on a short JWT
// secret unless the ephemeral development key is explicitly allowed.
package config
