// Package api implements the REST surface of the farm mapping backend:
// registration and login, administrator user management and
// impersonation, polygon CRUD with ownership checks, polygon chat,
// password recovery and the crop reference catalog.
//
// Handlers are grouped into per-area handler structs that register
// their own routes. The server wires them behind a shared middleware
// chain (request id, logging, recovery, CORS, body caps, metrics,
// token resolution) and enforces principal/role requirements per
// subrouter.
package api
