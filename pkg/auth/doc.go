// Package auth implements the stateless authentication core: signed bearer
// tokens (HS256 JWTs), the closed role set, password hashing, and the
// per-request principal resolution that turns a raw token into an
// authenticated identity.
//
// Validity of a token is determined solely by its signature and expiry.
// There is no server-side session store and no revocation list; every
// request re-verifies the presented token from scratch.
package auth
