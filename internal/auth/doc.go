// Package auth turns bearer tokens into caller identities and answers the
// delete authorization question.
//
// Tokens are JWTs. The signing key comes from one of three sources, checked
// in this order: a JWKS endpoint (AUTH_JWKS_URL), an RSA public key in PEM
// form (AUTH_JWT_PUBLIC_KEY_PEM) or a shared HMAC secret (AUTH_JWT_SECRET).
// The subject claim becomes Identity.UserID; roles are read from the "roles"
// claim and, for Keycloak-issued tokens, from realm_access.roles.
package auth
