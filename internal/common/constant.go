// Package common contains shared constants and sentinel errors used across
// scrumlink components.
package common

// AuthHeaderName is the HTTP header that carries the bearer access token on
// outbound requests.
const AuthHeaderName = "Authorization"

// RequestIDHeaderName is the HTTP header used to correlate a single outbound
// request in server and client logs.
const RequestIDHeaderName = "X-Request-ID"

// BearerPrefix is prepended to the access token in AuthHeaderName.
const BearerPrefix = "Bearer "
