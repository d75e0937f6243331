package common

// AuthorizationHeaderName is the HTTP header (and lower-cased gRPC metadata
// key) carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme accepted by the gate.
const BearerScheme = "Bearer"

// TokenEnvName is the environment variable the CLI reads the access token from.
const TokenEnvName = "GATEKEEPER_TOKEN"
