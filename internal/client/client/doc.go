// Package client talks to the Gatekeeper HTTP API on behalf of the CLI.
//
// The Client interface covers the three calls the CLI needs: Register,
// Login and Me. HTTPClient implements it over JSON and attaches the access
// token to authenticated calls as "Authorization: Bearer <token>".
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable and a 401 response as
// ErrUnauthorized. Any other non-2xx response is an *APIError carrying the
// status code and the server's message. Match with errors.Is and errors.As.
package client
