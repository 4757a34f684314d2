// Package api is the HTTP transport for the SecureVault service: one
// request function plus typed bindings for every endpoint the client
// consumes. All calls go through Client.Request, which owns URL resolution,
// body serialization, bearer-header injection, response parsing, and the
// clear-session-on-401 side effect. The transport performs no retries.
package api
