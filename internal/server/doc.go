// Package server exposes keypoint annotation sessions over JSON-RPC 2.0.
//
// The same request router serves two transports:
//   - stdio: newline-delimited requests on stdin, responses on stdout, one
//     local session (see Server.Run)
//   - HTTP: POST /rpc with a login cookie, one session per signed-in user
//     (see Server.Handler)
//
// # Methods
//
// Available without a session:
//   - initialize: protocol handshake
//   - ping: health check
//   - events/list: enumerate the session methods and their params
//   - catalog/list: the session labels, their colors and the full vocabulary
//
// Session methods:
//   - session/state, session/restore
//   - event/click, event/drag, event/resize, event/select
//   - event/clear, event/save, event/navigate, event/viewport, event/noop
//   - image/render: the current image with its markers as base64
//
// Every session method returns the full Result of the session: render
// description, active label, radius and serialized state.
//
// # HTTP routes
//
//	GET  /login, POST /login     sign in, sets the session cookie
//	GET  /signup, POST /signup   create an account
//	GET  /logout                 sign out and drop the session
//	POST /rpc                    JSON-RPC endpoint
//	GET  /image.png              current image with markers (?format=webp)
//	GET  /healthz                liveness and counters
//	GET  /                       annotation page
//
// # Error Handling
//
// Failures are JSON-RPC error responses:
//   - -32700: request is not valid JSON or exceeds 1 MiB
//   - -32601: unknown method
//   - -32602: invalid params, malformed drag or malformed state
//   - -32000: event failed, e.g. the save sink returned an error
//   - -32001: caller is not signed in
//   - -32002: the session hit an invariant violation and was discarded;
//     the next call starts a fresh session
//
// The data field carries the underlying Go error string.
package server
