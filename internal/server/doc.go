// Package server is the REST API: routing, middleware, and the JSON handlers for accounts,
// playlists, and songs.
//
// # Router
//
// [MuxRouter] wraps gorilla/mux. [Middleware] registered with Use wraps every route added
// afterwards, first added runs outermost. Because middleware runs inside the matched
// route, [Metrics] labels requests with the route template (/playlists/{id}) rather than the
// raw path. /metrics is mounted without middleware.
//
// # Authentication
//
// [Authenticate] turns an "Authorization: Bearer <jwt>" header into an identity on the
// request context. Anonymous requests pass through; routes that need a caller are wrapped in
// [RequireAuth]. Play and the read routes accept both.
//
// # Responses
//
// Every body is a JSON object with a "success" flag. Errors carry an "error" message and a
// status derived from the wrapped sentinel in the shared package:
//
//	validation, duplicate name, duplicate song  400
//	unauthorized                                401
//	forbidden                                   403
//	not found                                   404
//	anything else                               500 (logged, message hidden)
//
// # Handler Interface
//
// Resource handlers implement [Handler], returning their routes so each resource keeps its
// route table next to its handlers.
package server
