// Package httpmw holds the middleware in front of the public site.
//
// httpserver.NewHandler composes it outermost first: recover, security
// headers, request ID, client IP, rate limiting, tracing, content headers,
// metrics, logging, then the chi router. Query strings are logged because
// they carry the project filter (tag, q); headers and user agents are not.
package httpmw
