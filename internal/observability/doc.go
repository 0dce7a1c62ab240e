// Package observability exposes runtime metrics for a running scene and
// serves them, together with a health check, over HTTP.
package observability
