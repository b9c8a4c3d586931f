// Package web holds the browser-facing middleware of the HTTP API: cookie
// sessions that tie a browser to its search session, CSRF protection for
// mutating requests, and security headers.
package web
