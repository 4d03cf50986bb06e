// Package server exposes the loader over HTTP with Fiber so that tools which
// cannot link the Go package directly can still load verified network modules.
// The app carries a request ID and panic recovery middleware, serves /load and
// /resolve, and leaves the /-/ prefix to diagnostics registered by the routes
// subpackage. Keep exports narrow and accept explicit dependencies.
package server
