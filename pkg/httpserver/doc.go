// Package httpserver runs the service's HTTP listener with the timeouts from
// Config (HTTP_* environment variables) and shuts it down gracefully when the
// run context is canceled.
package httpserver
