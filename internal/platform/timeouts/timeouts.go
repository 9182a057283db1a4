// Package timeouts defines shared timeout constants used across commands.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 10 * time.Second

// OTelShutdown limits how long telemetry flushing may delay process exit.
const OTelShutdown = 5 * time.Second
