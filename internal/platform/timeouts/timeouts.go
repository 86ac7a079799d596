// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GRPCDial caps the wait for a DiceService peer to report healthy.
const GRPCDial = 5 * time.Second

// GRPCRequest caps a single DiceService call made on behalf of a client,
// such as an MCP tool invocation.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server or exporter waits for in-flight work
// during graceful shutdown.
const Shutdown = 5 * time.Second
