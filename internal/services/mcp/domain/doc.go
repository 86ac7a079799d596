// Package domain translates MCP tool calls into DiceService requests.
//
// Each tool has a constructor describing its schema and a handler that calls
// the dice gRPC client and returns a structured result MCP clients can render.
package domain
