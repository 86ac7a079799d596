// Package service wires protocol transport to domain services.
//
// It is the transport adapter layer: the package knows how to run MCP over stdio
// or streamable HTTP and delegates the dice semantics to the DiceService behind
// the domain handlers.
package service
