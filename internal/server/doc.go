// Package server is the WebSocket transport of the chat backend.
//
// A Hub tracks one Client per upgraded connection and reports the connection
// lifecycle and every inbound text frame to an Events sink. Clients satisfy
// connection.Conn, so outbound frames are pushed to them by connection ID.
// The package also carries the HTTP routes, the origin policy, per-connection
// rate limiting and the runtime configuration.
package server
