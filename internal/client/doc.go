// Package client talks to a running aesdsocket server.
//
// Send delivers one payload over the TCP protocol and returns the log the
// server sends back. Follow streams the log from the server's WebSocket tail
// endpoint.
package client
