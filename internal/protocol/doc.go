// Package protocol describes the aesdsocket wire format.
//
// The protocol is a plain byte stream with no framing beyond the newline:
//
//   - A client sends any bytes. The server appends them to the log as they
//     arrive, so a record can span several reads.
//   - The first read that contains a newline completes the exchange. The
//     server replies with the entire log and closes the connection.
//   - A client that disconnects before sending a newline gets no reply; its
//     bytes stay in the log.
//
// The server also writes timestamp records of the form
//
//	timestamp:Mon, 02 Jan 2006 15:04:05 -0700\n
//
// using RFC 2822 date layout (time.RFC1123Z).
package protocol
