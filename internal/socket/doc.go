// Package socket wraps one gorilla/websocket connection behind a
// single ordered event stream.
//
// A Conn is single-use:
//   - Start dials in the background and runs the read loop
//   - Events yields at most one Open, any number of Message events,
//     then exactly one terminal Closed or Error event
//   - the channel closes after the terminal event
//
// The consumer must drain Events until it closes.
package socket
