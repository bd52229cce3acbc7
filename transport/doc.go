// Package transport carries protocol messages between the verifier and the prover.
//
// A Messenger delivers opaque byte slices between numbered parties:
//
//	MessageSend(ctx, receiver, data)
//	MessageReceive(ctx, sender)
//
// It knows nothing about the identification protocol, which encodes its own
// messages on top. Two implementations are provided:
//
//   - mocknet: an in-process transport for tests and demos
//   - StreamMessenger: length-prefixed frames over a net.Conn
//
// The channel is assumed to be reliable, ordered and authenticated; a Messenger
// over an untrusted network should run on top of TLS.
package transport
