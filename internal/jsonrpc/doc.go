// Package jsonrpc implements the JSON-RPC 2.0 envelope layer of the bridge.
//
// It classifies inbound envelopes before any method handler runs and builds
// the outbound envelopes that carry either a result or an error:
//   - Decode and Envelope.Classify sort input into requests, notifications
//     and malformed envelopes
//   - Success and Failure build replies that echo the request id verbatim
//   - Code is the closed set of error codes and their HTTP status mapping
//
// Example usage:
//
//	env := jsonrpc.Decode(body)
//	switch env.Classify() {
//	case jsonrpc.KindNotification:
//	    w.WriteHeader(http.StatusNoContent)
//	case jsonrpc.KindMalformed:
//	    resp := jsonrpc.Failure(env.ReplyID(), jsonrpc.ErrInvalidRequest())
//	    ...
//	}
package jsonrpc
