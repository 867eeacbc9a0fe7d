package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the only accepted value of the "jsonrpc" member.
const Version = "2.0"

// Kind classifies an inbound envelope.
type Kind int

const (
	// KindMalformed is anything that is neither a request nor a notification.
	KindMalformed Kind = iota
	// KindNotification has a method and no id. It never gets a reply.
	KindNotification
	// KindRequest has a method and an id and gets exactly one reply.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotification:
		return "notification"
	case KindRequest:
		return "request"
	default:
		return "malformed"
	}
}

// Envelope is a decoded inbound JSON-RPC message.
//
// Wire format:
//
//	{
//	  "jsonrpc": "2.0",
//	  "id": 7,
//	  "method": "tools/call",
//	  "params": {"name": "saveConversation", "arguments": {...}}
//	}
//
// Presence of each member is tracked separately from its value because an
// absent id (notification) and "id": null (request) are different things.
type Envelope struct {
	JSONRPC string
	Method  string
	// ID holds the raw id exactly as received so it can be echoed with the
	// same type. It is nil when the member is absent.
	ID     json.RawMessage
	Params json.RawMessage

	versionPresent bool
	methodPresent  bool
	idPresent      bool
	idValid        bool
}

// UnmarshalJSON records which envelope members were present and whether
// they had the expected JSON types. Type mismatches are not decode errors;
// they make the envelope malformed.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}

	*e = Envelope{}

	if raw, ok := object["jsonrpc"]; ok {
		e.versionPresent = json.Unmarshal(raw, &e.JSONRPC) == nil
	}

	if raw, ok := object["method"]; ok {
		e.methodPresent = json.Unmarshal(raw, &e.Method) == nil && e.Method != ""
	}

	if raw, ok := object["id"]; ok {
		e.idPresent = true
		e.ID = bytes.TrimSpace(raw)
		e.idValid = isScalar(e.ID)
	}

	if raw, ok := object["params"]; ok {
		e.Params = raw
	}

	return nil
}

// HasID reports whether the id member was present, including "id": null.
func (e *Envelope) HasID() bool {
	return e.idPresent
}

// HasMethod reports whether a non-empty string method was present.
func (e *Envelope) HasMethod() bool {
	return e.methodPresent
}

// Classify decides how the envelope must be handled before any method
// handler runs. A method without an id is always a notification, even when
// the rest of the envelope is wrong.
func (e *Envelope) Classify() Kind {
	switch {
	case e.methodPresent && !e.idPresent:
		return KindNotification
	case !e.methodPresent || !e.idPresent || !e.idValid:
		return KindMalformed
	case !e.versionPresent || e.JSONRPC != Version:
		return KindMalformed
	default:
		return KindRequest
	}
}

// ReplyID returns the id to echo in a reply: the request id verbatim when
// it is a usable scalar, otherwise null.
func (e *Envelope) ReplyID() json.RawMessage {
	if e.idPresent && e.idValid {
		return e.ID
	}

	return Null
}

// Null is the JSON null literal used as the id of replies to envelopes whose
// id could not be determined.
var Null = json.RawMessage("null")

// isScalar reports whether raw is a JSON string, number, boolean or null.
func isScalar(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	switch raw[0] {
	case '{', '[':
		return false
	default:
		return json.Valid(raw)
	}
}

// Decode parses a raw body into an envelope. A body that is not a JSON
// object (invalid JSON, an array batch, a bare scalar) yields a malformed
// envelope with no id rather than an error.
func Decode(body []byte) *Envelope {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Envelope{}
	}

	return &env
}
