package jsonrpc

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Code is a JSON-RPC error code. The set is closed; nothing outside this
// package and the method dispatcher mints codes.
type Code int

const (
	// CodeInvalidRequest means the envelope is not a valid request or
	// notification.
	CodeInvalidRequest Code = -32600
	// CodeMethodNotFound means the method, or the tool named by tools/call,
	// does not exist.
	CodeMethodNotFound Code = -32601
	// CodeInvalidParams means the params or tool arguments failed validation.
	CodeInvalidParams Code = -32602
	// CodeInternalError is the catch-all for failures outside tool execution.
	CodeInternalError Code = -32603
	// CodeServerError reports a failure raised while executing a tool,
	// including downstream archive failures and timeouts.
	CodeServerError Code = -32000
)

func (c Code) String() string {
	switch c {
	case CodeInvalidRequest:
		return "invalid_request"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeInvalidParams:
		return "invalid_params"
	case CodeInternalError:
		return "internal_error"
	case CodeServerError:
		return "server_error"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// HTTPStatus maps a code onto the transport status. Shape problems are the
// caller's fault (400); execution failures are ours (500).
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error member of a response envelope.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", int(e.Code), e.Message)
}

// NewError creates a protocol error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a protocol error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidRequest is the canned reply to malformed envelopes.
func ErrInvalidRequest() *Error {
	return NewError(CodeInvalidRequest, "Invalid Request")
}

// Response is an outbound JSON-RPC envelope. Exactly one of Result and
// Error is set; use Success or Failure to build one.
//
// Wire format for success:
//
//	{"jsonrpc": "2.0", "id": 7, "result": {...}}
//
// Wire format for error:
//
//	{"jsonrpc": "2.0", "id": 7, "error": {"code": -32601, "message": "..."}}
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Success builds a result envelope. A nil result is replaced with an empty
// object so the envelope never carries neither member.
func Success(id json.RawMessage, result any) *Response {
	if result == nil {
		result = struct{}{}
	}

	return &Response{
		JSONRPC: Version,
		ID:      normaliseID(id),
		Result:  result,
	}
}

// Failure builds an error envelope.
func Failure(id json.RawMessage, err *Error) *Response {
	if err == nil {
		err = NewError(CodeInternalError, "unknown error")
	}

	return &Response{
		JSONRPC: Version,
		ID:      normaliseID(id),
		Error:   err,
	}
}

// HTTPStatus returns the transport status for the response.
func (r *Response) HTTPStatus() int {
	if r.Error != nil {
		return r.Error.Code.HTTPStatus()
	}

	return http.StatusOK
}

// Outcome is a short label for logs and metrics: "ok" or the error code name.
func (r *Response) Outcome() string {
	if r.Error != nil {
		return r.Error.Code.String()
	}

	return "ok"
}

func normaliseID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return Null
	}

	return id
}
