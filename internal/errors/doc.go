// Package errors defines error types for the archive bridge.
//
// Configuration problems, archive failures and tool-call rejections each
// have a typed error. All of them support unwrapping and can be checked
// using errors.Is, errors.As, and errors.AsType.
package errors
