// Package errors provides the error classification shared by every package in
// the client manager.
//
// # Error Classification
//
// Errors fall into three classes:
//
//   - Transient: network timeouts, lost connections, open circuit breakers.
//     The transport may retry them.
//   - Invalid: malformed envelopes, query-text parse failures, unknown event
//     types. The offending event is dropped; retrying cannot help.
//   - Fatal: bad configuration and programming errors. Startup aborts.
//
// # Wrapping
//
// All wrapping follows one format:
//
//	"component.method: action failed: %w"
//
// for example
//
//	return errors.WrapInvalid(err, "Engine", "AddQuery", "parse query text")
//
// # Coordination Outcomes
//
// ErrPublisherNotFound, ErrQueryNotFound and ErrDuplicate name the benign
// no-op paths of the coordination engine. The engine reports them through
// its Outcome values and logs; it does not return them to callers.
package errors
