package adapter

import "errors"

var (
	// ErrNotModified signals that a conditional fetch matched the server
	// state and no reconciliation is needed. It is not a failure.
	ErrNotModified = errors.New("not modified")

	// ErrUnauthorized indicates a rejected or missing device token.
	ErrUnauthorized = errors.New("client unauthorized")
	// ErrForbidden indicates the device lacks permission for the resource.
	ErrForbidden = errors.New("access forbidden")
	// ErrNotFound indicates the resource does not exist on this server,
	// including endpoints the server version does not support.
	ErrNotFound = errors.New("resource not found")

	// ErrBadRequest indicates the server rejected the request payload.
	ErrBadRequest = errors.New("bad request")
	// ErrConflict indicates a state conflict reported by the server.
	ErrConflict = errors.New("conflict")

	// ErrServer indicates a transient server-side failure (5xx).
	ErrServer = errors.New("server failure")
	// ErrTransport indicates the request never produced a response.
	ErrTransport = errors.New("transport failure")
)

// IsConfiguration reports whether err is a permanent configuration failure
// that needs operator attention rather than a retry.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is expected to resolve on a later retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrServer) || errors.Is(err, ErrTransport)
}
