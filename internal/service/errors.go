package service

import (
	"errors"
	"fmt"

	"github.com/eventra/checkpoint/models"
)

var (
	// ErrCheckInListNotFound is returned when the requested check-in
	// list is missing from the local replica.
	ErrCheckInListNotFound = errors.New("check-in list not found in local data")

	// ErrNotSupported is returned by providers that cannot serve a
	// particular operation, such as aggregate status over a proxy.
	ErrNotSupported = errors.New("operation not supported by this provider")
)

// SyncError reports which resource a synchronization cycle failed on.
type SyncError struct {
	Resource models.Resource
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Resource, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
