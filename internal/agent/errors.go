package agent

import (
	"errors"
	"fmt"
)

// ErrRunTimeout indicates the polling deadline passed before the run
// reached a terminal status. The remote run may still be executing; it is
// not failed and not cancelled.
var ErrRunTimeout = errors.New("run did not reach a terminal status before the timeout")

// ServiceError indicates the remote agent service returned an error status
// or a malformed payload.
type ServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("agent service: %s returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("agent service: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
