// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"errors"
	"fmt"
)

// ErrTransport marks every failure to get a usable response from the
// service: network errors, non-200 statuses and undecodable bodies.
var ErrTransport = errors.New("transport error")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// TransportError describes a non-200 response.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
