package comms

import (
	"errors"
	"fmt"

	"github.com/attributelabs/private-attribution/pkg/party"
)

// ErrQueueClosed is returned when sending on a queue whose peer is gone.
var ErrQueueClosed = errors.New("comms: queue closed")

// SendError indicates that an outbound message could not be enqueued.
type SendError struct {
	To  party.ID
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("comms: send to %q: %v", e.To, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError indicates that an awaited message could not be delivered:
// either the inbound side shut down first, or the payload failed to decode
// into the expected type.
type ReceiveError struct {
	ID  string
	Err error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("comms: receive %q: %v", e.ID, e.Err)
}

func (e *ReceiveError) Unwrap() error { return e.Err }
