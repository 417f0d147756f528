// Package comms provides the message-passing layer between helper parties.
//
// Steps consume it as a capability: SendTo enqueues a correlated message
// for one peer, Receive suspends until the message tagged with a
// correlation identifier has arrived, regardless of whether it arrived
// before or after the call.
package comms

import (
	"context"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/attributelabs/private-attribution/pkg/party"
)

// Helper is the capability set a step uses to talk to its peer parties.
// Payloads are opaque byte sequences; typed access goes through Send,
// Receive and Exchange.
type Helper interface {
	// SendTo enqueues payload for the addressed peer, tagged with id.
	SendTo(ctx context.Context, to party.ID, id uuid.UUID, payload []byte) error
	// ReceiveFrom returns the payload tagged with id, suspending until it
	// has arrived.
	ReceiveFrom(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// Send encodes v and sends it to the addressed peer, tagged with id.
func Send[T any](ctx context.Context, h Helper, to party.ID, id uuid.UUID, v T) error {
	payload, err := cbor.Marshal(v)
	if err != nil {
		return &SendError{To: to, Err: err}
	}
	return h.SendTo(ctx, to, id, payload)
}

// Receive returns the value tagged with id, decoded as T. A payload that
// does not decode into T surfaces as a ReceiveError, never a panic.
func Receive[T any](ctx context.Context, h Helper, id uuid.UUID) (T, error) {
	var v T
	payload, err := h.ReceiveFrom(ctx, id)
	if err != nil {
		return v, err
	}
	if err := cbor.Unmarshal(payload, &v); err != nil {
		return v, &ReceiveError{ID: id.String(), Err: err}
	}
	return v, nil
}

// Exchange concurrently sends v to the addressed peer and awaits the
// peer's corresponding reply. It fails as soon as either side fails;
// there is no partial success.
func Exchange[S, R any](ctx context.Context, h Helper, to party.ID, sendID, recvID uuid.UUID, v S) (R, error) {
	var received R
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return Send(ctx, h, to, sendID, v)
	})
	g.Go(func() error {
		r, err := Receive[R](ctx, h, recvID)
		if err != nil {
			return err
		}
		received = r
		return nil
	})
	if err := g.Wait(); err != nil {
		var zero R
		return zero, err
	}
	return received, nil
}
