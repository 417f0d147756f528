package comms

import (
	"context"

	"github.com/google/uuid"

	"github.com/attributelabs/private-attribution/internal/rendezvous"
	"github.com/attributelabs/private-attribution/pkg/party"
)

// Loopback is a deterministic in-memory Helper for tests and single-party
// runs: every send is delivered to the helper's own rendezvous store, so a
// step can talk to a mocked peer without queues or goroutines per peer.
type Loopback struct {
	store *rendezvous.Store
}

// NewLoopback returns a Loopback helper.
func NewLoopback() *Loopback {
	return &Loopback{store: rendezvous.New("loopback")}
}

// SendTo implements Helper. The peer selector is ignored; the payload is
// delivered locally under id.
func (l *Loopback) SendTo(ctx context.Context, to party.ID, id uuid.UUID, payload []byte) error {
	if _, err := l.store.Write(id.String(), payload); err != nil {
		return &SendError{To: to, Err: err}
	}
	return nil
}

// ReceiveFrom implements Helper.
func (l *Loopback) ReceiveFrom(ctx context.Context, id uuid.UUID) ([]byte, error) {
	payload, err := l.store.Take(ctx, id.String())
	if err != nil {
		return nil, &ReceiveError{ID: id.String(), Err: err}
	}
	return payload, nil
}

// Close shuts the loopback store down.
func (l *Loopback) Close() {
	l.store.Close()
}
