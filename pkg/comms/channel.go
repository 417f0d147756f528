package comms

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/attributelabs/private-attribution/internal/rendezvous"
	"github.com/attributelabs/private-attribution/pkg/party"
)

// ChannelHelper is the queue-backed Helper implementation: one outbound
// queue per peer, and one inbound queue onto which all peers' messages are
// multiplexed. A single background goroutine drains the inbound queue into
// a rendezvous store keyed by correlation identifier; receivers block on
// the store, so arrival order and receive order are independent. The drain
// goroutine and the receivers never share mutable state directly.
type ChannelHelper struct {
	self    party.ID
	out     map[party.ID]*Queue
	inbound *Queue
	store   *rendezvous.Store
	maxWait time.Duration
	log     zerolog.Logger
}

// ChannelOption configures a ChannelHelper.
type ChannelOption func(*ChannelHelper)

// WithMaxWait bounds how long a single Receive may suspend. The zero
// default means no bound: a step whose awaited message never arrives
// suspends until its context is cancelled.
func WithMaxWait(d time.Duration) ChannelOption {
	return func(h *ChannelHelper) { h.maxWait = d }
}

// WithChannelLogger sets the helper's logger. The default discards
// everything.
func WithChannelLogger(log zerolog.Logger) ChannelOption {
	return func(h *ChannelHelper) { h.log = log }
}

// NewChannelHelper wires a helper for party self, with one outbound queue
// per peer and the party's inbound queue. It starts the inbound drain
// goroutine, which runs until the inbound queue is closed.
func NewChannelHelper(self party.ID, outbound map[party.ID]*Queue, inbound *Queue, opts ...ChannelOption) *ChannelHelper {
	h := &ChannelHelper{
		self:    self,
		out:     outbound,
		inbound: inbound,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With().Str("party", string(self)).Logger()
	h.store = rendezvous.New(string(self), rendezvous.WithLogger(h.log))
	go h.drain()
	return h
}

// Peers returns the sorted IDs of the parties this helper can send to.
func (h *ChannelHelper) Peers() party.IDSlice {
	ids := make([]party.ID, 0, len(h.out))
	for id := range h.out {
		ids = append(ids, id)
	}
	return party.NewIDSlice(ids)
}

// SendTo implements Helper.
func (h *ChannelHelper) SendTo(ctx context.Context, to party.ID, id uuid.UUID, payload []byte) error {
	q, ok := h.out[to]
	if !ok {
		return &SendError{To: to, Err: errors.New("unknown peer")}
	}
	env := Envelope{ID: id.String(), Payload: payload}
	data, err := env.encode()
	if err != nil {
		return &SendError{To: to, Err: err}
	}
	if err := q.Send(ctx, data); err != nil {
		return &SendError{To: to, Err: err}
	}
	h.log.Debug().Str("id", env.ID).Str("to", string(to)).Msg("sent message")
	return nil
}

// ReceiveFrom implements Helper.
func (h *ChannelHelper) ReceiveFrom(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if h.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.maxWait)
		defer cancel()
	}
	payload, err := h.store.Take(ctx, id.String())
	if err != nil {
		return nil, &ReceiveError{ID: id.String(), Err: err}
	}
	return payload, nil
}

// Close shuts the helper down: the outbound queues are closed so peers
// awaiting on them observe closure, and the drain goroutine stops, closing
// the rendezvous store and failing any suspended receivers.
func (h *ChannelHelper) Close() {
	for _, q := range h.out {
		q.Close()
	}
	h.inbound.Close()
}

// Done is closed once the drain goroutine and the store have shut down.
func (h *ChannelHelper) Done() <-chan struct{} {
	return h.store.Done()
}

func (h *ChannelHelper) drain() {
	defer h.store.Close()
	for {
		select {
		case data := <-h.inbound.C():
			if !h.dispatch(data) {
				return
			}
		case <-h.inbound.Done():
			// Flush whatever was buffered before the close, so shutdown
			// never drops envelopes that already arrived.
			for {
				select {
				case data := <-h.inbound.C():
					if !h.dispatch(data) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// dispatch writes one inbound envelope into the rendezvous store. It
// returns false once the store has shut down.
func (h *ChannelHelper) dispatch(data []byte) bool {
	env, err := decodeEnvelope(data)
	if err != nil {
		h.log.Error().Err(err).Msg("dropping malformed envelope")
		return true
	}
	ousted, err := h.store.Write(env.ID, env.Payload)
	if err != nil {
		return false
	}
	if ousted != nil {
		h.log.Warn().Str("id", env.ID).Msg("double write for correlation id")
	}
	return true
}
