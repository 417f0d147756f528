// Package rendezvous implements the key-value store used to pair
// asynchronously arriving cross-party messages with the step waiting for
// them. The table has a single owner: one goroutine processes a serial
// stream of commands, so no locking is ever required and no other task
// touches the map.
package rendezvous

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrClosed is returned for operations against a store that has shut down.
var ErrClosed = errors.New("rendezvous: store closed")

type commandKind int

const (
	writeCmd commandKind = iota
	takeCmd
	removeCmd
	unparkCmd
)

type command struct {
	kind    commandKind
	key     string
	payload []byte
	// reply is the one-shot acknowledgement channel; a nil payload on it
	// means "no previous value".
	reply chan []byte
}

// Store correlates writes and reads on a key regardless of which arrives
// first. An entry holds at most one pending payload and is removed when
// consumed.
type Store struct {
	name     string
	commands chan command
	quit     chan struct{}
	closed   chan struct{}
	log      zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New starts the store's command loop and returns a handle to it.
func New(name string, opts ...Option) *Store {
	s := &Store{
		name:     name,
		commands: make(chan command),
		quit:     make(chan struct{}),
		closed:   make(chan struct{}),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("store", name).Logger()
	go s.run()
	return s
}

// Write inserts payload at key and returns whatever value was previously
// stored there, or nil if the key was absent. A caller can detect a
// double-write by inspecting the returned value. If a reader is already
// waiting on key, the payload is handed to it directly.
func (s *Store) Write(key string, payload []byte) ([]byte, error) {
	reply := make(chan []byte, 1)
	if err := s.submit(context.Background(), command{kind: writeCmd, key: key, payload: payload, reply: reply}); err != nil {
		return nil, err
	}
	return s.await(context.Background(), reply)
}

// Take returns the payload stored at key, removing the entry. If the key is
// absent, Take suspends until a matching Write occurs, the context is
// cancelled, or the store shuts down. A Take that gives up withdraws its
// parked waiter, so a later Write still reaches the table or the next
// waiter in line.
func (s *Store) Take(ctx context.Context, key string) ([]byte, error) {
	reply := make(chan []byte, 1)
	if err := s.submit(ctx, command{kind: takeCmd, key: key, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		s.unpark(key, reply)
		return nil, ctx.Err()
	}
}

// unpark withdraws a parked reply channel whose caller gave up. The command
// is processed before any command submitted after Take returns, so a
// retried Take never races its own withdrawal.
func (s *Store) unpark(key string, reply chan []byte) {
	select {
	case s.commands <- command{kind: unparkCmd, key: key, reply: reply}:
	case <-s.quit:
	}
}

// Remove deletes the entry at key and returns the removed value, or nil if
// the key was absent. Removing a nonexistent key is not an error.
func (s *Store) Remove(key string) ([]byte, error) {
	reply := make(chan []byte, 1)
	if err := s.submit(context.Background(), command{kind: removeCmd, key: key, reply: reply}); err != nil {
		return nil, err
	}
	return s.await(context.Background(), reply)
}

// Close shuts the store down. Parked readers observe ErrClosed.
func (s *Store) Close() {
	close(s.quit)
}

// Done is closed once the command loop has exited and released its table.
func (s *Store) Done() <-chan struct{} {
	return s.closed
}

func (s *Store) submit(ctx context.Context, cmd command) error {
	select {
	case s.commands <- cmd:
		return nil
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) await(ctx context.Context, reply <-chan []byte) ([]byte, error) {
	select {
	case v := <-reply:
		return v, nil
	case <-s.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) run() {
	table := make(map[string][]byte)
	waiters := make(map[string][]chan []byte)

	defer func() {
		s.log.Info().Msg("closing")
		close(s.closed)
	}()

	for {
		select {
		case <-s.quit:
			return
		case cmd := <-s.commands:
			switch cmd.kind {
			case writeCmd:
				s.log.Debug().Str("key", cmd.key).Msg("writing data")
				if waiter, ok := popWaiter(waiters, cmd.key); ok {
					// A reader got here first; hand the payload over
					// without ever storing it.
					s.deliver(waiter, cmd.payload)
					s.deliver(cmd.reply, nil)
					continue
				}
				ousted := table[cmd.key]
				table[cmd.key] = cmd.payload
				s.deliver(cmd.reply, ousted)
			case takeCmd:
				payload, ok := table[cmd.key]
				if !ok {
					waiters[cmd.key] = append(waiters[cmd.key], cmd.reply)
					continue
				}
				delete(table, cmd.key)
				s.deliver(cmd.reply, payload)
			case removeCmd:
				payload, ok := table[cmd.key]
				if !ok {
					s.log.Debug().Str("key", cmd.key).Msg("removing nonexistent key")
				}
				delete(table, cmd.key)
				s.deliver(cmd.reply, payload)
			case unparkCmd:
				if dropWaiter(waiters, cmd.key, cmd.reply) {
					continue
				}
				// The waiter is no longer parked, so a write already
				// delivered into its buffer. Pull the payload back out so
				// it is not lost with the abandoned channel.
				select {
				case payload := <-cmd.reply:
					if waiter, ok := popWaiter(waiters, cmd.key); ok {
						s.deliver(waiter, payload)
					} else {
						table[cmd.key] = payload
					}
				default:
				}
			}
		}
	}
}

// popWaiter removes and returns the first parked reply channel for key.
func popWaiter(waiters map[string][]chan []byte, key string) (chan []byte, bool) {
	pending := waiters[key]
	if len(pending) == 0 {
		return nil, false
	}
	if len(pending) == 1 {
		delete(waiters, key)
	} else {
		waiters[key] = pending[1:]
	}
	return pending[0], true
}

// dropWaiter removes a specific parked reply channel for key, reporting
// whether it was still parked.
func dropWaiter(waiters map[string][]chan []byte, key string, reply chan []byte) bool {
	pending := waiters[key]
	for i, w := range pending {
		if w == reply {
			pending = append(pending[:i], pending[i+1:]...)
			if len(pending) == 0 {
				delete(waiters, key)
			} else {
				waiters[key] = pending
			}
			return true
		}
	}
	return false
}

// deliver sends an acknowledgement without blocking the command loop.
// A requester that already gave up is logged and skipped; the store keeps
// running.
func (s *Store) deliver(reply chan<- []byte, payload []byte) {
	select {
	case reply <- payload:
	default:
		s.log.Warn().Msg("could not deliver acknowledgement: requester gone")
	}
}
