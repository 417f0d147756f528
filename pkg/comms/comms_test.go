package comms

import (
	"context"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attributelabs/private-attribution/pkg/party"
)

func newTestHelper(t *testing.T, opts ...ChannelOption) (*ChannelHelper, *Queue, *Queue) {
	t.Helper()
	inbound := NewQueue(8)
	toPeer := NewQueue(8)
	h := NewChannelHelper("h1", map[party.ID]*Queue{"h2": toPeer}, inbound, opts...)
	t.Cleanup(h.Close)
	return h, inbound, toPeer
}

func inject(t *testing.T, q *Queue, id uuid.UUID, v any) {
	t.Helper()
	payload, err := cbor.Marshal(v)
	require.NoError(t, err)
	data, err := cbor.Marshal(Envelope{ID: id.String(), Payload: payload})
	require.NoError(t, err)
	require.NoError(t, q.Send(context.Background(), data))
}

func TestSendProducesEnvelope(t *testing.T) {
	h, _, toPeer := newTestHelper(t)
	id := uuid.New()

	require.NoError(t, Send(context.Background(), h, "h2", id, "hello"))

	select {
	case data := <-toPeer.C():
		var env Envelope
		require.NoError(t, cbor.Unmarshal(data, &env))
		assert.Equal(t, id.String(), env.ID)
		var s string
		require.NoError(t, cbor.Unmarshal(env.Payload, &s))
		assert.Equal(t, "hello", s)
	case <-time.After(time.Second):
		t.Fatal("no message on outbound queue")
	}
}

func TestSendUnknownPeer(t *testing.T) {
	h, _, _ := newTestHelper(t)

	err := Send(context.Background(), h, "h9", uuid.New(), "hello")
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, party.ID("h9"), sendErr.To)
}

func TestPeers(t *testing.T) {
	h := NewChannelHelper("h1", map[party.ID]*Queue{
		"h3": NewQueue(1),
		"h2": NewQueue(1),
	}, NewQueue(1))
	t.Cleanup(h.Close)

	assert.Equal(t, party.IDSlice{"h2", "h3"}, h.Peers())
}

func TestCloseDeliversBufferedInbound(t *testing.T) {
	h, inbound, _ := newTestHelper(t)
	idA, idB := uuid.New(), uuid.New()

	type result struct {
		v   string
		err error
	}
	results := make(chan result, 2)
	for _, id := range []uuid.UUID{idA, idB} {
		id := id
		go func() {
			v, err := Receive[string](context.Background(), h, id)
			results <- result{v, err}
		}()
	}
	// Let both receivers park before anything arrives.
	time.Sleep(50 * time.Millisecond)

	// Messages buffered at the moment of closure must still reach their
	// receivers; closing races the drain loop otherwise.
	inject(t, inbound, idA, "first")
	inject(t, inbound, idB, "second")
	h.Close()

	got := make(map[string]bool, 2)
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			require.NoError(t, r.err)
			got[r.v] = true
		case <-time.After(time.Second):
			t.Fatal("receiver never completed")
		}
	}
	assert.True(t, got["first"])
	assert.True(t, got["second"])
}

func TestSendClosedQueue(t *testing.T) {
	h, _, toPeer := newTestHelper(t)
	toPeer.Close()

	err := Send(context.Background(), h, "h2", uuid.New(), "hello")
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestReceiveAfterProducer(t *testing.T) {
	h, inbound, _ := newTestHelper(t)
	id := uuid.New()

	// The message arrives before anyone asks for it.
	inject(t, inbound, id, int32(1234))

	got, err := Receive[int32](context.Background(), h, id)
	require.NoError(t, err)
	assert.Equal(t, int32(1234), got)
}

func TestReceiveBeforeProducer(t *testing.T) {
	h, inbound, _ := newTestHelper(t)
	id := uuid.New()

	type result struct {
		v   string
		err error
	}
	results := make(chan result, 1)
	go func() {
		v, err := Receive[string](context.Background(), h, id)
		results <- result{v, err}
	}()

	time.Sleep(10 * time.Millisecond)
	inject(t, inbound, id, "late arrival")

	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.Equal(t, "late arrival", r.v)
	case <-time.After(time.Second):
		t.Fatal("receive did not complete")
	}
}

func TestReceiveDecodeError(t *testing.T) {
	h, inbound, _ := newTestHelper(t)
	id := uuid.New()

	inject(t, inbound, id, int32(7))

	_, err := Receive[string](context.Background(), h, id)
	var recvErr *ReceiveError
	require.ErrorAs(t, err, &recvErr)
	assert.Equal(t, id.String(), recvErr.ID)
}

func TestReceiveMaxWait(t *testing.T) {
	h, _, _ := newTestHelper(t, WithMaxWait(20*time.Millisecond))

	_, err := Receive[string](context.Background(), h, uuid.New())
	var recvErr *ReceiveError
	require.ErrorAs(t, err, &recvErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExchangeFailsFast(t *testing.T) {
	h, _, toPeer := newTestHelper(t)
	toPeer.Close()

	// The send side fails immediately; the receive side must be abandoned
	// rather than suspending forever.
	done := make(chan error, 1)
	go func() {
		_, err := Exchange[string, string](context.Background(), h, "h2", uuid.New(), uuid.New(), "v")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("exchange did not fail fast")
	}
}

func TestExchangeBothWays(t *testing.T) {
	h, inbound, toPeer := newTestHelper(t)
	sendID, recvID := uuid.New(), uuid.New()

	// Mock peer: answer the outbound message with a tagged reply.
	go func() {
		select {
		case data := <-toPeer.C():
			var env Envelope
			if cbor.Unmarshal(data, &env) != nil {
				return
			}
			inject(t, inbound, recvID, "pong")
		case <-time.After(time.Second):
		}
	}()

	got, err := Exchange[string, string](context.Background(), h, "h2", sendID, recvID, "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
}

func TestHelperShutdownFailsReceivers(t *testing.T) {
	h, _, _ := newTestHelper(t)

	done := make(chan error, 1)
	go func() {
		_, err := Receive[string](context.Background(), h, uuid.New())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	h.Close()

	select {
	case err := <-done:
		var recvErr *ReceiveError
		assert.ErrorAs(t, err, &recvErr)
	case <-time.After(time.Second):
		t.Fatal("receiver not released on close")
	}
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("helper did not shut down")
	}
}

func TestLoopbackRoundTrip(t *testing.T) {
	l := NewLoopback()
	defer l.Close()
	id := uuid.New()

	require.NoError(t, Send(context.Background(), l, "anyone", id, uint64(99)))
	got, err := Receive[uint64](context.Background(), l, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), got)
}
