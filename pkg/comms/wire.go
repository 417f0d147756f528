package comms

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Envelope is the helper-to-helper wire message. ID is the originating
// step's correlation identifier in string form; Payload is an opaque
// encoded value meaningful only to the sender and receiver, who agree on
// its type by pipeline construction.
type Envelope struct {
	ID      string `cbor:"id"`
	Payload []byte `cbor:"payload"`
}

func (e *Envelope) encode() ([]byte, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("comms: encoding envelope: %w", err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("comms: decoding envelope: %w", err)
	}
	return &e, nil
}
