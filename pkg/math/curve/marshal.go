package curve

import "github.com/fxamacker/cbor/v2"

// CBOR support delegates to the canonical binary encodings, so scalars and
// points embed naturally in wire payloads.

func (s *Scalar) MarshalCBOR() ([]byte, error) {
	data, err := s.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(data)
}

func (s *Scalar) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.UnmarshalBinary(raw)
}

func (v *Point) MarshalCBOR() ([]byte, error) {
	data, err := v.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(data)
}

func (v *Point) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	return v.UnmarshalBinary(raw)
}
