package events

import (
	"fmt"
	"io"
	"time"

	"github.com/attributelabs/private-attribution/internal/randgen"
)

// sample draws the per-ad and per-user quantities the generator needs.
// The ranges are rough stand-ins for measured ad-delivery distributions.
type sample struct {
	rng io.Reader
}

func (s sample) reachPerAd() (uint32, error) {
	n, err := s.randRange(450)
	return 50 + uint32(n), err
}

// cvrPerAd returns a conversion rate in [0.01, 0.06).
func (s sample) cvrPerAd() (float64, error) {
	n, err := s.randRange(1 << 20)
	return 0.01 + 0.05*float64(n)/float64(1<<20), err
}

func (s sample) devicesPerUser() (uint8, error) {
	n, err := s.randRange(3)
	return 1 + uint8(n), err
}

func (s sample) impressionsPerUser() (uint8, error) {
	n, err := s.randRange(4)
	return 1 + uint8(n), err
}

func (s sample) conversionsPerUser() (uint8, error) {
	n, err := s.randRange(2)
	return 1 + uint8(n), err
}

func (s sample) conversionValue() (uint32, error) {
	n, err := s.randRange(450)
	return 50 + uint32(n), err
}

func (s sample) impressionsTimeDiff() (time.Duration, error) {
	n, err := s.randRange(uint64(12 * time.Hour / time.Second))
	return time.Duration(60+n) * time.Second, err
}

func (s sample) conversionsTimeDiff() (time.Duration, error) {
	n, err := s.randRange(uint64(24 * time.Hour / time.Second))
	return time.Duration(60+n) * time.Second, err
}

func (s sample) bernoulli(p float64) (bool, error) {
	const resolution = 1 << 53
	n, err := s.randRange(resolution)
	if err != nil {
		return false, err
	}
	return float64(n) < p*resolution, nil
}

func (s sample) randUint64() (uint64, error) {
	n, err := randgen.Uint64(s.rng)
	if err != nil {
		return 0, fmt.Errorf("events: sampling: %w", err)
	}
	return n, nil
}

func (s sample) randRange(n uint64) (uint64, error) {
	v, err := s.randUint64()
	if err != nil {
		return 0, err
	}
	return v % n, nil
}
