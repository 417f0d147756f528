package events

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/attributelabs/private-attribution/internal/randgen"
	"github.com/attributelabs/private-attribution/pkg/share"
)

const daysInEpoch = 7

// GeneratorConfig controls a generation run.
type GeneratorConfig struct {
	// Count is the number of event records to emit.
	Count uint32
	// Epoch is stamped on every event.
	Epoch uint8
	// SecretShare emits secret-shared records instead of plaintext ones.
	SecretShare bool
	// Seed makes the run deterministic. Two runs with the same seed emit
	// the same events, and a secret-shared run emits shares of exactly the
	// events a plaintext run emits.
	Seed *uint64
}

// Totals summarises a generation run.
type Totals struct {
	Impressions uint32
	Conversions uint32
}

// Generate writes cfg.Count JSON-encoded event records to out, one per
// line, and returns the impression and conversion totals.
func Generate(cfg GeneratorConfig, out io.Writer) (Totals, error) {
	var rng, ssRNG io.Reader
	if cfg.Seed != nil {
		rng = randgen.NewSeeded(*cfg.Seed)
		// The share randomness comes from its own stream so that turning
		// secret sharing on does not change which events are generated.
		ssRNG = randgen.NewSeeded(*cfg.Seed)
	} else {
		rng = randgen.New()
		ssRNG = randgen.New()
	}
	g := &generator{
		cfg:   cfg,
		s:     sample{rng: rng},
		ssRNG: ssRNG,
		enc:   json.NewEncoder(out),
	}
	for g.written < cfg.Count {
		if err := g.generateAd(); err != nil {
			return g.totals, err
		}
	}
	return g.totals, nil
}

type generator struct {
	cfg     GeneratorConfig
	s       sample
	ssRNG   io.Reader
	enc     *json.Encoder
	written uint32
	totals  Totals
}

// generateAd simulates one ad: a group of impressions and conversions from
// users selected by a single breakdown key.
func (g *generator) generateAd() error {
	adID, err := g.s.randUint64()
	if err != nil {
		return err
	}
	breakdownKey := strconv.FormatUint(adID&0xffffffff, 10)

	reach, err := g.s.reachPerAd()
	if err != nil {
		return err
	}
	cvr, err := g.s.cvrPerAd()
	if err != nil {
		return err
	}

	for i := uint32(0); i < reach && g.written < g.cfg.Count; i++ {
		devices, err := g.s.devicesPerUser()
		if err != nil {
			return err
		}
		impressions, err := g.s.impressionsPerUser()
		if err != nil {
			return err
		}
		converted, err := g.s.bernoulli(cvr)
		if err != nil {
			return err
		}
		var conversions uint8
		if converted {
			if conversions, err = g.s.conversionsPerUser(); err != nil {
				return err
			}
		}

		records, err := g.userEvents(devices, impressions, conversions, breakdownKey)
		if err != nil {
			return err
		}
		g.totals.Impressions += uint32(impressions)
		g.totals.Conversions += uint32(conversions)
		for i := range records {
			if err := g.enc.Encode(&records[i]); err != nil {
				return fmt.Errorf("events: writing record: %w", err)
			}
			g.written++
			if g.written >= g.cfg.Count {
				break
			}
		}
	}
	return nil
}

// userEvents produces one user's impressions followed by their conversions.
// All of a user's source events carry the same matchkeys, one per device.
func (g *generator) userEvents(devices, impressions, conversions uint8, breakdownKey string) ([]Record, error) {
	matchkeys := make([]uint64, devices)
	for i := range matchkeys {
		mk, err := g.s.randUint64()
		if err != nil {
			return nil, err
		}
		matchkeys[i] = mk
	}

	var ssMks []share.SecretShare
	if g.cfg.SecretShare {
		ssMks = make([]share.SecretShare, devices)
		for i, mk := range matchkeys {
			ss, err := share.Split(mk, g.ssRNG)
			if err != nil {
				return nil, err
			}
			ssMks[i] = ss
		}
	}

	// The first impression lands anywhere within the epoch.
	startSecs, err := g.s.randRange(daysInEpoch * 24 * 60 * 60)
	if err != nil {
		return nil, err
	}
	last := time.Duration(startSecs) * time.Second

	records := make([]Record, 0, int(impressions)+int(conversions))
	for i := uint8(0); i < impressions; i++ {
		diff, err := g.s.impressionsTimeDiff()
		if err != nil {
			return nil, err
		}
		last += diff
		timestamp := uint32(last / time.Second)

		if g.cfg.SecretShare {
			ssTimestamp, err := share.Split(timestamp, g.ssRNG)
			if err != nil {
				return nil, err
			}
			records = append(records, Record{SharedSource: &SharedSourceEvent{
				Event: SharedEvent{
					Matchkeys: ssMks,
					Epoch:     g.cfg.Epoch,
					Timestamp: ssTimestamp,
				},
				BreakdownKey: breakdownKey,
			}})
		} else {
			records = append(records, Record{Source: &SourceEvent{
				Event: Event{
					Matchkeys: matchkeys,
					Epoch:     g.cfg.Epoch,
					Timestamp: timestamp,
				},
				BreakdownKey: breakdownKey,
			}})
		}
	}

	for i := uint8(0); i < conversions; i++ {
		diff, err := g.s.conversionsTimeDiff()
		if err != nil {
			return nil, err
		}
		last += diff
		timestamp := uint32(last / time.Second)

		value, err := g.s.conversionValue()
		if err != nil {
			return nil, err
		}

		if g.cfg.SecretShare {
			ssTimestamp, err := share.Split(timestamp, g.ssRNG)
			if err != nil {
				return nil, err
			}
			ssValue, err := share.Split(value, g.ssRNG)
			if err != nil {
				return nil, err
			}
			records = append(records, Record{SharedTrigger: &SharedTriggerEvent{
				Event: SharedEvent{
					Matchkeys: ssMks,
					Epoch:     g.cfg.Epoch,
					Timestamp: ssTimestamp,
				},
				Value: ssValue,
				ZKP:   "zkp",
			}})
		} else {
			records = append(records, Record{Trigger: &TriggerEvent{
				Event: Event{
					Matchkeys: matchkeys,
					Epoch:     g.cfg.Epoch,
					Timestamp: timestamp,
				},
				Value: value,
				ZKP:   "zkp",
			}})
		}
	}

	return records, nil
}
