// Package events defines the synthetic event records consumed as pipeline
// input, in plaintext and secret-shared form, and a seeded generator for
// them. The generator is a collaborator of the core: it feeds the
// secret-sharing layer but takes no part in the computation itself.
package events

import "github.com/attributelabs/private-attribution/pkg/share"

// Event is the common part of source and trigger events: the device
// matchkeys, the epoch the event belongs to, and its timestamp in seconds
// relative to the epoch start.
type Event struct {
	Matchkeys []uint64 `json:"matchkeys"`
	Epoch     uint8    `json:"epoch"`
	Timestamp uint32   `json:"timestamp"`
}

// SourceEvent is an impression attributed by breakdown key.
type SourceEvent struct {
	Event        Event  `json:"event"`
	BreakdownKey string `json:"breakdown_key"`
}

// TriggerEvent is a conversion carrying a value.
type TriggerEvent struct {
	Event Event  `json:"event"`
	Value uint32 `json:"value"`
	ZKP   string `json:"zkp"`
}

// SharedEvent is an Event with matchkeys and timestamp secret shared.
type SharedEvent struct {
	Matchkeys []share.SecretShare `json:"matchkeys"`
	Epoch     uint8               `json:"epoch"`
	Timestamp share.SecretShare   `json:"timestamp"`
}

// SharedSourceEvent is a SourceEvent with its event secret shared.
type SharedSourceEvent struct {
	Event        SharedEvent `json:"event"`
	BreakdownKey string      `json:"breakdown_key"`
}

// SharedTriggerEvent is a TriggerEvent with its event and value secret
// shared.
type SharedTriggerEvent struct {
	Event SharedEvent       `json:"event"`
	Value share.SecretShare `json:"value"`
	ZKP   string            `json:"zkp"`
}

// Record is one generated line: exactly one of its fields is set.
type Record struct {
	Source        *SourceEvent        `json:"s,omitempty"`
	Trigger       *TriggerEvent       `json:"t,omitempty"`
	SharedSource  *SharedSourceEvent  `json:"es,omitempty"`
	SharedTrigger *SharedTriggerEvent `json:"et,omitempty"`
}
