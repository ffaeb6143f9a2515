// Package events defines the payloads published on the event bus around a
// normalizing write.
package events

import "time"

// WriteStart is emitted before a result tree is written to the store.
type WriteStart struct {
	Operation string
	RootKey   string
}

// WriteFinish is emitted after a write returns.
type WriteFinish struct {
	Operation   string
	RootKey     string
	Entities    int
	Diagnostics int
	Duration    time.Duration
	Err         error
}

// FieldSkipped is emitted when a queried field is absent from a result
// object and strict possible-types checking is enabled.
type FieldSkipped struct {
	TypeName string
	Field    string
	Reason   string
}
