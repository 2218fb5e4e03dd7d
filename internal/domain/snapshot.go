package domain

import (
	"encoding/json"
	"time"
)

// DefaultCacheKey is the storage key the home info snapshot lives under.
const DefaultCacheKey = "homeInfoCache"

// Snapshot is the persisted record for the cached resource.
type Snapshot struct {
	// Data is the cached resource, null when nothing is cached.
	Data Resource `json:"data"`

	// Timestamp is the write time in unix milliseconds.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// record is the shape ParseSnapshot reads. Only data is interpreted, so a
// malformed timestamp or any extra field never invalidates the record.
type record struct {
	Data json.RawMessage `json:"data"`
}

// NewSnapshot wraps r in a Snapshot stamped with at.
func NewSnapshot(r Resource, at time.Time) Snapshot {
	return Snapshot{Data: r, Timestamp: at.UnixMilli()}
}

// Encode serializes the snapshot to its persisted text form.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// WrittenAt returns the snapshot timestamp, or the zero time if unset.
func (s Snapshot) WrittenAt() time.Time {
	if s.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.Timestamp)
}

// ParseSnapshot extracts the valid resource from persisted text.
// Missing text, malformed JSON, a record that is not an object and an
// invalid data field all yield nil.
func ParseSnapshot(raw []byte) Resource {
	if len(raw) == 0 {
		return nil
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return DecodeResource(rec.Data)
}
