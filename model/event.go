// Package model defines the canonical in-process representation of a
// disruption/construction/notice message, shared by every provider adapter,
// the aggregation pipeline and the RSS emitter.
package model

import "time"

// Event is the normalised record produced by a provider adapter and
// consumed by the aggregation pipeline. Every field matches the JSON
// contract of a provider cache snapshot (see cache.Store); instants are
// always UTC.
type Event struct {
	Source      string     `json:"source"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link,omitempty"`
	GUID        string     `json:"guid"`
	PubDate     time.Time  `json:"pub_date"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`

	// Identity is an opaque, provider-supplied dedup key. Empty when the
	// upstream does not offer one; the pipeline then falls back to GUID
	// or a content hash (see pipeline.dedupeKey).
	Identity string `json:"_identity,omitempty"`

	// FirstSeen is populated by the pipeline from the first-seen state
	// store immediately before emission. It is never read from or written
	// to a provider cache file.
	FirstSeen time.Time `json:"-"`

	// ProviderLatency is an optional, non-persisted annotation used only
	// by the metrics push; it never round-trips through a cache file.
	ProviderLatency time.Duration `json:"-"`
}

// Key returns the first non-empty of Identity, GUID; callers needing the
// full three-way fallback (content hash included) use pipeline.dedupeKey,
// which needs access to the hash function and is kept out of this package
// to avoid a cyclic or premature dependency on a specific hash algorithm.
func (e *Event) Key() string {
	if e.Identity != "" {
		return e.Identity
	}
	return e.GUID
}

// Valid reports whether e satisfies the invariants of §3: PubDate is
// present, and EndsAt (if set) is not before StartsAt (if also set).
func (e *Event) Valid() bool {
	if e.PubDate.IsZero() {
		return false
	}
	if e.StartsAt != nil && e.EndsAt != nil && e.EndsAt.Before(*e.StartsAt) {
		return false
	}
	return true
}
