// Package dedupe tracks name and key collisions while a dictionary is
// being built. Adapted from the teacher's internal/collision package,
// which tracks metric-name hash collisions during blob encoding; here
// the same hash-to-owner map shape tracks dictionary entry names and
// tag/num/tagEnd keys instead.
package dedupe

import "fmt"

// Tracker detects duplicate dictionary entry names and duplicate
// tag/num/tagEnd keys while a dictionary is constructed.
type Tracker struct {
	names map[string]uint64 // name -> key hash, for duplicate-name detection
	keys  map[uint64]string // key hash -> name, for duplicate-key detection
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names: make(map[string]uint64),
		keys:  make(map[uint64]string),
	}
}

// TrackName records name as belonging to the entry hashed to keyHash.
// Returns an error if name was already registered.
func (t *Tracker) TrackName(name string, keyHash uint64) error {
	if _, exists := t.names[name]; exists {
		return fmt.Errorf("dictionary: duplicate entry name %q", name)
	}
	t.names[name] = keyHash

	return nil
}

// TrackKey records that keyHash is claimed by name. Returns an error if
// the same key was already claimed by a different name.
func (t *Tracker) TrackKey(keyHash uint64, name string) error {
	if existing, exists := t.keys[keyHash]; exists && existing != name {
		return fmt.Errorf("dictionary: tag/num/tagEnd key already registered as %q (got %q)", existing, name)
	}
	t.keys[keyHash] = name

	return nil
}

// Count returns the number of distinct names tracked.
func (t *Tracker) Count() int {
	return len(t.names)
}
