// Package dictionary maps human-readable names to the tag/num/tagEnd
// coordinates of evio structures. It takes entries already resolved from
// XML (XML parsing itself is a thin external collaborator, out of scope
// here; see spec.md's Non-goals) and builds the four lookup maps evio's
// original EvioXMLDictionary keeps: an exact tag/num map, a tag-only map,
// a tag-range map, and the name map. See spec.md §4.10.
package dictionary

import (
	"fmt"

	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/internal/dedupe"
	"github.com/jlab-evio/evio/internal/hash"
)

// ParentKey identifies the immediate parent container of a dictionary
// entry, for entries whose tag/num would otherwise collide with an
// identically numbered sibling under a different parent. Grounded on
// EvioDictionaryEntry.h's parentEntry field, which documents limiting
// hierarchy tracking to a single parent level rather than a full stack.
type ParentKey struct {
	Tag      uint16
	Num      uint8
	NumValid bool
}

// Entry is one dictionary entry: a name bound to a tag, an optional num,
// an optional tag range, and an optional parent disambiguator.
type Entry struct {
	Name string

	// Tag is the tag value, or the low end of a tag range when TagEnd != 0.
	Tag uint16
	// TagEnd, if nonzero, is the high end of an inclusive tag range.
	TagEnd uint16
	// Num is the num value; only meaningful when NumValid is true.
	Num      uint8
	NumValid bool

	Type        format.DataType
	Format      string
	Description string

	// Parent, if non-nil, restricts this entry to containers nested
	// directly under the given tag/num.
	Parent *ParentKey
}

// EntryType classifies an entry the way EvioDictionaryEntry's
// EvioDictionaryEntryType does: by which of tag/num/tagEnd it carries.
type EntryType int

const (
	TagNum EntryType = iota
	TagOnly
	TagRange
)

// Type reports which of TagNum, TagOnly, or TagRange this entry is.
func (e Entry) Type() EntryType {
	if e.TagEnd != 0 && e.TagEnd != e.Tag {
		return TagRange
	}
	if e.NumValid {
		return TagNum
	}
	return TagOnly
}

// normalize returns e with Tag/TagEnd ordered so Tag <= TagEnd, matching
// EvioDictionaryEntry's constructor behavior ("if tag > tagEnd, these
// values are switched").
func (e Entry) normalize() Entry {
	if e.TagEnd != 0 && e.TagEnd < e.Tag {
		e.Tag, e.TagEnd = e.TagEnd, e.Tag
	}
	if e.TagEnd == e.Tag {
		e.TagEnd = 0
	}
	return e
}

type tagNumKey struct {
	tag uint16
	num uint8
}

// Dictionary resolves names to entries and entries to names using the
// priority order spec.md §4.10 specifies: exact tag/num, then tag-only,
// then tag-range.
type Dictionary struct {
	nameToEntry map[string]Entry
	tagNum      map[tagNumKey][]Entry
	tagOnly     map[uint16]Entry
	tagRange    []Entry // insertion order; first containing range wins
}

// New builds a Dictionary from a list of entries. Returns
// evioerr.ErrDuplicateEntry if two entries share a name, or if two
// TagNum entries share an identical (tag, num, parent) key.
func New(entries []Entry) (*Dictionary, error) {
	d := &Dictionary{
		nameToEntry: make(map[string]Entry, len(entries)),
		tagNum:      make(map[tagNumKey][]Entry),
		tagOnly:     make(map[uint16]Entry),
	}

	tracker := dedupe.NewTracker()

	for _, raw := range entries {
		e := raw.normalize()
		if e.Name == "" {
			return nil, evioerr.Wrap(evioerr.ErrInvalidStructure, "dictionary entry missing name")
		}

		keyHash := entryHash(e)
		if err := tracker.TrackName(e.Name, keyHash); err != nil {
			return nil, evioerr.WrapCause(evioerr.ErrDuplicateEntry, err, "entry %q", e.Name)
		}

		switch e.Type() {
		case TagNum:
			if err := tracker.TrackKey(keyHash, e.Name); err != nil {
				return nil, evioerr.WrapCause(evioerr.ErrDuplicateEntry, err, "entry %q", e.Name)
			}
			k := tagNumKey{tag: e.Tag, num: e.Num}
			d.tagNum[k] = append(d.tagNum[k], e)
		case TagOnly:
			d.tagOnly[e.Tag] = e
		case TagRange:
			d.tagRange = append(d.tagRange, e)
		}

		d.nameToEntry[e.Name] = e
	}

	return d, nil
}

// entryHash mirrors EvioDictionaryEntry::Hash: tag and tagEnd are always
// included, num only when valid. The parent's tag/num are added when
// Parent is set, so entries that differ only by parent get distinct keys.
func entryHash(e Entry) uint64 {
	key := fmt.Sprintf("%d:%d:-", e.Tag, e.TagEnd)
	if e.NumValid {
		key = fmt.Sprintf("%d:%d:%d", e.Tag, e.TagEnd, e.Num)
	}
	if e.Parent != nil {
		key += fmt.Sprintf("/%d:%d:%t", e.Parent.Tag, e.Parent.Num, e.Parent.NumValid)
	}
	return hash.ID(key)
}

// Entry looks up an entry by its exact name. Name lookup is always
// exact, per spec.md §4.10.
func (d *Dictionary) Entry(name string) (Entry, bool) {
	e, ok := d.nameToEntry[name]
	return e, ok
}

// Query describes a tag/num/parent coordinate to resolve to a name.
type Query struct {
	Tag      uint16
	Num      uint8
	NumValid bool
	Parent   *ParentKey
}

// Name resolves q to a dictionary entry's name, trying an exact tag/num
// match first, then a tag-only match, then a tag-range match — in that
// priority order, per spec.md §4.10.
func (d *Dictionary) Name(q Query) (string, bool) {
	if q.NumValid {
		if candidates := d.tagNum[tagNumKey{tag: q.Tag, num: q.Num}]; len(candidates) > 0 {
			if e, ok := selectByParent(candidates, q.Parent); ok {
				return e.Name, true
			}
		}
	}

	if e, ok := d.tagOnly[q.Tag]; ok {
		return e.Name, true
	}

	for _, e := range d.tagRange {
		if e.TagEnd != 0 && q.Tag >= e.Tag && q.Tag <= e.TagEnd {
			return e.Name, true
		}
	}

	return "", false
}

// selectByParent picks the candidate whose Parent matches want, falling
// back to a parent-less candidate if no exact parent match exists.
func selectByParent(candidates []Entry, want *ParentKey) (Entry, bool) {
	var fallback *Entry

	for i := range candidates {
		c := &candidates[i]
		switch {
		case c.Parent == nil:
			if fallback == nil {
				fallback = c
			}
		case want != nil && *c.Parent == *want:
			return *c, true
		}
	}

	if fallback != nil {
		return *fallback, true
	}

	return Entry{}, false
}

// Count returns the number of distinct names in the dictionary.
func (d *Dictionary) Count() int {
	return len(d.nameToEntry)
}
