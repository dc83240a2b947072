// Package symbol implements the process-wide bidirectional mapping between
// string tokens and integer word ids that every other package in
// travatar-go builds on.
package symbol

import (
	"fmt"
	"sync"
)

// WordId identifies a word or non-terminal slot. Non-negative ids are
// terminals assigned by a Dictionary; negative ids are non-terminal slot
// markers, recovered with SlotIndex.
type WordId int32

// IsNonTerminal reports whether id is a non-terminal slot marker.
func IsNonTerminal(id WordId) bool {
	return id < 0
}

// SlotIndex recovers the zero-based slot index encoded by a non-terminal
// WordId, i.e. the inverse of NonTerminal.
func SlotIndex(id WordId) int {
	return int(-1 - id)
}

// NonTerminal encodes a zero-based slot index as a non-terminal WordId.
func NonTerminal(slot int) WordId {
	return WordId(-1 - slot)
}

// Sentence is an ordered sequence of WordIds. It may contain non-terminal
// slot markers when it represents a rule template rather than surface text.
type Sentence []WordId

// Dictionary is a bidirectional string<->WordId table with an explicit
// freeze lifecycle: once frozen, WID never allocates a new id, so that
// sentences may be decoded concurrently as long as they only read the
// dictionary (see travatar-go/chart and travatar-go/compose).
//
// A Dictionary is safe for concurrent readers once frozen. Before
// freezing, callers must serialize inserts themselves (single-writer).
type Dictionary struct {
	mu     sync.RWMutex
	toID   map[string]WordId
	toWord []string
	frozen bool
}

// New creates an empty, writable Dictionary.
func New() *Dictionary {
	return &Dictionary{toID: make(map[string]WordId)}
}

// Freeze forbids any further insertions. Subsequent calls to WID for an
// unseen string return ErrFrozen instead of allocating a new id.
func (d *Dictionary) Freeze() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frozen = true
}

// Frozen reports whether Freeze has been called.
func (d *Dictionary) Frozen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frozen
}

// ErrFrozen is returned by WID when an unseen string is looked up after
// the dictionary has been frozen.
var ErrFrozen = fmt.Errorf("symbol: dictionary is frozen")

// WID returns the WordId for str, allocating a new one if str has not been
// seen before and the dictionary is not yet frozen.
func (d *Dictionary) WID(str string) (WordId, error) {
	d.mu.RLock()
	if id, ok := d.toID[str]; ok {
		d.mu.RUnlock()
		return id, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.toID[str]; ok {
		return id, nil
	}
	if d.frozen {
		return 0, ErrFrozen
	}
	id := WordId(len(d.toWord))
	d.toWord = append(d.toWord, str)
	d.toID[str] = id
	return id, nil
}

// MustWID is WID for callers that already know the dictionary will not
// reject the insertion (e.g. grammar/LM loading before Freeze).
func (d *Dictionary) MustWID(str string) WordId {
	id, err := d.WID(str)
	if err != nil {
		panic(err)
	}
	return id
}

// WSym returns the string for a terminal WordId. Calling WSym with a
// non-terminal id or an id this dictionary never allocated is a usage
// error and panics, mirroring the original's array-bounds contract.
func (d *Dictionary) WSym(id WordId) string {
	if IsNonTerminal(id) {
		panic(fmt.Sprintf("symbol: WSym called with non-terminal id %d", id))
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(d.toWord) {
		panic(fmt.Sprintf("symbol: unknown word id %d", id))
	}
	return d.toWord[id]
}

// Len returns the number of terminal ids allocated so far.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.toWord)
}

// PrintWords renders a Sentence of terminal ids as a space-separated
// string, for debugging and for n-best / oracle output.
func (d *Dictionary) PrintWords(sent Sentence) string {
	out := make([]byte, 0, len(sent)*4)
	for i, wid := range sent {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, d.WSym(wid)...)
	}
	return string(out)
}

// ParseWords splits a whitespace-separated string into WordIds, allocating
// new ids as needed (subject to Freeze).
func (d *Dictionary) ParseWords(str string) ([]WordId, error) {
	var ret []WordId
	start := -1
	flush := func(end int) error {
		if start < 0 {
			return nil
		}
		id, err := d.WID(str[start:end])
		if err != nil {
			return err
		}
		ret = append(ret, id)
		start = -1
		return nil
	}
	for i, r := range str {
		if r == ' ' || r == '\t' {
			if err := flush(i); err != nil {
				return nil, err
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if err := flush(len(str)); err != nil {
		return nil, err
	}
	return ret, nil
}
