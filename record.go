package refdb

import "strings"

// handle references a string in the store's string arena.
// Handle 0 is reserved and marks an empty record slot.
type handle uint32

const absent handle = 0

// record is one slot of the store's backing array.
//
// table and element may be shared with other records (see stringArena);
// value always belongs to this record alone.
type record struct {
	table   handle
	element handle
	value   string
}

func (r *record) empty() bool {
	return r.table == absent
}

// stringArena owns every table and element name of a store exactly once.
// Records refer to names by handle, and any number of records may hold the
// same handle. Strings are never freed individually; the arena is dropped
// as a whole when the store is closed.
type stringArena struct {
	names []string // names[0] is the unused absent slot
}

func newStringArena(capacity int) *stringArena {
	a := &stringArena{
		names: make([]string, 1, 2*capacity+1),
	}
	return a
}

// add takes ownership of a fresh copy of s and returns its handle.
func (a *stringArena) add(s string) handle {
	h := handle(len(a.names))
	a.names = append(a.names, strings.Clone(s))
	return h
}

func (a *stringArena) get(h handle) string {
	return a.names[h]
}

func (a *stringArena) len() int {
	return len(a.names) - 1
}

// storedSize is the number of bytes accounted for a stored string,
// including one byte of terminator overhead.
func storedSize(s string) int {
	return len(s) + 1
}
