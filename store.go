package refdb

import (
	"errors"
	"fmt"
	"strings"
)

// Capacity is the default number of record slots of a store.
// It must not be a multiple of ProbeStride, otherwise the probe sequence
// would cycle before visiting every slot.
const Capacity = 8087

// ProbeStride is the step width of the collision probe sequence.
const ProbeStride = 7

const hashSeed = 5381

// ErrClosed is returned for operations on a store after Close.
var ErrClosed = errors.New("store is closed")

// Store is a fixed-capacity hash table of (table, element) → value records.
//
// Records live in a flat array of Cap() slots. A slot is found by hashing
// table and element (djb2) and stepping ProbeStride slots, with wrap-around,
// until either the key or an empty slot turns up. Records are never removed.
type Store struct {
	records []record
	arena   *stringArena
	count   int // live records
	memory  int // bytes of string data allocated
	queries int
	log     loadLog
	closed  bool
}

// Option configures a Store at construction time.
type Option func(*Store) error

// WithCapacity sets the number of record slots. n has to be larger than
// ProbeStride and must not be a multiple of it.
func WithCapacity(n int) Option {
	return func(s *Store) error {
		if n <= ProbeStride || n%ProbeStride == 0 {
			return fmt.Errorf("%w: %d (stride %d)", ErrInvalidCapacity, n, ProbeStride)
		}
		s.records = make([]record, n)
		return nil
	}
}

// WithLoadLog sets the path of the human-readable load log file.
// Without it, no log file is written.
func WithLoadLog(path string) Option {
	return func(s *Store) error {
		s.log.path = path
		return nil
	}
}

// WithLoadLogging switches per-file load logging on or off (default on).
func WithLoadLogging(enable bool) Option {
	return func(s *Store) error {
		s.log.enabled = enable
		return nil
	}
}

// NewStore creates an empty store. If a load log is configured, its header
// is written, truncating any previous log.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		log: loadLog{enabled: true},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.records == nil {
		s.records = make([]record, Capacity)
	}
	s.arena = newStringArena(len(s.records))
	s.log.writeHeader()
	tracer().Debugf("reference store created with %d slots", len(s.records))
	return s, nil
}

// hashKey computes the starting slot for a key: djb2 over the bytes of
// table, continued over the bytes of element, reduced modulo n.
func hashKey(table, element string, n int) int {
	h := uint32(hashSeed)
	for i := 0; i < len(table); i++ {
		h = h*33 + uint32(table[i])
	}
	for i := 0; i < len(element); i++ {
		h = h*33 + uint32(element[i])
	}
	return int(h % uint32(n))
}

// nextSlot advances pos by one probe step in a table of n slots.
func nextSlot(pos, n int) int {
	pos += ProbeStride
	if pos >= n {
		pos -= n
	}
	return pos
}

// probe walks the probe sequence for a key. It returns the slot holding the
// key (found == true) or the first empty slot on the way. pos is -1 if every
// slot has been visited without finding either.
func (s *Store) probe(table, element string) (pos int, found bool) {
	n := len(s.records)
	if n == 0 {
		return -1, false
	}
	pos = hashKey(table, element, n)
	for i := 0; i < n; i++ {
		r := &s.records[pos]
		if r.empty() {
			return pos, false
		}
		if s.arena.get(r.table) == table && s.arena.get(r.element) == element {
			return pos, true
		}
		pos = nextSlot(pos, n)
	}
	return -1, false
}

// Query returns the value stored for (table, element). Every call counts
// as a query, whether or not the key is present.
func (s *Store) Query(table, element string) (string, bool) {
	s.queries++
	pos, found := s.probe(table, element)
	if !found {
		return "", false
	}
	return s.records[pos].value, true
}

// Insert stores value under (table, element), replacing the value of an
// existing record. A new record owns fresh copies of all three strings.
// If the key is absent and every slot is taken, ErrCapacityExceeded is
// returned and the store is unchanged.
func (s *Store) Insert(table, element, value string) error {
	if s.closed {
		return ErrClosed
	}
	pos, found := s.probe(table, element)
	if found {
		s.replaceValue(pos, value)
		return nil
	}
	if s.count >= len(s.records) {
		tracer().Errorf("refdb: cannot insert %s/%s, record count limit %d reached",
			table, element, len(s.records))
		return ErrCapacityExceeded
	}
	assert(pos >= 0, "probe sequence exhausted below capacity")
	s.records[pos] = record{
		table:   s.arena.add(table),
		element: s.arena.add(element),
		value:   strings.Clone(value),
	}
	s.memory += storedSize(table) + storedSize(element) + storedSize(value)
	s.count++
	return nil
}

// Update replaces the value stored under (table, element). If the key is
// not present, Update does nothing; it never creates a record.
func (s *Store) Update(table, element, value string) {
	if s.closed {
		return
	}
	if pos, found := s.probe(table, element); found {
		s.replaceValue(pos, value)
	}
}

func (s *Store) replaceValue(pos int, value string) {
	r := &s.records[pos]
	s.memory -= storedSize(r.value)
	r.value = strings.Clone(value)
	s.memory += storedSize(value)
}

// Each calls fn for every record in slot order until fn returns false.
// Each does not count as a query.
func (s *Store) Each(fn func(table, element, value string) bool) {
	for i := range s.records {
		r := &s.records[i]
		if r.empty() {
			continue
		}
		if !fn(s.arena.get(r.table), s.arena.get(r.element), r.value) {
			return
		}
	}
}

// Len returns the number of live records.
func (s *Store) Len() int { return s.count }

// Cap returns the fixed number of record slots.
func (s *Store) Cap() int { return len(s.records) }

// Queries returns the number of Query calls so far.
func (s *Store) Queries() int { return s.queries }

// MemoryUsage returns string data plus record array memory in bytes.
func (s *Store) MemoryUsage() int {
	return s.Stats().TotalMemory()
}

// SetLoadLogging switches per-file load logging on or off.
func (s *Store) SetLoadLogging(enable bool) {
	s.log.enabled = enable
}

// Close writes the exit statistics to the load log and releases all
// records and names. Names shared between records are owned by the arena
// and go away with it, once. Calling Close again has no effect.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	stats := s.Stats()
	tracer().Infof("refdb exit: queries=%d slots=%d records=%d data=%dKB index=%dKB",
		stats.Queries, stats.Capacity, stats.Records, stats.DataMemory/1024, stats.IndexMemory/1024)
	err := s.log.writeStats(stats)
	s.closed = true
	s.records = nil
	s.arena = nil
	return err
}
