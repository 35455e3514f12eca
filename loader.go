package refdb

import (
	"io"
	"strings"
)

// DirectiveKind tells table switches from element assignments.
type DirectiveKind int8

const (
	// TableDirective switches the current table to Value.
	TableDirective DirectiveKind = iota + 1
	// AssignDirective assigns Value to element Key of the current table.
	AssignDirective
)

// Directive is one meaningful line of a data source.
type Directive struct {
	Kind  DirectiveKind
	Key   string // element name, empty for table directives
	Value string // value, or the new table name
	Line  int    // 1-based line number in the source, 0 if unknown
}

// DirectiveReader yields directives one-by-one.
// It should return io.EOF when the stream is exhausted.
type DirectiveReader interface {
	Next() (Directive, error)
}

// BaseTableName returns the table name a source starts out with: the part
// of path after the last '/' or '\', up to the first '.'.
//
//	"dir/weapons.dat" => "weapons"
func BaseTableName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}
	return path
}

// tableTally counts elements per table for the load report.
// Tables without elements are not counted.
type tableTally struct {
	table    string
	tables   int
	elements int
}

func (t *tableTally) switchTo(table string, lf *logFile) {
	if t.elements > 0 {
		lf.printf("  Table Assigned    : \"%s\"\n  Records Processed : %d\n", t.table, t.elements)
		t.tables++
		t.elements = 0
	}
	t.table = table
}

func (t *tableTally) finish(lf *logFile) {
	lf.printf("  Table Assigned    : \"%s\"\n  Unique Attributes : %d\n\n", t.table, t.elements)
	lf.printf("  Total Tables Processed : %d\n\n", t.tables)
}

// Load reads directives from reader and stores every assignment under the
// current table. The initial table is BaseTableName(source).
//
// Assignments to keys already present replace the value. New records share
// table and element names with existing records wherever the same name is
// already stored (see intern). If the store runs full, Load stops and
// returns a *LoadError wrapping ErrCapacityExceeded; records loaded up to
// that point stay in the store.
func (s *Store) Load(source string, reader DirectiveReader) error {
	if s.closed {
		return &LoadError{Op: "load", Source: source, Err: ErrClosed}
	}
	lf := s.log.openReport()
	defer lf.close()
	lf.printf("Opening: \"%s\"\n", source)
	tally := tableTally{table: BaseTableName(source), tables: 1}
	loaded := 0
	for {
		d, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			tracer().Errorf("refdb: failure reading %q: %v", source, err)
			return &LoadError{Op: "read", Source: source, Line: d.Line, Err: err}
		}
		switch d.Kind {
		case TableDirective:
			tally.switchTo(d.Value, lf)
		case AssignDirective:
			if err := s.loadRecord(tally.table, d.Key, d.Value); err != nil {
				tracer().Errorf("refdb: record count limit reached loading %q", source)
				return &LoadError{Op: "insert", Source: source, Line: d.Line, Err: err}
			}
			tally.elements++
			loaded++
		}
	}
	tally.finish(lf)
	tracer().Infof("loaded %d records from %q, store holds %d of %d",
		loaded, source, s.count, len(s.records))
	return nil
}

// loadRecord stores one loaded assignment, interning its names.
func (s *Store) loadRecord(table, element, value string) error {
	pos, found := s.probe(table, element)
	if found {
		s.replaceValue(pos, value)
		return nil
	}
	if s.count >= len(s.records) {
		return ErrCapacityExceeded
	}
	assert(pos >= 0, "probe sequence exhausted below capacity")
	r := &s.records[pos]
	r.table = s.intern(table)
	if r.table == absent {
		r.table = s.arena.add(table)
		s.memory += storedSize(table)
	}
	r.element = s.intern(element)
	if r.element == absent {
		r.element = s.arena.add(element)
		s.memory += storedSize(element)
	}
	r.value = strings.Clone(value)
	s.memory += storedSize(value)
	s.count++
	return nil
}

// intern looks for a record whose table or element name equals name and
// returns that record's handle, or absent.
//
// This scans the whole record array, so loading k records costs
// O(k × capacity) comparisons. That is acceptable for a few thousand
// records and keeps every distinct name stored once.
func (s *Store) intern(name string) handle {
	for i := range s.records {
		r := &s.records[i]
		if r.empty() {
			continue
		}
		if s.arena.get(r.table) == name {
			return r.table
		}
		if r.element != absent && s.arena.get(r.element) == name {
			return r.element
		}
	}
	return absent
}
