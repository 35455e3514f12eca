/*
Package datfile reads reference data in .dat format.

A .dat file is line oriented:

	# full-line comment
	[TableName]
	KEY = value text possibly with spaces   # optional trailing comment
	TABLE = AnotherTableName
	KEY2 = value2

"[X]" and "TABLE = X" both switch the current table. Every other
"KEY = VALUE" line assigns VALUE to element KEY of the current table.
Lines of any other shape are skipped silently. Before the first table
switch, the current table is the base name of the file.
*/
package datfile

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/JohannaVonLuck/refdb"
	"github.com/npillmayer/schuko/tracing"
)

// tableKeyword is the element name that switches tables.
const tableKeyword = "TABLE"

const maxLineLength = 64 * 1024

// tracer writes to trace with key 'refdb.datfile'
func tracer() tracing.Trace {
	return tracing.Select("refdb.datfile")
}

// Reader streams directives from .dat formatted input.
type Reader struct {
	reader *bufio.Reader
	line   int
}

// NewReader creates a Reader for .dat input.
func NewReader(reader io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(reader)}
}

// Next returns the next table switch or assignment.
// It returns io.EOF when exhausted. Lines longer than 64 KiB are skipped
// like any other malformed line.
func (r *Reader) Next() (refdb.Directive, error) {
	for {
		raw, overlong, err := r.readLine()
		if err == io.EOF {
			return refdb.Directive{}, io.EOF
		} else if err != nil {
			return refdb.Directive{Line: r.line + 1}, err
		}
		r.line++
		if overlong {
			tracer().Infof("line %d longer than %d bytes, skipped", r.line, maxLineLength)
			continue
		}
		d, ok := ParseLine(strings.TrimRight(string(raw), "\r\n"))
		if !ok {
			continue
		}
		d.Line = r.line
		return d, nil
	}
}

// readLine reads up to and including the next newline. The text of an
// overlong line is dropped, but the line is consumed.
func (r *Reader) readLine() (line []byte, overlong bool, err error) {
	n := 0
	for {
		chunk, err := r.reader.ReadSlice('\n')
		n += len(chunk)
		if n > maxLineLength {
			overlong, line = true, nil
		} else {
			line = append(line, chunk...)
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && n > 0:
			return line, overlong, nil
		default:
			return line, overlong, err
		}
	}
}

// ParseLine decodes a single line. ok is false for comments, blank lines
// and lines matching no directive.
//
// Examples:
//
//	"[Weapons]"                => table "Weapons"
//	"[Weapons] # guns"         => table "Weapons"
//	"TABLE = Armor"            => table "Armor"
//	"SPEED = 12.5 # km/h"      => SPEED := "12.5"
func ParseLine(line string) (d refdb.Directive, ok bool) {
	line = strings.TrimLeftFunc(line, isJunk)
	if line == "" || line[0] == '#' {
		return d, false
	}
	if eq := strings.IndexByte(line, '='); eq >= 0 {
		key := strings.TrimRightFunc(line[:eq], isJunk)
		value := strings.TrimFunc(line[eq+1:], isJunk)
		if key == "" || value == "" || strings.IndexFunc(key, isJunk) >= 0 {
			return d, false
		}
		value = stripComment(value)
		if key == tableKeyword {
			return refdb.Directive{Kind: refdb.TableDirective, Value: value}, true
		}
		return refdb.Directive{Kind: refdb.AssignDirective, Key: key, Value: value}, true
	}
	if line[0] == '[' {
		name := line[1:]
		if end := strings.IndexByte(name, ']'); end >= 0 {
			name = name[:end]
		}
		name = strings.TrimFunc(name, isJunk)
		if name == "" {
			return d, false
		}
		return refdb.Directive{Kind: refdb.TableDirective, Value: name}, true
	}
	return d, false
}

// stripComment cuts value at its last '#' and drops the whitespace in
// front of it.
func stripComment(value string) string {
	if i := strings.LastIndexByte(value, '#'); i >= 0 {
		return strings.TrimRightFunc(value[:i], isJunk)
	}
	return value
}

// isJunk reports blanks and control characters.
func isJunk(r rune) bool {
	return r <= ' '
}

// Load parses .dat data from reader into store. name identifies the
// source and provides the initial table name.
func Load(store *refdb.Store, name string, reader io.Reader) error {
	return store.Load(name, NewReader(reader))
}

// LoadFile loads a .dat file into store. If the file cannot be opened, the
// failure is logged and returned as a *refdb.LoadError; nothing is loaded.
func LoadFile(store *refdb.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		tracer().Errorf("DB: failure loading %q for read: %v", path, err)
		return &refdb.LoadError{Op: "open", Source: path, Err: err}
	}
	defer f.Close()
	tracer().Debugf("loading %s", path)
	return Load(store, path, f)
}
