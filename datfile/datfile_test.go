package datfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JohannaVonLuck/refdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...refdb.Option) *refdb.Store {
	t.Helper()
	s, err := refdb.NewStore(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want refdb.Directive
	}{
		{line: "# comment", ok: false},
		{line: "   # indented comment", ok: false},
		{line: "", ok: false},
		{line: " \t\r", ok: false},
		{line: "no assignment here", ok: false},
		{line: "TWO WORDS = x", ok: false},
		{line: "EMPTY =", ok: false},
		{line: "= value", ok: false},
		{line: "[]", ok: false},
		{line: "[Weapons]", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Weapons"}},
		{line: "\t[Armor]  ", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Armor"}},
		{line: "[Weapons] # guns", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Weapons"}},
		{line: "[Weapons]junk", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Weapons"}},
		{line: "[ Hull ]", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Hull"}},
		{line: "[Turret", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Turret"}},
		{line: "[ ] x", ok: false},
		{line: "TABLE = Hull", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Hull"}},
		{line: "DAMAGE = 50", ok: true, want: refdb.Directive{Kind: refdb.AssignDirective, Key: "DAMAGE", Value: "50"}},
		{line: "DAMAGE=50", ok: true, want: refdb.Directive{Kind: refdb.AssignDirective, Key: "DAMAGE", Value: "50"}},
		{line: "NAME = Heavy Cannon\r", ok: true, want: refdb.Directive{Kind: refdb.AssignDirective, Key: "NAME", Value: "Heavy Cannon"}},
		{line: "SPEED = 12.5 # km/h", ok: true, want: refdb.Directive{Kind: refdb.AssignDirective, Key: "SPEED", Value: "12.5"}},
		{line: "DAMAGE = 50          # base damage", ok: true, want: refdb.Directive{Kind: refdb.AssignDirective, Key: "DAMAGE", Value: "50"}},
		{line: "FORMULA = a = b", ok: true, want: refdb.Directive{Kind: refdb.AssignDirective, Key: "FORMULA", Value: "a = b"}},
		{line: "TABLE = Armor # plates", ok: true, want: refdb.Directive{Kind: refdb.TableDirective, Value: "Armor"}},
	}
	for _, tt := range tests {
		got, ok := ParseLine(tt.line)
		assert.Equal(t, tt.ok, ok, "line %q", tt.line)
		if tt.ok {
			assert.Equal(t, tt.want, got, "line %q", tt.line)
		}
	}
}

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader("# header\n[Weapons]\n\nDAMAGE = 50\njunk\nTABLE = Armor\n"))
	d, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, refdb.Directive{Kind: refdb.TableDirective, Value: "Weapons", Line: 2}, d)
	d, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, refdb.Directive{Kind: refdb.AssignDirective, Key: "DAMAGE", Value: "50", Line: 4}, d)
	d, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, refdb.Directive{Kind: refdb.TableDirective, Value: "Armor", Line: 6}, d)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderLongLine(t *testing.T) {
	value := strings.Repeat("x", 4000)
	r := NewReader(strings.NewReader("LONG = " + value + "\n"))
	d, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, value, d.Value)
}

func TestReaderSkipsOverlongLine(t *testing.T) {
	src := "A = " + strings.Repeat("x", 70000) + "\nB = 2\nC = 3"
	r := NewReader(strings.NewReader(src))
	d, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, refdb.Directive{Kind: refdb.AssignDirective, Key: "B", Value: "2", Line: 2}, d)
	d, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, refdb.Directive{Kind: refdb.AssignDirective, Key: "C", Value: "3", Line: 3}, d)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)

	s := newStore(t)
	require.NoError(t, Load(s, "y.dat", strings.NewReader(src)))
	_, ok := s.Query("y", "A")
	assert.False(t, ok)
	v, ok := s.Query("y", "B")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestLoadTableHeaderWithTrailingText(t *testing.T) {
	s := newStore(t)
	require.NoError(t, Load(s, "x.dat", strings.NewReader("[Weapons] # guns\nDAMAGE = 50\n")))
	v, ok := s.Query("Weapons", "DAMAGE")
	assert.True(t, ok)
	assert.Equal(t, "50", v)
	assert.Equal(t, 1, s.Len())
}

func TestLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	src := "[Weapons]\nDAMAGE = 50          # base damage\nTABLE = Armor\nTHICKNESS = 30\n"
	require.NoError(t, Load(s, "inline.dat", strings.NewReader(src)))

	v, ok := s.Query("Weapons", "DAMAGE")
	assert.True(t, ok)
	assert.Equal(t, "50", v)
	v, ok = s.Query("Armor", "THICKNESS")
	assert.True(t, ok)
	assert.Equal(t, "30", v)
	_, ok = s.Query("Weapons", "THICKNESS")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, LoadFile(s, filepath.Join("testdata", "weapons.dat")))
	assert.Equal(t, 4, s.Len())

	tests := []struct {
		table, element, want string
	}{
		{"Weapons", "DAMAGE", "50"},
		{"Weapons", "NAME", "Heavy Cannon"},
		{"Armor", "THICKNESS", "30"},
		{"Armor", "SPEED", "12.5"},
	}
	for _, tt := range tests {
		v, ok := s.Query(tt.table, tt.element)
		assert.True(t, ok, "%s/%s", tt.table, tt.element)
		assert.Equal(t, tt.want, v, "%s/%s", tt.table, tt.element)
	}
}

func TestLoadFileInitialTable(t *testing.T) {
	s := newStore(t)
	require.NoError(t, LoadFile(s, filepath.Join("testdata", "tanks.dat")))
	v, _ := s.Query("tanks", "CREW")
	assert.Equal(t, "4", v)
	v, _ = s.Query("tanks", "SPEED")
	assert.Equal(t, "55", v)
	v, _ = s.Query("Hull", "SPEED")
	assert.Equal(t, "40", v)
}

func TestLoadFileTwice(t *testing.T) {
	s := newStore(t)
	path := filepath.Join("testdata", "weapons.dat")
	require.NoError(t, LoadFile(s, path))
	n, mem := s.Len(), s.Stats().DataMemory
	require.NoError(t, LoadFile(s, path))
	assert.Equal(t, n, s.Len())
	assert.Equal(t, mem, s.Stats().DataMemory)
}

func TestLoadFileMissing(t *testing.T) {
	s := newStore(t)
	err := LoadFile(s, filepath.Join("testdata", "missing.dat"))
	var lerr *refdb.LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "open", lerr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, 0, s.Len())
}

func TestLoadFileCapacityExceeded(t *testing.T) {
	s := newStore(t, refdb.WithCapacity(9))
	var b strings.Builder
	for _, e := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K"} {
		b.WriteString(e + " = " + strings.ToLower(e) + "\n")
	}
	err := Load(s, "letters.dat", strings.NewReader(b.String()))
	require.ErrorIs(t, err, refdb.ErrCapacityExceeded)
	var lerr *refdb.LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 10, lerr.Line)
	assert.Equal(t, 9, s.Len())
	v, ok := s.Query("letters", "I")
	assert.True(t, ok)
	assert.Equal(t, "i", v)
	_, ok = s.Query("letters", "J")
	assert.False(t, ok)
}
