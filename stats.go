package refdb

import (
	"fmt"
	"io"
	"unsafe"
)

// Stats is a snapshot of a store's usage counters.
type Stats struct {
	Queries     int // number of Query calls
	Capacity    int // record slots
	Records     int // live records
	Names       int // distinct table/element names held by the arena
	DataMemory  int // bytes of string data, shared names counted once
	IndexMemory int // bytes of the record array
}

// TotalMemory is data plus index memory in bytes.
func (st Stats) TotalMemory() int {
	return st.DataMemory + st.IndexMemory
}

// FillRatio is the fraction of slots taken.
func (st Stats) FillRatio() float64 {
	if st.Capacity == 0 {
		return 0
	}
	return float64(st.Records) / float64(st.Capacity)
}

// WriteTo writes the statistics block as it appears at the end of the
// load log. Memory figures are in kilobytes.
func (st Stats) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "Exit: DB Statistics\n"+
		"  Number of Queries  : %d\n"+
		"  Hash Table Size    : %d\n"+
		"  Hash Table Usage   : %d\n"+
		"  Data Memory Usage  : %d KB\n"+
		"  Table Memory Usage : %d KB\n"+
		"  Total Memory Usage : %d KB\n",
		st.Queries, st.Capacity, st.Records,
		st.DataMemory/1024, st.IndexMemory/1024, st.TotalMemory()/1024)
	return int64(n), err
}

// Stats returns the current usage counters.
func (s *Store) Stats() Stats {
	var names int
	if s.arena != nil {
		names = s.arena.len()
	}
	return Stats{
		Queries:     s.queries,
		Capacity:    len(s.records),
		Records:     s.count,
		Names:       names,
		DataMemory:  s.memory,
		IndexMemory: len(s.records) * int(unsafe.Sizeof(record{})),
	}
}
