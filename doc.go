/*
Package refdb is a small reference library: a fixed-capacity, in-memory
associative store mapping (table, element) pairs to string values.

The store is an open-addressing hash table over a flat array of records.
Slots are located with a djb2 hash of the table name followed by the element
name, and collisions are resolved by stepping a fixed stride through the
array with wrap-around. The capacity is fixed for the lifetime of a store;
there is no deletion and no resizing.

Bulk data is loaded from line-oriented .dat files (see package datfile):

	# full-line comment
	[Weapons]
	DAMAGE = 50          # base damage
	TABLE = Armor
	THICKNESS = 30

While loading, table and element names are interned: a name that is already
stored by any record is shared instead of being copied again. Values are
never shared.

A Store is not safe for concurrent use. Callers serialize access.

----------------------------------------------------------------------

# BSD License

Copyright (c) The refdb Authors

All rights reserved.

License information is available in the LICENSE file.
*/
package refdb

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'refdb'
func tracer() tracing.Trace {
	return tracing.Select("refdb")
}

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
