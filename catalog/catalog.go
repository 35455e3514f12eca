// Package catalog lists the tables and elements of a store by prefix.
//
// The store itself only answers point queries; a Catalog is a sorted
// snapshot of its keys, taken once and not updated afterwards.
package catalog

import (
	"sort"

	"github.com/JohannaVonLuck/refdb"
	"github.com/derekparker/trie"
)

// Separator joins table and element in catalog keys.
const Separator = "/"

// Catalog is a prefix-searchable snapshot of a store's keys.
// Each node of the tables trie carries a trie of that table's elements,
// so table names may contain Separator.
type Catalog struct {
	keys   *trie.Trie
	tables *trie.Trie
}

// Build walks store and indexes every (table, element) key.
func Build(store *refdb.Store) *Catalog {
	c := &Catalog{
		keys:   trie.New(),
		tables: trie.New(),
	}
	store.Each(func(table, element, value string) bool {
		c.keys.Add(Key(table, element), value)
		var elements *trie.Trie
		if node, ok := c.tables.Find(table); ok {
			elements = node.Meta().(*trie.Trie)
		} else {
			elements = trie.New()
			c.tables.Add(table, elements)
		}
		elements.Add(element, nil)
		return true
	})
	return c
}

// Key returns the catalog key of a record.
func Key(table, element string) string {
	return table + Separator + element
}

// Tables returns all table names, sorted.
func (c *Catalog) Tables() []string {
	return sorted(c.tables.Keys())
}

// Elements returns the element names of table, sorted.
func (c *Catalog) Elements(table string) []string {
	node, ok := c.tables.Find(table)
	if !ok {
		return nil
	}
	return sorted(node.Meta().(*trie.Trie).Keys())
}

// Search returns all keys starting with prefix, sorted.
func (c *Catalog) Search(prefix string) []string {
	return sorted(c.keys.PrefixSearch(prefix))
}

// Value returns the value recorded for key at the time of Build.
func (c *Catalog) Value(key string) (string, bool) {
	node, ok := c.keys.Find(key)
	if !ok {
		return "", false
	}
	value, ok := node.Meta().(string)
	return value, ok
}

func sorted(s []string) []string {
	sort.Strings(s)
	return s
}
