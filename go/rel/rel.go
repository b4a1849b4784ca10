/*
Copyright 2026 The Chisel Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package rel holds the relation data model shared by the planner, the
// execution engine and the catalog backends: table descriptions (ordered
// columns, keys, foreign keys) and string-keyed rows.
//
// A Table describes a relation, extant or computed. Descriptions are plain
// data; operators copy them on construction and never mutate a child's
// description.
package rel

import (
	"strings"

	"github.com/google/uuid"
)

// Builtin type names used by the file backends and by tests. Backends are
// free to use their own type vocabulary; the engine never interprets types.
const (
	Text    = "text"
	Int     = "int8"
	Float   = "float8"
	Boolean = "boolean"
	JSON    = "json"
)

// ArrayType returns the array form of a type name, used when an attribute is
// nested into a list of values.
func ArrayType(typename string) string {
	return typename + "[]"
}

// Column describes one attribute of a relation.
type Column struct {
	Name    string
	Type    string
	NullOK  bool
	Default any
	Comment string
}

// Key is a uniqueness constraint over a set of columns.
type Key struct {
	UniqueColumns []string
}

// ForeignKey is a referential constraint from this relation's columns to the
// key columns of a referenced relation.
type ForeignKey struct {
	ForeignKeyColumns []string
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns []string
}

// Table describes a relation: its identity, ordered columns and constraints.
type Table struct {
	Schema  string
	Name    string
	Kind    string
	Comment string

	Columns     ColumnSet
	Keys        []Key
	ForeignKeys []ForeignKey
}

// NewTable returns a description with the given name and columns and no
// constraints.
func NewTable(name string, cols ...Column) *Table {
	t := &Table{Name: name}
	for _, col := range cols {
		t.Columns.Append(col)
	}
	return t
}

// Clone returns a deep copy of the description.
func (t *Table) Clone() *Table {
	out := &Table{
		Schema:  t.Schema,
		Name:    t.Name,
		Kind:    t.Kind,
		Comment: t.Comment,
		Columns: t.Columns.Clone(),
	}
	for _, key := range t.Keys {
		out.Keys = append(out.Keys, Key{UniqueColumns: append([]string(nil), key.UniqueColumns...)})
	}
	for _, fkey := range t.ForeignKeys {
		out.ForeignKeys = append(out.ForeignKeys, ForeignKey{
			ForeignKeyColumns: append([]string(nil), fkey.ForeignKeyColumns...),
			ReferencedSchema:  fkey.ReferencedSchema,
			ReferencedTable:   fkey.ReferencedTable,
			ReferencedColumns: append([]string(nil), fkey.ReferencedColumns...),
		})
	}
	return out
}

// MinimalKey returns the key with the fewest columns, or nil if the relation
// has no keys.
func (t *Table) MinimalKey() *Key {
	if len(t.Keys) == 0 {
		return nil
	}
	min := &t.Keys[0]
	for i := range t.Keys[1:] {
		key := &t.Keys[i+1]
		if len(key.UniqueColumns) < len(min.UniqueColumns) {
			min = key
		}
	}
	return min
}

// ColumnSet is an ordered collection of columns indexed by name.
//
// The index must be repaired with Reindex after renaming a column in place;
// insertion order is preserved across renames.
type ColumnSet struct {
	cols  []Column
	index map[string]int
}

// Append adds a column at the end of the set. A duplicate name replaces the
// indexed position but keeps both definitions out of the caller's way: the
// last one wins on lookup.
func (cs *ColumnSet) Append(col Column) {
	if cs.index == nil {
		cs.index = make(map[string]int)
	}
	cs.index[col.Name] = len(cs.cols)
	cs.cols = append(cs.cols, col)
}

// Get returns a pointer to the named column, or nil if absent.
func (cs *ColumnSet) Get(name string) *Column {
	i, ok := cs.index[name]
	if !ok {
		return nil
	}
	return &cs.cols[i]
}

// Has reports whether the named column is present.
func (cs *ColumnSet) Has(name string) bool {
	_, ok := cs.index[name]
	return ok
}

// Drop removes the named column, preserving the order of the rest.
func (cs *ColumnSet) Drop(name string) {
	i, ok := cs.index[name]
	if !ok {
		return
	}
	cs.cols = append(cs.cols[:i], cs.cols[i+1:]...)
	cs.Reindex()
}

// Reindex rebuilds the name index from the current column names. Callers
// that rename a column through the pointer returned by Get must reindex
// before the next lookup.
func (cs *ColumnSet) Reindex() {
	cs.index = make(map[string]int, len(cs.cols))
	for i, col := range cs.cols {
		cs.index[col.Name] = i
	}
}

// Len returns the number of columns.
func (cs *ColumnSet) Len() int {
	return len(cs.cols)
}

// Names returns the column names in insertion order.
func (cs *ColumnSet) Names() []string {
	names := make([]string, len(cs.cols))
	for i, col := range cs.cols {
		names[i] = col.Name
	}
	return names
}

// All returns the columns in insertion order. The returned slice is shared;
// callers must not mutate it.
func (cs *ColumnSet) All() []Column {
	return cs.cols
}

// Clone returns a deep copy of the set.
func (cs *ColumnSet) Clone() ColumnSet {
	out := ColumnSet{cols: append([]Column(nil), cs.cols...)}
	out.Reindex()
	return out
}

// NewComputedName returns a fresh identifier for a computed relation.
func NewComputedName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
