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

package catalog

import (
	"context"
	"sort"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// pendingAssignment is one queued mutation of the schema's table set.
type pendingAssignment struct {
	name string

	// exactly one of the following describes the assignment
	relation   *ComputedRelation // assign computed rows
	definition *rel.Table        // create an empty table from a definition
	drop       bool              // remove the table
}

// TableCollection is the mutable set of tables in one schema. It tracks a
// backup of the pre-transaction state, the queue of pending assignments, and
// the destructive-isolation flag.
//
// Mutation discipline: a destructive assignment (one that replaces, alters
// or drops an existing table) must be the only pending assignment in its
// collection, and once queued nothing further may be queued until commit or
// abort.
type TableCollection struct {
	schema *Schema

	tables  map[string]*Table
	backup  map[string]*Table
	pending []*pendingAssignment

	destructivePending bool
}

func newTableCollection(schema *Schema) *TableCollection {
	return &TableCollection{
		schema: schema,
		tables: make(map[string]*Table),
	}
}

// install adds a table without transaction bookkeeping, during introspection.
func (tc *TableCollection) install(t *Table) {
	tc.tables[t.name] = t
}

// snapshot records the current table set as the pre-transaction backup.
func (tc *TableCollection) snapshot() {
	tc.backup = make(map[string]*Table, len(tc.tables))
	for name, t := range tc.tables {
		tc.backup[name] = t
	}
}

// reset discards pending assignments and restores the backup table set.
func (tc *TableCollection) reset() {
	tc.tables = make(map[string]*Table, len(tc.backup))
	for name, t := range tc.backup {
		tc.tables[name] = t
	}
	tc.pending = nil
	tc.destructivePending = false
}

// Names returns the table names in sorted order, pending assignments
// included.
func (tc *TableCollection) Names() []string {
	names := make([]string, 0, len(tc.tables))
	for name := range tc.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named table, or nil if absent.
func (tc *TableCollection) Get(name string) *Table {
	return tc.tables[name]
}

// Len returns the number of tables, pending assignments included.
func (tc *TableCollection) Len() int { return len(tc.tables) }

// queue enforces the mutation discipline and appends the assignment,
// opening an implicit single-assignment transaction when none is open.
func (tc *TableCollection) queue(p *pendingAssignment, destructive bool) error {
	catalog := tc.schema.catalog
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if tc.destructivePending {
		return cherrors.Errorf(cherrors.Mutation,
			"a destructive assignment is pending in schema %q; commit or abort first", tc.schema.name)
	}
	if destructive {
		if tc.pendingCountLocked() > 0 {
			return cherrors.Errorf(cherrors.Mutation,
				"cannot queue destructive assignment of %q with other assignments pending", p.name)
		}
		tc.destructivePending = true
	}
	tc.pending = append(tc.pending, p)

	switch {
	case p.drop:
		delete(tc.tables, p.name)
	case p.relation != nil:
		tc.tables[p.name] = &p.relation.Table
	case p.definition != nil:
		tc.tables[p.name] = &Table{
			catalog:    catalog,
			schema:     tc.schema.name,
			name:       p.name,
			desc:       p.definition,
			generation: catalog.generation,
		}
	}

	if catalog.tx == nil {
		// No evolve block is open: commit this assignment immediately. The
		// one-shot transaction is unconditionally permissive, the caller
		// already named the exact mutation.
		tx := newTx(catalog)
		tx.allowAlter = true
		tx.allowDrop = true
		catalog.tx = tx
		catalog.mu.Unlock()
		err := tx.Commit(context.Background())
		catalog.mu.Lock()
		return err
	}
	return nil
}

func (tc *TableCollection) pendingCountLocked() int {
	return len(tc.pending)
}

// Assign queues the computed relation under the given table name. Assigning
// over an existing table is destructive and subject to the transaction's
// allow-alter flag at commit.
func (tc *TableCollection) Assign(name string, relation *ComputedRelation) error {
	if relation == nil {
		return cherrors.New(cherrors.Contract, "cannot assign a nil relation")
	}
	_, exists := tc.tables[name]
	relation.Table.catalog = tc.schema.catalog
	relation.Table.schema = tc.schema.name
	relation.Table.name = name
	return tc.queue(&pendingAssignment{name: name, relation: relation}, exists)
}

// CreateTable queues the creation of an empty table from a definition.
func (tc *TableCollection) CreateTable(definition *rel.Table) error {
	if definition == nil || definition.Name == "" {
		return cherrors.New(cherrors.Contract, "table definition requires a name")
	}
	_, exists := tc.tables[definition.Name]
	return tc.queue(&pendingAssignment{name: definition.Name, definition: definition}, exists)
}

// Drop queues the removal of the named table. Subject to the transaction's
// allow-drop flag at commit.
func (tc *TableCollection) Drop(name string) error {
	if _, exists := tc.tables[name]; !exists {
		return cherrors.Errorf(cherrors.Contract, "schema %q has no table %q", tc.schema.name, name)
	}
	return tc.queue(&pendingAssignment{name: name, drop: true}, true)
}
