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

// Package catalog is the model and transaction layer over a backing catalog
// of tables.
//
// A Catalog introspects its Backend into schema and table model objects.
// Table operations (select, where, join, reify, to_domain style derivations)
// build logical plans without touching the backend; assigning a derived
// relation to a table name queues a pending assignment. Pending assignments
// accumulate inside an evolve transaction and are planned, consolidated and
// materialized together on commit, or discarded on abort. At most one
// transaction is open per catalog at a time.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/log"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Model maps schema name to table name to table description. Backends return
// a fresh Model on every introspection; the catalog owns the copies it keeps.
type Model map[string]map[string]*rel.Table

// Backend is a backing store of table definitions and rows.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Introspect returns the backend's current model.
	Introspect() (Model, error)

	// ExtantPlan returns the logical plan symbol that scans a resident
	// table, e.g. an extant reference or a file scan.
	ExtantPlan(schema, table string) (plan.Node, error)

	// Materialize applies one planned mutation. The operator is one of the
	// engine's mutation markers: Create, Alter, Drop, or a plain Assign
	// replacing a table's rows.
	Materialize(ctx context.Context, op engine.Operator) error
}

// Catalog is a handle on a backing catalog's model.
type Catalog struct {
	backend Backend

	mu         sync.Mutex
	schemas    map[string]*Schema
	generation int
	tx         *Tx
}

// New introspects the backend and returns a catalog over it.
func New(backend Backend) (*Catalog, error) {
	c := &Catalog{backend: backend}
	if err := c.refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// refresh re-introspects the backend and rebuilds the model objects,
// invalidating any outstanding handles from the previous generation.
func (c *Catalog) refresh() error {
	model, err := c.backend.Introspect()
	if err != nil {
		return cherrors.Wrapf(cherrors.Backend, err, "cannot introspect catalog %q", c.backend.Name())
	}
	c.generation++
	c.schemas = make(map[string]*Schema, len(model))
	for sname, tables := range model {
		schema := &Schema{catalog: c, name: sname}
		schema.Tables = newTableCollection(schema)
		for tname, desc := range tables {
			schema.Tables.install(&Table{
				catalog:    c,
				schema:     sname,
				name:       tname,
				desc:       desc,
				generation: c.generation,
			})
		}
		schema.Tables.snapshot()
		c.schemas[sname] = schema
	}
	log.V(1).Infof("introspected catalog %q: %d schemas", c.backend.Name(), len(c.schemas))
	return nil
}

// Schema returns the named schema, or nil if the catalog does not have it.
func (c *Catalog) Schema(name string) *Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schemas[name]
}

// Schemas returns the schema names in sorted order.
func (c *Catalog) Schemas() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema is one namespace of tables within a catalog.
type Schema struct {
	catalog *Catalog
	name    string

	// Tables is the schema's table collection, including pending
	// assignments queued in the open transaction.
	Tables *TableCollection
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }
