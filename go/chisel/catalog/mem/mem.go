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

// Package mem is an in-memory catalog backend. It keeps table definitions
// and rows in maps, and its scan handles push equality filters and
// projections into the scan, so it exercises the planner's fused lowering
// paths. It is the reference backend for tests and examples.
package mem

import (
	"context"
	"io"
	"sync"

	"github.com/informatics-isi-edu/chisel/go/chisel/catalog"
	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

type tableData struct {
	desc *rel.Table
	rows []rel.Row
}

// Backend is an in-memory catalog backend.
type Backend struct {
	name string

	mu      sync.Mutex
	schemas map[string]map[string]*tableData
	handles map[string]*handle
}

// New returns an empty backend with one schema of the given name.
func New(name string, schemas ...string) *Backend {
	b := &Backend{
		name:    name,
		schemas: make(map[string]map[string]*tableData),
		handles: make(map[string]*handle),
	}
	if len(schemas) == 0 {
		schemas = []string{"public"}
	}
	for _, s := range schemas {
		b.schemas[s] = make(map[string]*tableData)
	}
	return b
}

// Load seeds a table directly, outside any transaction. The description is
// cloned; the rows are referenced as given.
func (b *Backend) Load(schema string, desc *rel.Table, rows []rel.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tables, ok := b.schemas[schema]
	if !ok {
		tables = make(map[string]*tableData)
		b.schemas[schema] = tables
	}
	d := desc.Clone()
	d.Schema = schema
	tables[d.Name] = &tableData{desc: d, rows: rows}
}

// Name implements catalog.Backend.
func (b *Backend) Name() string { return b.name }

// Introspect implements catalog.Backend.
func (b *Backend) Introspect() (catalog.Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	model := make(catalog.Model, len(b.schemas))
	for sname, tables := range b.schemas {
		model[sname] = make(map[string]*rel.Table, len(tables))
		for tname, data := range tables {
			model[sname][tname] = data.desc.Clone()
		}
	}
	return model, nil
}

// ExtantPlan implements catalog.Backend. The returned extant's source handle
// is stable across calls so that structurally equal plans stay equal.
func (b *Backend) ExtantPlan(schema, table string) (plan.Node, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.lookupLocked(schema, table); err != nil {
		return nil, err
	}
	key := schema + "." + table
	h, ok := b.handles[key]
	if !ok {
		h = &handle{backend: b, schema: schema, table: table}
		b.handles[key] = h
	}
	return &plan.Extant{Source: h, Schema: schema, Table: table}, nil
}

func (b *Backend) lookupLocked(schema, table string) (*tableData, error) {
	tables, ok := b.schemas[schema]
	if !ok {
		return nil, cherrors.Errorf(cherrors.Backend, "backend %q has no schema %q", b.name, schema)
	}
	data, ok := tables[table]
	if !ok {
		return nil, cherrors.Errorf(cherrors.Backend, "backend %q has no table %q.%q", b.name, schema, table)
	}
	return data, nil
}

// Materialize implements catalog.Backend.
func (b *Backend) Materialize(ctx context.Context, op engine.Operator) error {
	desc := op.Description()
	schema, table := desc.Schema, desc.Name

	switch marker := op.(type) {
	case *engine.Drop:
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, err := b.lookupLocked(schema, table); err != nil {
			return err
		}
		delete(b.schemas[schema], table)
		return nil

	case *engine.Create:
		b.mu.Lock()
		exists := false
		if tables, ok := b.schemas[schema]; ok {
			_, exists = tables[table]
		}
		b.mu.Unlock()
		if exists {
			return cherrors.Errorf(cherrors.Backend,
				"table %q.%q already exists in backend %q", schema, table, b.name)
		}
		return b.write(ctx, marker, desc)

	case *engine.Alter, *engine.Assign:
		// An in-memory rewrite is as cheap as applying the column delta.
		return b.write(ctx, op, desc)

	default:
		return cherrors.Errorf(cherrors.Unsupported, "backend %q cannot materialize %T", b.name, op)
	}
}

// write evaluates the operator and installs the result, replacing any
// previous table of the same name.
func (b *Backend) write(ctx context.Context, op engine.Operator, desc *rel.Table) error {
	rows, err := engine.Drain(ctx, op)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	tables, ok := b.schemas[desc.Schema]
	if !ok {
		return cherrors.Errorf(cherrors.Backend, "backend %q has no schema %q", b.name, desc.Schema)
	}
	tables[desc.Name] = &tableData{desc: desc.Clone(), rows: rows}
	return nil
}

// handle is the extant source for one table. It snapshots the table's rows
// at operator construction and implements the fused scan capabilities.
type handle struct {
	backend       *Backend
	schema, table string
}

func (h *handle) Description() *rel.Table {
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	data, err := h.backend.lookupLocked(h.schema, h.table)
	if err != nil {
		return rel.NewTable(h.table)
	}
	return data.desc
}

// Scan implements engine.Scanner.
func (h *handle) Scan() engine.Operator {
	return &scanOp{handle: h}
}

// ScanSelect implements engine.SelectScanner by filtering during the scan.
func (h *handle) ScanSelect(formula plan.Formula) (engine.Operator, bool) {
	op, err := engine.NewSelect(h.Scan(), formula)
	if err != nil {
		return nil, false
	}
	return op, true
}

// ScanProjectSelect implements engine.ProjectSelectScanner.
func (h *handle) ScanProjectSelect(projection []plan.ProjectionItem, formula plan.Formula) (engine.Operator, bool) {
	var op engine.Operator = h.Scan()
	if formula != nil {
		selected, err := engine.NewSelect(op, formula)
		if err != nil {
			return nil, false
		}
		op = selected
	}
	projected, err := engine.NewProject(op, projection)
	if err != nil {
		return nil, false
	}
	return projected, true
}

// scanOp produces the table's rows. It reads the backend at each pass, so a
// scan constructed before a commit sees rows written by it.
type scanOp struct {
	handle *handle
}

func (s *scanOp) Description() *rel.Table { return s.handle.Description() }

func (s *scanOp) Inputs() []engine.Operator { return nil }

func (s *scanOp) Rows(ctx context.Context) (engine.RowIterator, error) {
	b := s.handle.backend
	b.mu.Lock()
	data, err := b.lookupLocked(s.handle.schema, s.handle.table)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	rows := data.rows
	b.mu.Unlock()

	i := 0
	return engine.NewRowIterator(func() (rel.Row, error) {
		if i == len(rows) {
			return nil, io.EOF
		}
		row := rel.CopyRow(rows[i])
		i++
		return row, nil
	}, nil), nil
}
