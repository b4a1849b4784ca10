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

// Package engine implements the physical operators of the planner: lazy,
// schema-aware execution nodes.
//
// An operator has two jobs: it determines the description (relation schema)
// of the relation it computes, once, at construction; and it produces the
// relation's rows through a pull-based iterator. Construction never consumes
// a child row, and malformed parameters fail construction with a contract
// error rather than surfacing during iteration.
//
// Each call to Rows starts a fresh pass. Passes recompute unless the
// operator is wrapped in a Buffered operator, which memoizes the first
// complete pass and replays it afterwards.
package engine

import (
	"context"
	"io"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Operator is a physical operator node. Operators own their children; a
// child is never shared between operators except through an explicit
// TempVarRef.
type Operator interface {
	// Description returns the schema of the computed relation. It is pure
	// and constant after construction.
	Description() *rel.Table

	// Rows starts a new pass over the operator's rows.
	Rows(ctx context.Context) (RowIterator, error)

	// Inputs returns the child operators.
	Inputs() []Operator
}

// RowIterator is a single pass over an operator's rows.
type RowIterator interface {
	// Next returns the next row, or io.EOF when the pass is exhausted.
	Next() (rel.Row, error)
	// Close releases any resources held by the pass.
	Close() error
}

// Relation is a computed, buffered relation that a plan can reference
// through a TempVarRef without recomputing it.
type Relation interface {
	Description() *rel.Table
	Fetch(ctx context.Context) (RowIterator, error)
}

// Scanner is implemented by backend-resident extant sources that can produce
// a plain scan of their rows.
type Scanner interface {
	Description() *rel.Table
	Scan() Operator
}

// SelectScanner is implemented by extant sources that can additionally push
// an equality formula into the scan. The bool result is false when the
// source declines the formula, in which case the planner composes a generic
// Select over the plain scan.
type SelectScanner interface {
	Scanner
	ScanSelect(formula plan.Formula) (Operator, bool)
}

// ProjectSelectScanner is implemented by extant sources that can push both a
// projection and a formula into one fetch.
type ProjectSelectScanner interface {
	SelectScanner
	ScanProjectSelect(projection []plan.ProjectionItem, formula plan.Formula) (Operator, bool)
}

// noInputs is embedded by leaf operators.
type noInputs struct{}

func (noInputs) Inputs() []Operator { return nil }

//
// Iterator helpers
//

type rowIterFunc struct {
	next  func() (rel.Row, error)
	close func() error
}

func (it *rowIterFunc) Next() (rel.Row, error) { return it.next() }

func (it *rowIterFunc) Close() error {
	if it.close == nil {
		return nil
	}
	return it.close()
}

// NewRowIterator adapts next and close functions to a RowIterator, for
// backends that implement their own scans. A nil close is a no-op.
func NewRowIterator(next func() (rel.Row, error), close func() error) RowIterator {
	return &rowIterFunc{next: next, close: close}
}

func sliceIterator(rows []rel.Row) RowIterator {
	i := 0
	return &rowIterFunc{next: func() (rel.Row, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		row := rows[i]
		i++
		return row, nil
	}}
}

func emptyIterator() RowIterator {
	return &rowIterFunc{next: func() (rel.Row, error) { return nil, io.EOF }}
}

// Drain consumes one full pass of op and returns its rows.
func Drain(ctx context.Context, op Operator) ([]rel.Row, error) {
	it, err := op.Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var rows []rel.Row
	for {
		row, err := it.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

//
// Support operators: metadata, empty, buffered, temp var reference
//

// Metadata carries a fixed description and no rows. It stands in for a
// relation that exists only as a schema, e.g. a new table definition.
type Metadata struct {
	noInputs
	desc *rel.Table
}

// NewMetadata returns a Metadata operator for the given description.
func NewMetadata(desc *rel.Table) *Metadata {
	return &Metadata{desc: desc}
}

func (m *Metadata) Description() *rel.Table { return m.desc }

func (m *Metadata) Rows(context.Context) (RowIterator, error) {
	return emptyIterator(), nil
}

// Empty is the physical form of the Nil relation.
type Empty struct {
	noInputs
	desc *rel.Table
}

// NewEmpty returns an operator producing no rows and an empty description.
func NewEmpty() *Empty {
	return &Empty{desc: &rel.Table{Name: rel.NewComputedName()}}
}

func (e *Empty) Description() *rel.Table { return e.desc }

func (e *Empty) Rows(context.Context) (RowIterator, error) {
	return emptyIterator(), nil
}

// Buffered memoizes the first complete pass over its child and replays it on
// later passes. A pass abandoned before io.EOF leaves the buffer incomplete;
// starting another pass mid-drain is a contract violation.
type Buffered struct {
	child    Operator
	buf      []rel.Row
	complete bool
	draining bool
}

// NewBuffered wraps child in a buffer.
func NewBuffered(child Operator) *Buffered {
	return &Buffered{child: child}
}

func (b *Buffered) Description() *rel.Table { return b.child.Description() }

func (b *Buffered) Inputs() []Operator { return []Operator{b.child} }

func (b *Buffered) Rows(ctx context.Context) (RowIterator, error) {
	if b.complete {
		return sliceIterator(b.buf), nil
	}
	if b.draining {
		return nil, cherrors.New(cherrors.Contract, "buffered relation re-entered mid-drain")
	}
	inner, err := b.child.Rows(ctx)
	if err != nil {
		return nil, err
	}
	b.draining = true
	b.buf = b.buf[:0]
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			row, err := inner.Next()
			if err == io.EOF {
				b.complete = true
				b.draining = false
				return nil, io.EOF
			}
			if err != nil {
				return nil, err
			}
			b.buf = append(b.buf, row)
			return row, nil
		},
		close: func() error {
			b.draining = false
			return inner.Close()
		},
	}, nil
}

// TempVarRef references a previously computed, buffered relation.
type TempVarRef struct {
	noInputs
	relation Relation
}

// NewTempVarRef returns a reference to the given computed relation.
func NewTempVarRef(relation Relation) (*TempVarRef, error) {
	if relation == nil {
		return nil, cherrors.New(cherrors.Contract, "temp var reference requires a computed relation")
	}
	return &TempVarRef{relation: relation}, nil
}

func (t *TempVarRef) Description() *rel.Table { return t.relation.Description() }

func (t *TempVarRef) Rows(ctx context.Context) (RowIterator, error) {
	return t.relation.Fetch(ctx)
}
