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

package engine

import (
	"context"

	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Assign marks the root of a physical plan with the destination of its
// computed relation. Backends materialize the child rows into the named
// table. Assign passes its child's rows through unchanged.
type Assign struct {
	child Operator
	desc  *rel.Table
}

// NewAssign renames the child's description to the destination schema and
// table.
func NewAssign(child Operator, schema, table string) *Assign {
	desc := child.Description().Clone()
	desc.Schema = schema
	desc.Name = table
	return &Assign{child: child, desc: desc}
}

func (a *Assign) Description() *rel.Table { return a.desc }

func (a *Assign) Inputs() []Operator { return []Operator{a.child} }

func (a *Assign) Rows(ctx context.Context) (RowIterator, error) {
	return a.child.Rows(ctx)
}

// Create marks an assignment whose destination table does not yet exist.
type Create struct {
	*Assign
}

// NewCreate wraps an assignment as a table creation.
func NewCreate(assign *Assign) *Create {
	return &Create{Assign: assign}
}

// Alter marks an assignment that reshapes an existing table in place. The
// projection records the column-level delta for backends that can apply it
// without rewriting rows.
type Alter struct {
	*Assign
	Projection []plan.ProjectionItem
}

// NewAlter wraps an assignment as an in-place alteration.
func NewAlter(assign *Assign, projection []plan.ProjectionItem) *Alter {
	return &Alter{Assign: assign, Projection: projection}
}

// Drop marks the removal of an existing table. It carries no rows.
type Drop struct {
	*Assign
}

// NewDrop returns a drop marker for the named table.
func NewDrop(schema, table string) *Drop {
	return &Drop{Assign: NewAssign(NewEmpty(), schema, table)}
}
