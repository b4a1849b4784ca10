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

	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/chisel/planner"
)

// ComputedRelation is a derived relation awaiting assignment: a normalized
// logical plan together with the physical plan's description. Its rows are
// computed lazily and buffered, so inspecting them before commit costs one
// evaluation at most.
type ComputedRelation struct {
	Table
	buffered *engine.Buffered
}

// newComputedRelation normalizes and lowers the plan eagerly so that the
// relation's description and contract errors surface at construction.
func newComputedRelation(c *Catalog, node plan.Node) (*ComputedRelation, error) {
	normalized := planner.LogicalPlanner(node)
	op, err := planner.PhysicalPlanner(normalized)
	if err != nil {
		return nil, err
	}
	buffered := engine.NewBuffered(op)
	desc := buffered.Description()
	return &ComputedRelation{
		Table: Table{
			catalog: c,
			name:    desc.Name,
			desc:    desc,
			node:    normalized,
		},
		buffered: buffered,
	}, nil
}

// LogicalPlan returns the relation's normalized logical plan.
func (r *ComputedRelation) LogicalPlan() plan.Node { return r.node }

// SetLogicalPlan replaces the plan, as done by the batch consolidator. The
// description is unchanged; consolidation preserves the computed relation.
func (r *ComputedRelation) SetLogicalPlan(n plan.Node) {
	r.Table.node = n
}

// Fetch starts a pass over the buffered rows.
func (r *ComputedRelation) Fetch(ctx context.Context) (engine.RowIterator, error) {
	return r.buffered.Rows(ctx)
}

var _ planner.ConsolidationTarget = (*ComputedRelation)(nil)
var _ engine.Relation = (*ComputedRelation)(nil)
