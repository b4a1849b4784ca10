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
	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/chisel/util"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Table is a model object: a handle on a backend-resident table or a
// computed relation. Operations on it build logical plans; nothing touches
// the backend until commit.
//
// Handles from a previous introspection generation are stale after a commit
// refreshes the model; using one is a mutation-discipline error.
type Table struct {
	catalog    *Catalog
	schema     string
	name       string
	desc       *rel.Table
	node       plan.Node // nil for backend-resident tables
	generation int       // introspection generation, 0 for computed relations
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the schema name, empty for an unassigned computed relation.
func (t *Table) Schema() string { return t.schema }

// Description returns the table's relation schema.
func (t *Table) Description() *rel.Table { return t.desc }

// logicalPlan returns the plan that produces this table's rows.
func (t *Table) logicalPlan() (plan.Node, error) {
	if t.node != nil {
		return t.node, nil
	}
	if t.generation != t.catalog.generation {
		return nil, cherrors.Errorf(cherrors.Mutation, "stale handle on table %q.%q", t.schema, t.name)
	}
	node, err := t.catalog.backend.ExtantPlan(t.schema, t.name)
	if err != nil {
		return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot plan scan of %q.%q", t.schema, t.name)
	}
	return node, nil
}

func (t *Table) derive(node plan.Node) (*ComputedRelation, error) {
	return newComputedRelation(t.catalog, node)
}

// Column returns a handle on the named column.
func (t *Table) Column(name string) (*Column, error) {
	def := t.desc.Columns.Get(name)
	if def == nil {
		return nil, cherrors.Errorf(cherrors.Contract, "table %q has no column %q", t.name, name)
	}
	return &Column{table: t, def: def}, nil
}

// Columns returns handles on all columns in order.
func (t *Table) Columns() []*Column {
	cols := t.desc.Columns.All()
	out := make([]*Column, len(cols))
	for i := range cols {
		out[i] = &Column{table: t, def: &cols[i]}
	}
	return out
}

// Select projects the table. An empty item list selects all attributes.
// Attribute add and drop markers may not be mixed with plain projections;
// a projection of markers only is implicitly prefixed with all attributes.
func (t *Table) Select(items ...plan.ProjectionItem) (*ComputedRelation, error) {
	markers, plain := 0, 0
	for _, item := range items {
		switch item.(type) {
		case plan.AttributeAdd, plan.AttributeDrop:
			markers++
		default:
			plain++
		}
	}
	switch {
	case len(items) == 0:
		items = []plan.ProjectionItem{plan.AllAttributes{}}
	case markers > 0 && plain > 0:
		return nil, cherrors.New(cherrors.Contract,
			"attribute add/drop markers cannot be mixed with plain projections")
	case markers > 0:
		items = append([]plan.ProjectionItem{plan.AllAttributes{}}, items...)
	}
	node, err := t.logicalPlan()
	if err != nil {
		return nil, err
	}
	return t.derive(&plan.Project{Child: node, Projection: items})
}

// Where filters the table by an equality formula.
func (t *Table) Where(formula plan.Formula) (*ComputedRelation, error) {
	node, err := t.logicalPlan()
	if err != nil {
		return nil, err
	}
	return t.derive(&plan.Select{Child: node, Formula: formula})
}

// Join computes the cross join with another relation.
func (t *Table) Join(right *Table) (*ComputedRelation, error) {
	left, err := t.logicalPlan()
	if err != nil {
		return nil, err
	}
	rnode, err := right.logicalPlan()
	if err != nil {
		return nil, err
	}
	return t.derive(&plan.Join{Left: left, Right: rnode})
}

// Union concatenates this relation with another of the same shape.
func (t *Table) Union(right *Table) (*ComputedRelation, error) {
	left, err := t.logicalPlan()
	if err != nil {
		return nil, err
	}
	rnode, err := right.logicalPlan()
	if err != nil {
		return nil, err
	}
	return t.derive(&plan.Union{Child: left, Right: rnode})
}

// Reify decomposes the table into a new relation keyed by keys and carrying
// attributes.
func (t *Table) Reify(keys, attributes []string) (*ComputedRelation, error) {
	node, err := t.logicalPlan()
	if err != nil {
		return nil, err
	}
	return t.derive(&plan.Reify{Child: node, Keys: keys, Attributes: attributes})
}

// ReifySub decomposes a sub-concept: the table's minimal key plus the given
// attributes.
func (t *Table) ReifySub(attributes ...string) (*ComputedRelation, error) {
	node, err := t.logicalPlan()
	if err != nil {
		return nil, err
	}
	return t.derive(&plan.ReifySub{Child: node, Attributes: attributes})
}

// Clone computes a copy of the table's rows.
func (t *Table) Clone() (*ComputedRelation, error) {
	return t.Select()
}

// AddColumn queues an in-place extension of this table with a new column.
func (t *Table) AddColumn(definition string) error {
	relation, err := t.Select(plan.AttributeAdd{Definition: definition})
	if err != nil {
		return err
	}
	return t.collection().Assign(t.name, relation)
}

// DropColumn queues an in-place removal of one column of this table.
func (t *Table) DropColumn(name string) error {
	if _, err := t.Column(name); err != nil {
		return err
	}
	relation, err := t.Select(plan.AttributeDrop{Name: name})
	if err != nil {
		return err
	}
	return t.collection().Assign(t.name, relation)
}

// RenameColumn queues an in-place rename of one column of this table.
func (t *Table) RenameColumn(old, new string) error {
	if _, err := t.Column(old); err != nil {
		return err
	}
	relation, err := t.Select(plan.AllAttributes{}, plan.AttributeAlias{Name: old, Alias: new})
	if err != nil {
		return err
	}
	return t.collection().Assign(t.name, relation)
}

func (t *Table) collection() *TableCollection {
	return t.catalog.schemas[t.schema].Tables
}

// Column is a handle on one column of a table, used to build projection
// terms, filters and column-level derivations.
type Column struct {
	table *Table
	def   *rel.Column
}

// Name returns the column name.
func (c *Column) Name() string { return c.def.Name }

// Type returns the column's type name.
func (c *Column) Type() string { return c.def.Type }

// Alias projects this column under a new name.
func (c *Column) Alias(name string) plan.AttributeAlias {
	return plan.AttributeAlias{Name: c.def.Name, Alias: name}
}

// Drop removes this column in a projection.
func (c *Column) Drop() plan.AttributeDrop {
	return plan.AttributeDrop{Name: c.def.Name}
}

// Eq compares this column against a literal.
func (c *Column) Eq(literal string) plan.Comparison {
	return plan.Comparison{Operand1: c.def.Name, Operator: "=", Operand2: literal}
}

// ToAtoms computes the column's delimited values unnested into atomic rows,
// keyed by the table's minimal key. A nil unnest function splits on commas.
func (c *Column) ToAtoms(unnest *plan.UnnestFunc) (*ComputedRelation, error) {
	if unnest == nil {
		unnest = util.Splitter(",")
	}
	node, err := c.table.logicalPlan()
	if err != nil {
		return nil, err
	}
	return c.table.derive(&plan.Atomize{Child: node, Unnest: unnest, Attribute: c.def.Name})
}

// ToDomain computes the deduplicated value domain of this column. A nil
// similarity function deduplicates exactly; util.EditDistance is the usual
// fuzzy choice.
func (c *Column) ToDomain(similarity *plan.SimilarityFunc, grouping *plan.GroupingFunc) (*ComputedRelation, error) {
	node, err := c.table.logicalPlan()
	if err != nil {
		return nil, err
	}
	return c.table.derive(&plan.Domainify{
		Child: node, Attribute: c.def.Name, Similarity: similarity, Grouping: grouping,
	})
}

// ToVocabulary computes a vocabulary from this column: canonical names with
// their clustered synonyms.
func (c *Column) ToVocabulary(similarity *plan.SimilarityFunc, grouping *plan.GroupingFunc) (*ComputedRelation, error) {
	node, err := c.table.logicalPlan()
	if err != nil {
		return nil, err
	}
	return c.table.derive(&plan.Canonicalize{
		Child: node, Attribute: c.def.Name, Similarity: similarity, Grouping: grouping,
	})
}

// Align replaces this column's values with their best matches in a domain or
// vocabulary relation.
func (c *Column) Align(domain *Table, similarity *plan.SimilarityFunc, grouping *plan.GroupingFunc) (*ComputedRelation, error) {
	node, err := c.table.logicalPlan()
	if err != nil {
		return nil, err
	}
	dnode, err := domain.logicalPlan()
	if err != nil {
		return nil, err
	}
	return c.table.derive(&plan.Align{
		Domain: dnode, Child: node, Attribute: c.def.Name,
		Similarity: similarity, Grouping: grouping,
	})
}

// ToTags atomizes this column and aligns the atoms against a domain or
// vocabulary relation.
func (c *Column) ToTags(domain *Table, unnest *plan.UnnestFunc, similarity *plan.SimilarityFunc, grouping *plan.GroupingFunc) (*ComputedRelation, error) {
	if unnest == nil {
		unnest = util.Splitter(",")
	}
	node, err := c.table.logicalPlan()
	if err != nil {
		return nil, err
	}
	dnode, err := domain.logicalPlan()
	if err != nil {
		return nil, err
	}
	return c.table.derive(&plan.Tagify{
		Domain: dnode, Child: node, Attribute: c.def.Name, Unnest: unnest,
		Similarity: similarity, Grouping: grouping,
	})
}
