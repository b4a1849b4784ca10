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
	"io"
	"os"
	"sort"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/log"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/chisel/planner"
)

// Tx is an evolve transaction: the scope within which pending assignments
// accumulate before being committed or aborted together.
type Tx struct {
	catalog *Catalog

	allowAlter  bool
	allowDrop   bool
	dryRun      bool
	consolidate bool
	out         io.Writer

	done bool
}

func newTx(c *Catalog) *Tx {
	return &Tx{catalog: c, consolidate: true, out: os.Stdout}
}

// EvolveOption configures a transaction at open time.
type EvolveOption func(*Tx)

// AllowAlter permits assignments that replace or reshape existing tables.
func AllowAlter() EvolveOption { return func(tx *Tx) { tx.allowAlter = true } }

// AllowDrop permits table drops.
func AllowDrop() EvolveOption { return func(tx *Tx) { tx.allowDrop = true } }

// DryRun plans and previews every pending assignment on commit without
// touching the backend. A nil writer prints to standard output.
func DryRun(w io.Writer) EvolveOption {
	return func(tx *Tx) {
		tx.dryRun = true
		if w != nil {
			tx.out = w
		}
	}
}

// WithoutConsolidation disables factoring of shared sub-plans at commit.
func WithoutConsolidation() EvolveOption { return func(tx *Tx) { tx.consolidate = false } }

// Evolve opens a transaction. At most one transaction may be open per
// catalog; a second open is a mutation-discipline error.
func (c *Catalog) Evolve(opts ...EvolveOption) (*Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return nil, cherrors.Errorf(cherrors.Mutation,
			"a model evolution is already in progress on catalog %q", c.backend.Name())
	}
	tx := newTx(c)
	for _, opt := range opts {
		opt(tx)
	}
	c.tx = tx
	return tx, nil
}

// EvolveBlock opens a transaction, runs fn, and commits; if fn returns an
// error the transaction is aborted and the error returned.
func (c *Catalog) EvolveBlock(ctx context.Context, fn func() error, opts ...EvolveOption) error {
	tx, err := c.Evolve(opts...)
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit(ctx)
}

// job is one pending assignment resolved against the pre-transaction state.
type job struct {
	schema  string
	pending *pendingAssignment
	existed bool
}

// Commit plans, consolidates and materializes every pending assignment, in
// schema order then queue order, then refreshes the model from the backend.
// Any failure aborts: the pre-transaction table set is restored and the
// error returned.
func (tx *Tx) Commit(ctx context.Context) error {
	c := tx.catalog
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != tx || tx.done {
		return cherrors.New(cherrors.Mutation, "transaction is not open")
	}

	var jobs []job
	var targets []planner.ConsolidationTarget
	snames := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		snames = append(snames, name)
	}
	sort.Strings(snames)
	for _, sname := range snames {
		tc := c.schemas[sname].Tables
		for _, p := range tc.pending {
			_, existed := tc.backup[p.name]
			jobs = append(jobs, job{schema: sname, pending: p, existed: existed})
			if p.relation != nil {
				targets = append(targets, p.relation)
			}
		}
	}

	fail := func(err error) error {
		c.resetLocked()
		tx.close()
		return err
	}

	if tx.consolidate && len(targets) > 1 {
		if err := planner.Consolidate(targets); err != nil {
			return fail(err)
		}
	}

	for _, j := range jobs {
		if j.pending.drop && !tx.allowDrop {
			return fail(cherrors.Errorf(cherrors.Mutation,
				"dropping table %q.%q requires the allow-drop option", j.schema, j.pending.name))
		}
		if j.existed && !j.pending.drop && !tx.allowAlter {
			return fail(cherrors.Errorf(cherrors.Mutation,
				"replacing table %q.%q requires the allow-alter option", j.schema, j.pending.name))
		}

		marker, logical, err := tx.planJob(j)
		if err != nil {
			return fail(err)
		}
		if tx.dryRun {
			if err := tx.printDryRun(ctx, j, logical, marker); err != nil {
				return fail(err)
			}
			continue
		}
		log.V(1).Infof("materializing %q.%q", j.schema, j.pending.name)
		if err := c.backend.Materialize(ctx, marker); err != nil {
			return fail(cherrors.Wrapf(cherrors.Backend, err,
				"cannot materialize %q.%q", j.schema, j.pending.name))
		}
	}

	if tx.dryRun {
		c.resetLocked()
		tx.close()
		return nil
	}
	tx.close()
	return c.refresh()
}

// planJob lowers one pending assignment to its physical mutation marker.
func (tx *Tx) planJob(j job) (engine.Operator, plan.Node, error) {
	switch {
	case j.pending.drop:
		logical := &plan.Assign{Child: &plan.Nil{}, Schema: j.schema, Table: j.pending.name}
		return engine.NewDrop(j.schema, j.pending.name), logical, nil

	case j.pending.definition != nil:
		assign := engine.NewAssign(engine.NewMetadata(j.pending.definition), j.schema, j.pending.name)
		if j.existed {
			return assign, nil, nil
		}
		return engine.NewCreate(assign), nil, nil

	default:
		logical := &plan.Assign{Child: j.pending.relation.LogicalPlan(), Schema: j.schema, Table: j.pending.name}
		op, err := planner.PhysicalPlanner(logical)
		if err != nil {
			return nil, nil, err
		}
		assign := op.(*engine.Assign)
		if !j.existed {
			return engine.NewCreate(assign), logical, nil
		}
		if delta := tx.columnDelta(j.pending.relation.LogicalPlan(), j.schema, j.pending.name); delta != nil {
			return engine.NewAlter(assign, delta), logical, nil
		}
		return assign, logical, nil
	}
}

// columnDelta recognizes an in-place reshape of a table: a projection with
// rename, add or drop items directly over the destination table itself. The
// delta lets backends alter columns without rewriting rows.
func (tx *Tx) columnDelta(node plan.Node, schema, name string) []plan.ProjectionItem {
	p, ok := node.(*plan.Project)
	if !ok {
		return nil
	}
	self, err := tx.catalog.backend.ExtantPlan(schema, name)
	if err != nil || !plan.Equal(p.Child, self) {
		return nil
	}
	for _, item := range p.Projection {
		switch item.(type) {
		case plan.AttributeAlias, plan.AttributeAdd, plan.AttributeDrop:
			return p.Projection
		}
	}
	return nil
}

// Abort discards every pending assignment and restores the pre-transaction
// table set.
func (tx *Tx) Abort() error {
	c := tx.catalog
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != tx || tx.done {
		return cherrors.New(cherrors.Mutation, "transaction is not open")
	}
	c.resetLocked()
	tx.close()
	return nil
}

func (tx *Tx) close() {
	tx.done = true
	tx.catalog.tx = nil
}

func (c *Catalog) resetLocked() {
	for _, schema := range c.schemas {
		schema.Tables.reset()
	}
}
