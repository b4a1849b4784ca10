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

package planner

import (
	"context"
	"sync"

	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/log"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// ConsolidationTarget is a pending assignment whose normalized logical plan
// the consolidator may rewrite in place.
type ConsolidationTarget interface {
	LogicalPlan() plan.Node
	SetLogicalPlan(plan.Node)
}

// candidate is one structurally distinct sub-plan seen during the census,
// with the set of targets it occurs in. Hash collisions are resolved by
// structural equality, so each candidate bucket may hold several entries.
type candidate struct {
	node   plan.Node
	owners map[int]bool
	shared *sharedRelation
}

// Consolidate factors maximal sub-plans shared by two or more of the given
// plans into single buffered computations referenced through temp vars.
// Replacement is top-down, so an inner shared sub-plan is only factored where
// it occurs outside a larger shared sub-plan. Row sets are unchanged; shared
// work is just computed once.
func Consolidate(targets []ConsolidationTarget) error {
	buckets := make(map[uint64][]*candidate)
	find := func(n plan.Node) *candidate {
		for _, c := range buckets[plan.Hash(n)] {
			if plan.Equal(c.node, n) {
				return c
			}
		}
		return nil
	}

	var census func(idx int, n plan.Node)
	census = func(idx int, n plan.Node) {
		if consolidatable(n) {
			c := find(n)
			if c == nil {
				c = &candidate{node: n, owners: make(map[int]bool)}
				h := plan.Hash(n)
				buckets[h] = append(buckets[h], c)
			}
			c.owners[idx] = true
		}
		mapChildren(n, func(child plan.Node) (plan.Node, bool) {
			census(idx, child)
			return child, false
		})
	}
	for idx, t := range targets {
		census(idx, t.LogicalPlan())
	}

	var rewriteErr error
	var replace func(n plan.Node) (plan.Node, bool)
	replace = func(n plan.Node) (plan.Node, bool) {
		if rewriteErr != nil {
			return n, false
		}
		if consolidatable(n) {
			if c := find(n); c != nil && len(c.owners) > 1 {
				if c.shared == nil {
					op, err := lower(c.node)
					if err != nil {
						rewriteErr = err
						return n, false
					}
					c.shared = &sharedRelation{op: engine.NewBuffered(op)}
					if log.V(1) {
						log.Infof("consolidated sub-plan shared by %d assignments: %s", len(c.owners), plan.String(c.node))
					}
				}
				return &plan.TempVar{Var: c.shared}, true
			}
		}
		return mapChildren(n, replace)
	}
	for _, t := range targets {
		if out, changed := replace(t.LogicalPlan()); changed {
			t.SetLogicalPlan(out)
		}
		if rewriteErr != nil {
			return rewriteErr
		}
	}
	return nil
}

// consolidatable reports whether a node is worth factoring: interior
// computation only. Bare scans and references are cheap or already shared,
// and an Assign is bound to its destination.
func consolidatable(n plan.Node) bool {
	switch n.(type) {
	case *plan.Nil, *plan.Extant, *plan.TabularScan, *plan.JSONScan, *plan.Shred, *plan.TempVar, *plan.Assign:
		return false
	}
	return true
}

// sharedRelation is one buffered evaluation of a factored sub-plan; every
// referencing plan fetches from the same buffer. The first fetch drains the
// sub-plan to completion before any rows are served, so a plan that
// references the relation more than once, e.g. on both sides of a join, can
// open nested passes over it.
type sharedRelation struct {
	op *engine.Buffered

	mu       sync.Mutex
	complete bool
}

func (s *sharedRelation) Description() *rel.Table { return s.op.Description() }

func (s *sharedRelation) Fetch(ctx context.Context) (engine.RowIterator, error) {
	s.mu.Lock()
	if !s.complete {
		if _, err := engine.Drain(ctx, s.op); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.complete = true
	}
	s.mu.Unlock()
	return s.op.Rows(ctx)
}
