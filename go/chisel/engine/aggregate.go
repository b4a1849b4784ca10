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
	"fmt"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// SimilarityAggregation clusters rows whose grouping values match under a
// similarity function and emits one row per cluster, optionally nesting a
// second attribute into a list of its distinct values.
//
// Clustering is first-found: rows are scanned in child order, each not yet
// assigned row opens a cluster, and every later unassigned row whose grouping
// value is similar to the cluster opener joins it. The pass is pipeline
// breaking; all child rows are read before the first output row.
type SimilarityAggregation struct {
	child    Operator
	desc     *rel.Table
	grouping string
	nesting  string // empty when not nesting
	sim      *plan.SimilarityFunc
	grp      *plan.GroupingFunc
}

// NewSimilarityAggregation requires exactly one grouping attribute, at most
// one nesting attribute and a similarity function.
func NewSimilarityAggregation(child Operator, grouping, nesting []string, sim *plan.SimilarityFunc, grp *plan.GroupingFunc) (*SimilarityAggregation, error) {
	if len(grouping) != 1 {
		return nil, cherrors.Errorf(cherrors.Contract, "similarity aggregation requires exactly one grouping attribute, got %d", len(grouping))
	}
	if len(nesting) > 1 {
		return nil, cherrors.Errorf(cherrors.Contract, "similarity aggregation supports at most one nesting attribute, got %d", len(nesting))
	}
	if sim == nil {
		return nil, cherrors.New(cherrors.Contract, "similarity aggregation requires a similarity function")
	}
	childDesc := child.Description()
	a := &SimilarityAggregation{child: child, grouping: grouping[0], sim: sim, grp: grp}
	if len(nesting) == 1 {
		a.nesting = nesting[0]
	}
	for _, name := range append(append([]string(nil), grouping...), nesting...) {
		if !childDesc.Columns.Has(name) {
			return nil, cherrors.Errorf(cherrors.Contract, "aggregated attribute %q not in relation %q", name, childDesc.Name)
		}
	}

	desc := &rel.Table{
		Schema: childDesc.Schema,
		Name:   childDesc.Name + ":" + rel.NewComputedName(),
		Kind:   childDesc.Kind,
	}
	desc.Columns.Append(*childDesc.Columns.Get(a.grouping))
	if a.nesting != "" {
		nested := *childDesc.Columns.Get(a.nesting)
		nested.Type = rel.ArrayType(nested.Type)
		desc.Columns.Append(nested)
	}
	a.desc = desc
	return a, nil
}

func (a *SimilarityAggregation) Description() *rel.Table { return a.desc }

func (a *SimilarityAggregation) Inputs() []Operator { return []Operator{a.child} }

func (a *SimilarityAggregation) Rows(ctx context.Context) (RowIterator, error) {
	rows, err := Drain(ctx, a.child)
	if err != nil {
		return nil, err
	}

	type cluster struct {
		key        any
		rep        rel.Row
		nestedVals []any
		nestedSeen map[string]bool
	}
	assigned := make([]bool, len(rows))
	var clusters []*cluster

	for i := range rows {
		if assigned[i] {
			continue
		}
		c := &cluster{key: rows[i][a.grouping]}
		if a.nesting != "" {
			c.nestedSeen = make(map[string]bool)
		}
		clusters = append(clusters, c)
		var partition string
		if a.grp != nil {
			partition = a.grp.Fn(c.key)
		}
		for j := i; j < len(rows); j++ {
			if assigned[j] {
				continue
			}
			candidate := rows[j][a.grouping]
			// The grouping function partitions candidates; values in other
			// partitions are never similar.
			if a.grp != nil && a.grp.Fn(candidate) != partition {
				continue
			}
			if a.sim.Fn(c.key, candidate) < 1.0 {
				assigned[j] = true
				c.rep = rows[j]
				if a.nesting != "" {
					value := rows[j][a.nesting]
					seenKey := fmt.Sprint(value)
					if !c.nestedSeen[seenKey] {
						c.nestedSeen[seenKey] = true
						c.nestedVals = append(c.nestedVals, value)
					}
				}
			}
		}
	}

	out := make([]rel.Row, 0, len(clusters))
	for _, c := range clusters {
		if a.nesting != "" {
			out = append(out, rel.Row{a.grouping: c.key, a.nesting: c.nestedVals})
		} else {
			out = append(out, c.rep)
		}
	}
	return sliceIterator(out), nil
}
