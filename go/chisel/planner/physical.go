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
	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
)

// lower translates a normalized logical plan bottom-up into physical
// operators, preferring the most fused pattern available: a projection or
// selection directly over an extant goes to the backend scanner when it
// offers a combined fetch, before falling back to generic composition.
func lower(n plan.Node) (engine.Operator, error) {
	switch n := n.(type) {
	case *plan.Nil:
		return engine.NewEmpty(), nil

	case *plan.Extant:
		scanner, ok := n.Source.(engine.Scanner)
		if !ok {
			return nil, cherrors.Errorf(cherrors.Internal, "extant %s.%s has no scannable source", n.Schema, n.Table)
		}
		return scanner.Scan(), nil

	case *plan.TabularScan:
		return engine.NewTabularFileScan(n.Filename)

	case *plan.JSONScan:
		return engine.NewJSONScan(n.Filename, n.Content, n.Payload, n.KeyRegex)

	case *plan.Shred:
		return engine.NewShredScan(n.Graph, n.Query)

	case *plan.TempVar:
		relation, ok := n.Var.(engine.Relation)
		if !ok {
			return nil, cherrors.New(cherrors.Internal, "temp var does not reference a computed relation")
		}
		return engine.NewTempVarRef(relation)

	case *plan.Assign:
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		return engine.NewAssign(child, n.Schema, n.Table), nil

	case *plan.Project:
		// fused scan+select+project
		if sel, ok := n.Child.(*plan.Select); ok {
			if extant, ok := sel.Child.(*plan.Extant); ok {
				if scanner, ok := extant.Source.(engine.ProjectSelectScanner); ok {
					if op, ok := scanner.ScanProjectSelect(n.Projection, sel.Formula); ok {
						return op, nil
					}
				}
			}
		}
		// fused scan+project
		if extant, ok := n.Child.(*plan.Extant); ok {
			if scanner, ok := extant.Source.(engine.ProjectSelectScanner); ok {
				if op, ok := scanner.ScanProjectSelect(n.Projection, nil); ok {
					return op, nil
				}
			}
		}
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		return engine.NewProject(child, n.Projection)

	case *plan.Select:
		// fused scan+select
		if extant, ok := n.Child.(*plan.Extant); ok {
			if scanner, ok := extant.Source.(engine.SelectScanner); ok {
				if op, ok := scanner.ScanSelect(n.Formula); ok {
					return op, nil
				}
			}
		}
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		return engine.NewSelect(child, n.Formula)

	case *plan.Rename:
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		return engine.NewRename(child, n.Renames)

	case *plan.Distinct:
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		return engine.NewHashDistinct(child, n.Attributes)

	case *plan.Deduplicate:
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		distinct, err := engine.NewHashDistinct(child, n.Attributes)
		if err != nil {
			return nil, err
		}
		return engine.NewSimilarityAggregation(distinct, n.Attributes, nil, n.Similarity, n.Grouping)

	case *plan.Nest:
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		distinct, err := engine.NewHashDistinct(child, append(append([]string(nil), n.Grouping...), n.Nesting...))
		if err != nil {
			return nil, err
		}
		return engine.NewSimilarityAggregation(distinct, n.Grouping, n.Nesting, n.Similarity, n.GroupingFn)

	case *plan.Join:
		left, err := lower(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := lower(n.Right)
		if err != nil {
			return nil, err
		}
		return engine.NewCrossJoin(left, right)

	case *plan.Union:
		left, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		right, err := lower(n.Right)
		if err != nil {
			return nil, err
		}
		return engine.NewUnion(left, right)

	case *plan.SimilarityJoin:
		left, err := lower(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := lower(n.Right)
		if err != nil {
			return nil, err
		}
		return engine.NewSimilarityJoin(left, right, n.Condition)

	case *plan.Unnest:
		child, err := lower(n.Child)
		if err != nil {
			return nil, err
		}
		return engine.NewUnnest(child, n.Fn, n.Attribute)
	}

	return nil, cherrors.Errorf(cherrors.Internal, "no lowering rule for %s", plan.String(n))
}
