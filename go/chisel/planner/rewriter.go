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
	"github.com/informatics-isi-edu/chisel/go/chisel/log"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
)

// rule is one (pattern, rewrite) pair. apply reports whether it fired; when
// it fires it returns the replacement node.
type rule struct {
	name  string
	apply func(plan.Node) (plan.Node, bool)
}

// rewriteFixpoint applies the rules outermost-first, one firing per pass,
// until a full pass leaves the plan unchanged. Nodes are never mutated; every
// firing rebuilds the spine above the rewritten node.
func rewriteFixpoint(root plan.Node, rules []rule) plan.Node {
	for {
		out, changed := rewriteOnce(root, rules)
		root = out
		if !changed {
			return root
		}
	}
}

func rewriteOnce(n plan.Node, rules []rule) (plan.Node, bool) {
	for _, r := range rules {
		if out, ok := r.apply(n); ok {
			if log.V(2) {
				log.Infof("rewrite %s: %s => %s", r.name, plan.String(n), plan.String(out))
			}
			return out, true
		}
	}
	return mapChildren(n, func(child plan.Node) (plan.Node, bool) {
		return rewriteOnce(child, rules)
	})
}

// mapChildren rebuilds n with f applied to each child, reporting whether any
// child changed. Leaves return unchanged.
func mapChildren(n plan.Node, f func(plan.Node) (plan.Node, bool)) (plan.Node, bool) {
	switch n := n.(type) {
	case *plan.Assign:
		if child, ok := f(n.Child); ok {
			return &plan.Assign{Child: child, Schema: n.Schema, Table: n.Table}, true
		}
	case *plan.Project:
		if child, ok := f(n.Child); ok {
			return &plan.Project{Child: child, Projection: n.Projection}, true
		}
	case *plan.Select:
		if child, ok := f(n.Child); ok {
			return &plan.Select{Child: child, Formula: n.Formula}, true
		}
	case *plan.Rename:
		if child, ok := f(n.Child); ok {
			return &plan.Rename{Child: child, Renames: n.Renames}, true
		}
	case *plan.Distinct:
		if child, ok := f(n.Child); ok {
			return &plan.Distinct{Child: child, Attributes: n.Attributes}, true
		}
	case *plan.Deduplicate:
		if child, ok := f(n.Child); ok {
			return &plan.Deduplicate{Child: child, Attributes: n.Attributes, Similarity: n.Similarity, Grouping: n.Grouping}, true
		}
	case *plan.Nest:
		if child, ok := f(n.Child); ok {
			return &plan.Nest{Child: child, Grouping: n.Grouping, Nesting: n.Nesting, Similarity: n.Similarity, GroupingFn: n.GroupingFn}, true
		}
	case *plan.Join:
		left, lok := f(n.Left)
		right, rok := f(n.Right)
		if lok || rok {
			return &plan.Join{Left: left, Right: right}, true
		}
	case *plan.Union:
		child, cok := f(n.Child)
		right, rok := f(n.Right)
		if cok || rok {
			return &plan.Union{Child: child, Right: right}, true
		}
	case *plan.SimilarityJoin:
		left, lok := f(n.Left)
		right, rok := f(n.Right)
		if lok || rok {
			return &plan.SimilarityJoin{Left: left, Right: right, Condition: n.Condition}, true
		}
	case *plan.Unnest:
		if child, ok := f(n.Child); ok {
			return &plan.Unnest{Child: child, Fn: n.Fn, Attribute: n.Attribute}, true
		}
	case *plan.Reify:
		if child, ok := f(n.Child); ok {
			return &plan.Reify{Child: child, Keys: n.Keys, Attributes: n.Attributes}, true
		}
	case *plan.ReifySub:
		if child, ok := f(n.Child); ok {
			return &plan.ReifySub{Child: child, Attributes: n.Attributes}, true
		}
	case *plan.Atomize:
		if child, ok := f(n.Child); ok {
			return &plan.Atomize{Child: child, Unnest: n.Unnest, Attribute: n.Attribute}, true
		}
	case *plan.Domainify:
		if child, ok := f(n.Child); ok {
			return &plan.Domainify{Child: child, Attribute: n.Attribute, Similarity: n.Similarity, Grouping: n.Grouping}, true
		}
	case *plan.Canonicalize:
		if child, ok := f(n.Child); ok {
			return &plan.Canonicalize{Child: child, Attribute: n.Attribute, Similarity: n.Similarity, Grouping: n.Grouping}, true
		}
	case *plan.Align:
		domain, dok := f(n.Domain)
		child, cok := f(n.Child)
		if dok || cok {
			return &plan.Align{Domain: domain, Child: child, Attribute: n.Attribute, Similarity: n.Similarity, Grouping: n.Grouping}, true
		}
	case *plan.Tagify:
		domain, dok := f(n.Domain)
		child, cok := f(n.Child)
		if dok || cok {
			return &plan.Tagify{Domain: domain, Child: child, Attribute: n.Attribute, Unnest: n.Unnest, Similarity: n.Similarity, Grouping: n.Grouping}, true
		}
	}
	return n, false
}
