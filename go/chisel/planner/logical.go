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
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/chisel/util"
)

// optimizationRules eliminate dead branches, fuse selects through projections
// and simplify trivial renames.
var optimizationRules = []rule{
	{"nil-propagation", applyNilPropagation},
	{"deduplicate-to-distinct", applyDeduplicateToDistinct},
	{"trivial-rename", applyTrivialRename},
	{"select-project-fusion", applySelectProjectFusion},
	{"rename-project-fusion", applyRenameProjectFusion},
}

// compositionRules expand each composite operator into an equivalent tree of
// primitives.
var compositionRules = []rule{
	{"reify", applyReify},
	{"reify-sub", applyReifySub},
	{"atomize", applyAtomize},
	{"domainify", applyDomainify},
	{"canonicalize", applyCanonicalize},
	{"align", applyAlign},
	{"tagify", applyTagify},
}

func isNil(n plan.Node) bool {
	_, ok := n.(*plan.Nil)
	return ok
}

// applyNilPropagation normalizes any primitive applied to the empty relation,
// or with an empty attribute or projection list, to the empty relation.
/// Assign is deliberately left alone: an assignment of Nil is a table drop.
func applyNilPropagation(n plan.Node) (plan.Node, bool) {
	switch n := n.(type) {
	case *plan.Project:
		if isNil(n.Child) || len(n.Projection) == 0 {
			return &plan.Nil{}, true
		}
	case *plan.Select:
		if isNil(n.Child) {
			return &plan.Nil{}, true
		}
	case *plan.Rename:
		if isNil(n.Child) {
			return &plan.Nil{}, true
		}
	case *plan.Distinct:
		if isNil(n.Child) || len(n.Attributes) == 0 {
			return &plan.Nil{}, true
		}
	case *plan.Deduplicate:
		if isNil(n.Child) || len(n.Attributes) == 0 {
			return &plan.Nil{}, true
		}
	case *plan.Nest:
		if isNil(n.Child) || len(n.Grouping) == 0 {
			return &plan.Nil{}, true
		}
	case *plan.Unnest:
		if isNil(n.Child) {
			return &plan.Nil{}, true
		}
	case *plan.Join:
		if isNil(n.Left) || isNil(n.Right) {
			return &plan.Nil{}, true
		}
	case *plan.Union:
		if isNil(n.Child) || isNil(n.Right) {
			return &plan.Nil{}, true
		}
	case *plan.SimilarityJoin:
		if isNil(n.Left) || isNil(n.Right) {
			return &plan.Nil{}, true
		}
	}
	return nil, false
}

// applyDeduplicateToDistinct reduces a deduplication without a similarity
// function to plain distinct.
func applyDeduplicateToDistinct(n plan.Node) (plan.Node, bool) {
	if d, ok := n.(*plan.Deduplicate); ok && d.Similarity == nil {
		return &plan.Distinct{Child: d.Child, Attributes: d.Attributes}, true
	}
	return nil, false
}

// applyTrivialRename drops a rename with no renames.
func applyTrivialRename(n plan.Node) (plan.Node, bool) {
	if r, ok := n.(*plan.Rename); ok && len(r.Renames) == 0 {
		return r.Child, true
	}
	return nil, false
}

// applySelectProjectFusion sinks a select below a projection, rewriting the
// formula's attribute references through the projection's aliases.
func applySelectProjectFusion(n plan.Node) (plan.Node, bool) {
	s, ok := n.(*plan.Select)
	if !ok {
		return nil, false
	}
	p, ok := s.Child.(*plan.Project)
	if !ok {
		return nil, false
	}
	return &plan.Project{
		Child:      &plan.Select{Child: p.Child, Formula: rewriteFormula(s.Formula, p.Projection)},
		Projection: p.Projection,
	}, true
}

// rewriteFormula maps attribute references back through projection aliases.
func rewriteFormula(f plan.Formula, projection []plan.ProjectionItem) plan.Formula {
	source := make(map[string]string)
	for _, item := range projection {
		if alias, ok := item.(plan.AttributeAlias); ok {
			source[alias.Alias] = alias.Name
		}
	}
	if len(source) == 0 {
		return f
	}
	mapComparison := func(cmp plan.Comparison) plan.Comparison {
		if name, ok := source[cmp.Operand1]; ok {
			cmp.Operand1 = name
		}
		return cmp
	}
	switch f := f.(type) {
	case plan.Comparison:
		return mapComparison(f)
	case plan.Conjunction:
		out := plan.Conjunction{Comparisons: make([]plan.Comparison, len(f.Comparisons))}
		for i, cmp := range f.Comparisons {
			out.Comparisons[i] = mapComparison(cmp)
		}
		return out
	}
	return f
}

// applyRenameProjectFusion folds a rename into the projection below it as
// aliases, dropping the plain projections it replaces.
func applyRenameProjectFusion(n plan.Node) (plan.Node, bool) {
	r, ok := n.(*plan.Rename)
	if !ok || len(r.Renames) == 0 {
		return nil, false
	}
	p, ok := r.Child.(*plan.Project)
	if !ok {
		return nil, false
	}
	renamed := make(map[string]bool, len(r.Renames))
	for _, rn := range r.Renames {
		renamed[rn.Name] = true
	}
	var items []plan.ProjectionItem
	for _, item := range p.Projection {
		if attr, ok := item.(plan.Attribute); ok && renamed[string(attr)] {
			continue
		}
		items = append(items, item)
	}
	for _, rn := range r.Renames {
		items = append(items, rn)
	}
	return &plan.Project{Child: p.Child, Projection: items}, true
}

//
// Composite expansions
//

func attributeItems(names ...[]string) []plan.ProjectionItem {
	var items []plan.ProjectionItem
	for _, list := range names {
		for _, name := range list {
			items = append(items, plan.Attribute(name))
		}
	}
	return items
}

func applyReify(n plan.Node) (plan.Node, bool) {
	r, ok := n.(*plan.Reify)
	if !ok {
		return nil, false
	}
	attributes := append(append([]string(nil), r.Keys...), r.Attributes...)
	return &plan.Distinct{
		Child:      &plan.Project{Child: r.Child, Projection: attributeItems(r.Keys, r.Attributes)},
		Attributes: attributes,
	}, true
}

func applyReifySub(n plan.Node) (plan.Node, bool) {
	r, ok := n.(*plan.ReifySub)
	if !ok {
		return nil, false
	}
	if len(r.Attributes) == 0 {
		return &plan.Nil{}, true
	}
	items := []plan.ProjectionItem{plan.Introspect{Fn: util.IntrospectKey}}
	items = append(items, attributeItems(r.Attributes)...)
	return &plan.Project{Child: r.Child, Projection: items}, true
}

func applyAtomize(n plan.Node) (plan.Node, bool) {
	a, ok := n.(*plan.Atomize)
	if !ok {
		return nil, false
	}
	if a.Attribute == "" {
		return &plan.Nil{}, true
	}
	return &plan.Unnest{
		Child:     &plan.ReifySub{Child: a.Child, Attributes: []string{a.Attribute}},
		Fn:        a.Unnest,
		Attribute: a.Attribute,
	}, true
}

func applyDomainify(n plan.Node) (plan.Node, bool) {
	d, ok := n.(*plan.Domainify)
	if !ok {
		return nil, false
	}
	return &plan.Deduplicate{
		Child: &plan.Rename{
			Child:   &plan.Project{Child: d.Child, Projection: attributeItems([]string{d.Attribute})},
			Renames: []plan.AttributeAlias{{Name: d.Attribute, Alias: "name"}},
		},
		Attributes: []string{"name"},
		Similarity: d.Similarity,
		Grouping:   d.Grouping,
	}, true
}

func applyCanonicalize(n plan.Node) (plan.Node, bool) {
	c, ok := n.(*plan.Canonicalize)
	if !ok {
		return nil, false
	}
	return &plan.Nest{
		Child: &plan.Rename{
			Child: &plan.Project{Child: c.Child, Projection: attributeItems([]string{c.Attribute})},
			Renames: []plan.AttributeAlias{
				{Name: c.Attribute, Alias: "name"},
				{Name: c.Attribute, Alias: "synonyms"},
			},
		},
		Grouping:   []string{"name"},
		Nesting:    []string{"synonyms"},
		Similarity: c.Similarity,
		GroupingFn: c.Grouping,
	}, true
}

func applyAlign(n plan.Node) (plan.Node, bool) {
	a, ok := n.(*plan.Align)
	if !ok {
		return nil, false
	}
	joined := &plan.SimilarityJoin{
		Left:  a.Child,
		Right: &plan.Project{Child: a.Domain, Projection: attributeItems([]string{"name", "synonyms"})},
		Condition: plan.Similar{
			Attribute:  a.Attribute,
			Domain:     "name",
			Synonyms:   "synonyms",
			Similarity: a.Similarity,
			Grouping:   a.Grouping,
		},
	}
	return &plan.Rename{
		Child: &plan.Project{
			Child: joined,
			Projection: []plan.ProjectionItem{
				plan.AllAttributes{},
				plan.AttributeDrop{Name: a.Attribute},
				plan.AttributeDrop{Name: "synonyms"},
			},
		},
		Renames: []plan.AttributeAlias{{Name: "name", Alias: a.Attribute}},
	}, true
}

func applyTagify(n plan.Node) (plan.Node, bool) {
	t, ok := n.(*plan.Tagify)
	if !ok {
		return nil, false
	}
	return &plan.Align{
		Domain:     t.Domain,
		Child:      &plan.Atomize{Child: t.Child, Unnest: t.Unnest, Attribute: t.Attribute},
		Attribute:  t.Attribute,
		Similarity: t.Similarity,
		Grouping:   t.Grouping,
	}, true
}
