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

package plan

import (
	"fmt"
	"hash/fnv"
	"io"
)

// Equal reports structural equality of two plan expressions. Literal fields
// compare by value, child nodes recursively, and opaque references (extant
// sources, temp vars, function wrappers) by identity.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Extant:
		b, ok := b.(*Extant)
		return ok && a.Source == b.Source && a.Schema == b.Schema && a.Table == b.Table
	case *TabularScan:
		b, ok := b.(*TabularScan)
		return ok && a.Filename == b.Filename
	case *JSONScan:
		b, ok := b.(*JSONScan)
		return ok && a.Filename == b.Filename && a.Content == b.Content &&
			a.Payload == b.Payload && a.KeyRegex == b.KeyRegex
	case *Shred:
		b, ok := b.(*Shred)
		return ok && a.Graph == b.Graph && a.Query == b.Query
	case *TempVar:
		b, ok := b.(*TempVar)
		return ok && a.Var == b.Var
	case *Assign:
		b, ok := b.(*Assign)
		return ok && a.Schema == b.Schema && a.Table == b.Table && Equal(a.Child, b.Child)
	case *Project:
		b, ok := b.(*Project)
		return ok && equalProjection(a.Projection, b.Projection) && Equal(a.Child, b.Child)
	case *Select:
		b, ok := b.(*Select)
		return ok && EqualFormula(a.Formula, b.Formula) && Equal(a.Child, b.Child)
	case *Rename:
		b, ok := b.(*Rename)
		return ok && equalAliases(a.Renames, b.Renames) && Equal(a.Child, b.Child)
	case *Distinct:
		b, ok := b.(*Distinct)
		return ok && equalStrings(a.Attributes, b.Attributes) && Equal(a.Child, b.Child)
	case *Deduplicate:
		b, ok := b.(*Deduplicate)
		return ok && equalStrings(a.Attributes, b.Attributes) &&
			a.Similarity == b.Similarity && a.Grouping == b.Grouping && Equal(a.Child, b.Child)
	case *Nest:
		b, ok := b.(*Nest)
		return ok && equalStrings(a.Grouping, b.Grouping) && equalStrings(a.Nesting, b.Nesting) &&
			a.Similarity == b.Similarity && a.GroupingFn == b.GroupingFn && Equal(a.Child, b.Child)
	case *Join:
		b, ok := b.(*Join)
		return ok && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *Union:
		b, ok := b.(*Union)
		return ok && Equal(a.Child, b.Child) && Equal(a.Right, b.Right)
	case *SimilarityJoin:
		b, ok := b.(*SimilarityJoin)
		return ok && a.Condition == b.Condition && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *Unnest:
		b, ok := b.(*Unnest)
		return ok && a.Fn == b.Fn && a.Attribute == b.Attribute && Equal(a.Child, b.Child)
	case *Reify:
		b, ok := b.(*Reify)
		return ok && equalStrings(a.Keys, b.Keys) && equalStrings(a.Attributes, b.Attributes) && Equal(a.Child, b.Child)
	case *ReifySub:
		b, ok := b.(*ReifySub)
		return ok && equalStrings(a.Attributes, b.Attributes) && Equal(a.Child, b.Child)
	case *Atomize:
		b, ok := b.(*Atomize)
		return ok && a.Unnest == b.Unnest && a.Attribute == b.Attribute && Equal(a.Child, b.Child)
	case *Domainify:
		b, ok := b.(*Domainify)
		return ok && a.Attribute == b.Attribute && a.Similarity == b.Similarity &&
			a.Grouping == b.Grouping && Equal(a.Child, b.Child)
	case *Canonicalize:
		b, ok := b.(*Canonicalize)
		return ok && a.Attribute == b.Attribute && a.Similarity == b.Similarity &&
			a.Grouping == b.Grouping && Equal(a.Child, b.Child)
	case *Align:
		b, ok := b.(*Align)
		return ok && a.Attribute == b.Attribute && a.Similarity == b.Similarity &&
			a.Grouping == b.Grouping && Equal(a.Domain, b.Domain) && Equal(a.Child, b.Child)
	case *Tagify:
		b, ok := b.(*Tagify)
		return ok && a.Attribute == b.Attribute && a.Unnest == b.Unnest &&
			a.Similarity == b.Similarity && a.Grouping == b.Grouping &&
			Equal(a.Domain, b.Domain) && Equal(a.Child, b.Child)
	}
	return false
}

// EqualFormula reports equality of two selection formulas.
func EqualFormula(a, b Formula) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a := a.(type) {
	case Comparison:
		b, ok := b.(Comparison)
		return ok && a == b
	case Conjunction:
		b, ok := b.(Conjunction)
		if !ok || len(a.Comparisons) != len(b.Comparisons) {
			return false
		}
		for i := range a.Comparisons {
			if a.Comparisons[i] != b.Comparisons[i] {
				return false
			}
		}
		return true
	}
	return false
}

func equalProjection(a, b []ProjectionItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalAliases(a, b []AttributeAlias) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash returns a structural hash consistent with Equal: structurally equal
// expressions hash identically. Opaque references hash by a constant tag;
// the probe-table pattern at call sites resolves any collisions with Equal.
func Hash(n Node) uint64 {
	h := fnv.New64a()
	hashNode(h, n)
	return h.Sum64()
}

func hashNode(w io.Writer, n Node) {
	if n == nil {
		fmt.Fprint(w, "<nil>")
		return
	}
	switch n := n.(type) {
	case *Nil:
		fmt.Fprint(w, "Nil()")
	case *Extant:
		fmt.Fprintf(w, "Extant(%s,%s)", n.Schema, n.Table)
	case *TabularScan:
		fmt.Fprintf(w, "TabularScan(%s)", n.Filename)
	case *JSONScan:
		fmt.Fprintf(w, "JSONScan(%s,%s,%p,%s)", n.Filename, n.Content, n.Payload, n.KeyRegex)
	case *Shred:
		fmt.Fprintf(w, "Shred(%s,%s)", n.Graph, n.Query)
	case *TempVar:
		fmt.Fprint(w, "TempVar()")
	case *Assign:
		fmt.Fprintf(w, "Assign(%s,%s,", n.Schema, n.Table)
		hashNode(w, n.Child)
		fmt.Fprint(w, ")")
	case *Project:
		fmt.Fprint(w, "Project(")
		hashNode(w, n.Child)
		hashProjection(w, n.Projection)
		fmt.Fprint(w, ")")
	case *Select:
		fmt.Fprint(w, "Select(")
		hashNode(w, n.Child)
		hashFormula(w, n.Formula)
		fmt.Fprint(w, ")")
	case *Rename:
		fmt.Fprint(w, "Rename(")
		hashNode(w, n.Child)
		for _, r := range n.Renames {
			fmt.Fprintf(w, ",%s->%s", r.Name, r.Alias)
		}
		fmt.Fprint(w, ")")
	case *Distinct:
		fmt.Fprint(w, "Distinct(")
		hashNode(w, n.Child)
		hashStrings(w, n.Attributes)
		fmt.Fprint(w, ")")
	case *Deduplicate:
		fmt.Fprint(w, "Deduplicate(")
		hashNode(w, n.Child)
		hashStrings(w, n.Attributes)
		fmt.Fprintf(w, ",%p,%p)", n.Similarity, n.Grouping)
	case *Nest:
		fmt.Fprint(w, "Nest(")
		hashNode(w, n.Child)
		hashStrings(w, n.Grouping)
		hashStrings(w, n.Nesting)
		fmt.Fprintf(w, ",%p,%p)", n.Similarity, n.GroupingFn)
	case *Join:
		fmt.Fprint(w, "Join(")
		hashNode(w, n.Left)
		fmt.Fprint(w, ",")
		hashNode(w, n.Right)
		fmt.Fprint(w, ")")
	case *Union:
		fmt.Fprint(w, "Union(")
		hashNode(w, n.Child)
		fmt.Fprint(w, ",")
		hashNode(w, n.Right)
		fmt.Fprint(w, ")")
	case *SimilarityJoin:
		fmt.Fprint(w, "SimilarityJoin(")
		hashNode(w, n.Left)
		fmt.Fprint(w, ",")
		hashNode(w, n.Right)
		fmt.Fprintf(w, ",%s,%s,%s,%p,%p)", n.Condition.Attribute, n.Condition.Domain,
			n.Condition.Synonyms, n.Condition.Similarity, n.Condition.Grouping)
	case *Unnest:
		fmt.Fprint(w, "Unnest(")
		hashNode(w, n.Child)
		fmt.Fprintf(w, ",%p,%s)", n.Fn, n.Attribute)
	case *Reify:
		fmt.Fprint(w, "Reify(")
		hashNode(w, n.Child)
		hashStrings(w, n.Keys)
		hashStrings(w, n.Attributes)
		fmt.Fprint(w, ")")
	case *ReifySub:
		fmt.Fprint(w, "ReifySub(")
		hashNode(w, n.Child)
		hashStrings(w, n.Attributes)
		fmt.Fprint(w, ")")
	case *Atomize:
		fmt.Fprint(w, "Atomize(")
		hashNode(w, n.Child)
		fmt.Fprintf(w, ",%p,%s)", n.Unnest, n.Attribute)
	case *Domainify:
		fmt.Fprint(w, "Domainify(")
		hashNode(w, n.Child)
		fmt.Fprintf(w, ",%s,%p,%p)", n.Attribute, n.Similarity, n.Grouping)
	case *Canonicalize:
		fmt.Fprint(w, "Canonicalize(")
		hashNode(w, n.Child)
		fmt.Fprintf(w, ",%s,%p,%p)", n.Attribute, n.Similarity, n.Grouping)
	case *Align:
		fmt.Fprint(w, "Align(")
		hashNode(w, n.Domain)
		fmt.Fprint(w, ",")
		hashNode(w, n.Child)
		fmt.Fprintf(w, ",%s,%p,%p)", n.Attribute, n.Similarity, n.Grouping)
	case *Tagify:
		fmt.Fprint(w, "Tagify(")
		hashNode(w, n.Domain)
		fmt.Fprint(w, ",")
		hashNode(w, n.Child)
		fmt.Fprintf(w, ",%s,%p,%p,%p)", n.Attribute, n.Unnest, n.Similarity, n.Grouping)
	}
}

func hashProjection(w io.Writer, items []ProjectionItem) {
	for _, item := range items {
		switch item := item.(type) {
		case Attribute:
			fmt.Fprintf(w, ",%s", string(item))
		case AttributeAlias:
			fmt.Fprintf(w, ",%s->%s", item.Name, item.Alias)
		case AttributeDrop:
			fmt.Fprintf(w, ",-%s", item.Name)
		case AttributeAdd:
			fmt.Fprintf(w, ",+%s", item.Definition)
		case AllAttributes:
			fmt.Fprint(w, ",*")
		case Introspect:
			fmt.Fprintf(w, ",fn:%p", item.Fn)
		}
	}
}

func hashFormula(w io.Writer, f Formula) {
	for _, cmp := range Comparisons(f) {
		fmt.Fprintf(w, ",%s%s%s", cmp.Operand1, cmp.Operator, cmp.Operand2)
	}
}

func hashStrings(w io.Writer, ss []string) {
	for _, s := range ss {
		fmt.Fprintf(w, ",%s", s)
	}
}
