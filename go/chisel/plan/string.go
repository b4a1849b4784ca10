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
	"strings"
)

// String renders a plan expression as a one-line symbolic term, mainly for
// logs and dry-run output.
func String(n Node) string {
	var sb strings.Builder
	render(&sb, n)
	return sb.String()
}

func render(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Nil:
		sb.WriteString("Nil()")
	case *Extant:
		fmt.Fprintf(sb, "Extant(%s.%s)", n.Schema, n.Table)
	case *TabularScan:
		fmt.Fprintf(sb, "TabularScan(%q)", n.Filename)
	case *JSONScan:
		fmt.Fprintf(sb, "JSONScan(%q)", n.Filename)
	case *Shred:
		fmt.Fprintf(sb, "Shred(%q, %q)", n.Graph, n.Query)
	case *TempVar:
		sb.WriteString("TempVar()")
	case *Assign:
		fmt.Fprintf(sb, "Assign(%s, %s.%s)", String(n.Child), n.Schema, n.Table)
	case *Project:
		fmt.Fprintf(sb, "Project(%s, %s)", String(n.Child), renderProjection(n.Projection))
	case *Select:
		fmt.Fprintf(sb, "Select(%s, %s)", String(n.Child), renderFormula(n.Formula))
	case *Rename:
		parts := make([]string, len(n.Renames))
		for i, r := range n.Renames {
			parts[i] = r.Name + "->" + r.Alias
		}
		fmt.Fprintf(sb, "Rename(%s, [%s])", String(n.Child), strings.Join(parts, ", "))
	case *Distinct:
		fmt.Fprintf(sb, "Distinct(%s, [%s])", String(n.Child), strings.Join(n.Attributes, ", "))
	case *Deduplicate:
		fmt.Fprintf(sb, "Deduplicate(%s, [%s], %s, %s)", String(n.Child),
			strings.Join(n.Attributes, ", "), fnName(n.Similarity), fnName(n.Grouping))
	case *Nest:
		fmt.Fprintf(sb, "Nest(%s, [%s], [%s], %s, %s)", String(n.Child),
			strings.Join(n.Grouping, ", "), strings.Join(n.Nesting, ", "),
			fnName(n.Similarity), fnName(n.GroupingFn))
	case *Join:
		fmt.Fprintf(sb, "Join(%s, %s)", String(n.Left), String(n.Right))
	case *Union:
		fmt.Fprintf(sb, "Union(%s, %s)", String(n.Child), String(n.Right))
	case *SimilarityJoin:
		fmt.Fprintf(sb, "SimilarityJoin(%s, %s, Similar(%s, %s, %s, %s, %s))",
			String(n.Left), String(n.Right), n.Condition.Attribute, n.Condition.Domain,
			n.Condition.Synonyms, fnName(n.Condition.Similarity), fnName(n.Condition.Grouping))
	case *Unnest:
		fmt.Fprintf(sb, "Unnest(%s, %s, %s)", String(n.Child), fnName(n.Fn), n.Attribute)
	case *Reify:
		fmt.Fprintf(sb, "Reify(%s, [%s], [%s])", String(n.Child),
			strings.Join(n.Keys, ", "), strings.Join(n.Attributes, ", "))
	case *ReifySub:
		fmt.Fprintf(sb, "ReifySub(%s, [%s])", String(n.Child), strings.Join(n.Attributes, ", "))
	case *Atomize:
		fmt.Fprintf(sb, "Atomize(%s, %s, %s)", String(n.Child), fnName(n.Unnest), n.Attribute)
	case *Domainify:
		fmt.Fprintf(sb, "Domainify(%s, %s, %s, %s)", String(n.Child), n.Attribute,
			fnName(n.Similarity), fnName(n.Grouping))
	case *Canonicalize:
		fmt.Fprintf(sb, "Canonicalize(%s, %s, %s, %s)", String(n.Child), n.Attribute,
			fnName(n.Similarity), fnName(n.Grouping))
	case *Align:
		fmt.Fprintf(sb, "Align(%s, %s, %s, %s, %s)", String(n.Domain), String(n.Child),
			n.Attribute, fnName(n.Similarity), fnName(n.Grouping))
	case *Tagify:
		fmt.Fprintf(sb, "Tagify(%s, %s, %s, %s, %s, %s)", String(n.Domain), String(n.Child),
			n.Attribute, fnName(n.Unnest), fnName(n.Similarity), fnName(n.Grouping))
	default:
		fmt.Fprintf(sb, "%T", n)
	}
}

func renderProjection(items []ProjectionItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		switch item := item.(type) {
		case Attribute:
			parts[i] = string(item)
		case AttributeAlias:
			parts[i] = item.Name + "->" + item.Alias
		case AttributeDrop:
			parts[i] = "-" + item.Name
		case AttributeAdd:
			parts[i] = "+" + item.Definition
		case AllAttributes:
			parts[i] = "*"
		case Introspect:
			parts[i] = fnName(item.Fn)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func renderFormula(f Formula) string {
	if f == nil {
		return "<none>"
	}
	comparisons := Comparisons(f)
	parts := make([]string, len(comparisons))
	for i, cmp := range comparisons {
		parts[i] = fmt.Sprintf("%s%s%q", cmp.Operand1, cmp.Operator, cmp.Operand2)
	}
	return strings.Join(parts, " & ")
}

func fnName(fn any) string {
	switch fn := fn.(type) {
	case *SimilarityFunc:
		if fn != nil {
			return fn.Name
		}
	case *GroupingFunc:
		if fn != nil {
			return fn.Name
		}
	case *UnnestFunc:
		if fn != nil {
			return fn.Name
		}
	case *IntrospectFunc:
		if fn != nil {
			return fn.Name
		}
	}
	return "<none>"
}
