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

// Package plan defines the symbol set of the logical planner: the closed set
// of tagged-variant nodes that form logical plan expressions, and the terms
// (projection items, formulas, similarity conditions) they carry.
//
// Nodes are pure data. They are never mutated once built; the rewrite rules
// in the planner package always produce new nodes. Equality and hashing are
// structural (see Equal and Hash), which is what makes batch consolidation by
// identity-of-structure possible.
package plan

// Node is a logical plan expression. The set of implementations is closed;
// the planner's rewriters and the physical lowering switch exhaustively over
// it.
type Node interface {
	node()
}

//
// Extants and scans
//

// Nil is the empty relation.
type Nil struct{}

// Extant references a table resident in a backing catalog. Source is an
// opaque, comparable handle supplied by the backend; physical lowering
// type-asserts it against the engine's scanner capability interfaces.
type Extant struct {
	Source any
	Schema string
	Table  string
}

// TabularScan reads a delimited data file (CSV, TSV).
type TabularScan struct {
	Filename string
}

// ObjectPayload is an in-memory list of objects handed directly to a JSON
// scan. It is referenced by pointer so that plans carrying payloads still
// compare structurally.
type ObjectPayload []map[string]any

// JSONScan reads a JSON document: a list of objects from a file, an inline
// text payload, or an in-memory object payload. Column names matching
// KeyRegex are guessed to be keys during introspection.
type JSONScan struct {
	Filename string
	Content  string
	Payload  *ObjectPayload
	KeyRegex string
}

// Shred flattens graph data into rows by evaluating a triple-pattern query
// against the graph file.
type Shred struct {
	Graph string
	Query string
}

// TempVar references a previously computed, buffered relation installed by
// the batch consolidator. Var is asserted to engine.Relation at lowering.
type TempVar struct {
	Var any
}

//
// Primitive operators
//

// Assign names the child relation as schema.table; the commit step turns it
// into the backend mutation.
type Assign struct {
	Child  Node
	Schema string
	Table  string
}

// Project computes a new column set from the child.
type Project struct {
	Child      Node
	Projection []ProjectionItem
}

// Select filters the child by an equality formula.
type Select struct {
	Child   Node
	Formula Formula
}

// Rename substitutes column names in the child.
type Rename struct {
	Child   Node
	Renames []AttributeAlias
}

// Distinct reduces the child to rows distinct on the given attributes.
type Distinct struct {
	Child      Node
	Attributes []string
}

// Deduplicate reduces the child to fuzzily distinct rows: values whose
// similarity distance is below the no-match sentinel fall into one group.
type Deduplicate struct {
	Child      Node
	Attributes []string
	Similarity *SimilarityFunc
	Grouping   *GroupingFunc
}

// Nest groups the child rows fuzzily on the grouping attributes and collects
// the nesting attribute's values into a list per group.
type Nest struct {
	Child      Node
	Grouping   []string
	Nesting    []string
	Similarity *SimilarityFunc
	GroupingFn *GroupingFunc
}

// Join is the cross join of two relations.
type Join struct {
	Left  Node
	Right Node
}

// Union concatenates the child and right relations.
type Union struct {
	Child Node
	Right Node
}

// SimilarityJoin joins left rows to their best fuzzy match in the right
// relation under the given condition.
type SimilarityJoin struct {
	Left      Node
	Right     Node
	Condition Similar
}

// Unnest replaces one attribute with the atoms produced by Fn, one output row
// per atom.
type Unnest struct {
	Child     Node
	Fn        *UnnestFunc
	Attribute string
}

//
// Composite operators, expanded into primitives by the composition rules
//

// Reify decomposes the child into a new relation keyed by Keys and carrying
// Attributes, deduplicating rows that agree on the union.
type Reify struct {
	Child      Node
	Keys       []string
	Attributes []string
}

// ReifySub decomposes a sub-concept: the child's minimal key plus Attributes.
type ReifySub struct {
	Child      Node
	Attributes []string
}

// Atomize unnests an attribute of the child's reified sub-concept.
type Atomize struct {
	Child     Node
	Unnest    *UnnestFunc
	Attribute string
}

// Domainify derives a deduplicated value domain from one attribute.
type Domainify struct {
	Child      Node
	Attribute  string
	Similarity *SimilarityFunc
	Grouping   *GroupingFunc
}

// Canonicalize derives a vocabulary: canonical values plus clustered
// synonyms, from one attribute.
type Canonicalize struct {
	Child      Node
	Attribute  string
	Similarity *SimilarityFunc
	Grouping   *GroupingFunc
}

// Align replaces an attribute's values with their best matches in a domain
// or vocabulary relation.
type Align struct {
	Domain     Node
	Child      Node
	Attribute  string
	Similarity *SimilarityFunc
	Grouping   *GroupingFunc
}

// Tagify atomizes an attribute and aligns the atoms with a domain.
type Tagify struct {
	Domain     Node
	Child      Node
	Attribute  string
	Unnest     *UnnestFunc
	Similarity *SimilarityFunc
	Grouping   *GroupingFunc
}

func (*Nil) node()            {}
func (*Extant) node()         {}
func (*TabularScan) node()    {}
func (*JSONScan) node()       {}
func (*Shred) node()          {}
func (*TempVar) node()        {}
func (*Assign) node()         {}
func (*Project) node()        {}
func (*Select) node()         {}
func (*Rename) node()         {}
func (*Distinct) node()       {}
func (*Deduplicate) node()    {}
func (*Nest) node()           {}
func (*Join) node()           {}
func (*Union) node()          {}
func (*SimilarityJoin) node() {}
func (*Unnest) node()         {}
func (*Reify) node()          {}
func (*ReifySub) node()       {}
func (*Atomize) node()        {}
func (*Domainify) node()      {}
func (*Canonicalize) node()   {}
func (*Align) node()          {}
func (*Tagify) node()         {}
