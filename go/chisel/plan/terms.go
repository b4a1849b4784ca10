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

//
// Terms, operands and parameters carried by plan nodes.
//

// ProjectionItem is one element of a projection list.
type ProjectionItem interface {
	projectionItem()
}

// Attribute projects an attribute by name.
type Attribute string

// AttributeAlias projects an attribute under a new name.
type AttributeAlias struct {
	Name  string
	Alias string
}

// AttributeDrop removes a single attribute from a projection.
type AttributeDrop struct {
	Name string
}

// AttributeAdd adds a new attribute in a projection. Definition is a JSON
// column definition understood by the backend.
type AttributeAdd struct {
	Definition string
}

// AllAttributes marks projection of every child attribute.
type AllAttributes struct{}

// Introspect projects the attributes returned by an introspection function
// applied to the child's description at physical planning time.
type Introspect struct {
	Fn *IntrospectFunc
}

func (Attribute) projectionItem()     {}
func (AttributeAlias) projectionItem() {}
func (AttributeDrop) projectionItem() {}
func (AttributeAdd) projectionItem()  {}
func (AllAttributes) projectionItem() {}
func (Introspect) projectionItem()    {}

// Formula is a selection predicate: a single comparison or a conjunction of
// comparisons.
type Formula interface {
	formula()
}

// Comparison compares an attribute against a literal.
type Comparison struct {
	Operand1 string
	Operator string
	Operand2 string
}

// Conjunction is the logical AND of comparisons.
type Conjunction struct {
	Comparisons []Comparison
}

func (Comparison) formula()  {}
func (Conjunction) formula() {}

// And combines this comparison with another comparison or conjunction.
func (c Comparison) And(other Formula) Conjunction {
	return conjoin(Conjunction{Comparisons: []Comparison{c}}, other)
}

// And combines this conjunction with another comparison or conjunction.
func (c Conjunction) And(other Formula) Conjunction {
	return conjoin(c, other)
}

func conjoin(left Conjunction, right Formula) Conjunction {
	comparisons := append([]Comparison(nil), left.Comparisons...)
	switch r := right.(type) {
	case Comparison:
		comparisons = append(comparisons, r)
	case Conjunction:
		comparisons = append(comparisons, r.Comparisons...)
	}
	return Conjunction{Comparisons: comparisons}
}

// Comparisons flattens a formula into its list of comparisons. A nil formula
// yields nil.
func Comparisons(f Formula) []Comparison {
	switch f := f.(type) {
	case Comparison:
		return []Comparison{f}
	case Conjunction:
		return f.Comparisons
	}
	return nil
}

// Similar is the condition of a similarity join: the left attribute is
// matched against the right relation's domain attribute and its synonyms.
type Similar struct {
	Attribute  string
	Domain     string
	Synonyms   string
	Similarity *SimilarityFunc
	Grouping   *GroupingFunc
}
