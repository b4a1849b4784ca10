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

import "github.com/informatics-isi-edu/chisel/go/rel"

// Plan nodes may carry opaque function references: similarity measures,
// candidate grouping functions, unnesting generators and schema introspection
// functions. Each is wrapped in a named struct and passed by pointer, so two
// nodes compare equal only when they reference the very same function value.
// This mirrors structural equality on the rest of the node fields.

// SimilarityFunc measures the distance between two attribute values or value
// tuples. The result is in [0, 1]: 0 is an exact match and 1 is the reserved
// "no match" sentinel.
type SimilarityFunc struct {
	Name string
	Fn   func(a, b any) float64
}

// GroupingFunc partitions candidate values before similarity comparison. It
// must produce the same final grouping as the unrestricted quadratic
/// comparison, only faster: values in different partitions are never compared.
type GroupingFunc struct {
	Name string
	Fn   func(value any) string
}

// UnnestFunc produces the atoms of a non-atomic attribute value. It may
// return no atoms.
type UnnestFunc struct {
	Name string
	Fn   func(value any) []any
}

// IntrospectFunc derives a list of attribute names from a relation
// description at physical planning time, e.g. minimal-key discovery.
type IntrospectFunc struct {
	Name string
	Fn   func(t *rel.Table) []string
}
