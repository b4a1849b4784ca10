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

// Package util provides the default pluggable functions of the planner:
// string splitting for unnesting, edit-distance similarity, and minimal-key
// introspection.
package util

import (
	"fmt"
	"strings"

	"github.com/informatics-isi-edu/chisel/go/chisel/log"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Splitter returns an unnesting function that splits a string value on delim
// and yields the whitespace-trimmed parts. Nil and empty values yield no
// atoms.
func Splitter(delim string) *plan.UnnestFunc {
	return &plan.UnnestFunc{
		Name: fmt.Sprintf("split(%q)", delim),
		Fn: func(value any) []any {
			s, ok := value.(string)
			if !ok || s == "" {
				return nil
			}
			parts := strings.Split(s, delim)
			atoms := make([]any, len(parts))
			for i, part := range parts {
				atoms[i] = strings.TrimSpace(part)
			}
			return atoms
		},
	}
}

// IntrospectKey derives the minimal key of a relation: the key with the
// fewest columns. Relations without keys yield no attributes.
var IntrospectKey = &plan.IntrospectFunc{
	Name: "introspect_key",
	Fn: func(t *rel.Table) []string {
		key := t.MinimalKey()
		if key == nil {
			log.Warningf("relation %q does not have any keys; cannot determine minimum key", t.Name)
			return nil
		}
		return append([]string(nil), key.UniqueColumns...)
	},
}

// DefaultDistanceThreshold is the cutoff above which EditDistance declares
// no match.
const DefaultDistanceThreshold = 0.2

// EditDistance is the default similarity function: edit distance normalized
// by the combined value length, averaged across tuple positions, cut off at
// DefaultDistanceThreshold.
var EditDistance = EditDistanceWithThreshold(DefaultDistanceThreshold)

// EditDistanceWithThreshold returns an edit-distance similarity function with
// the given no-match cutoff in [0, 1].
func EditDistanceWithThreshold(threshold float64) *plan.SimilarityFunc {
	if threshold < 0 || threshold > 1 {
		panic("threshold not in [0.0, 1.0]")
	}
	return &plan.SimilarityFunc{
		Name: fmt.Sprintf("edit_distance(%.2f)", threshold),
		Fn: func(a, b any) float64 {
			tuple1, tuple2 := asTuple(a), asTuple(b)
			if len(tuple1) != len(tuple2) {
				return 1.0
			}
			var sum float64
			for i, value1 := range tuple1 {
				value2 := tuple2[i]
				s1, s2 := asString(value1), asString(value2)
				switch {
				case s1 == "" && s2 == "":
					// both empty counts as an exact match
				case s1 == "" || s2 == "":
					sum += 1.0
				default:
					sum += float64(levenshtein(s1, s2)) / float64(len(s1)+len(s2))
				}
			}
			avg := sum / float64(len(tuple1))
			if avg <= threshold {
				return avg
			}
			return 1.0
		},
	}
}

func asTuple(v any) []any {
	if tuple, ok := v.([]any); ok {
		return tuple
	}
	return []any{v}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
