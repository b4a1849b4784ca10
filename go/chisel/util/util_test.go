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

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/informatics-isi-edu/chisel/go/rel"
)

func TestSplitter(t *testing.T) {
	split := Splitter(",")
	assert.Equal(t, []any{"liver", "heart"}, split.Fn("liver, heart"))
	assert.Equal(t, []any{"liver"}, split.Fn("liver"))
	assert.Nil(t, split.Fn(""))
	assert.Nil(t, split.Fn(nil))
	assert.Nil(t, split.Fn(42))
}

func TestSplitterCustomDelimiter(t *testing.T) {
	split := Splitter(";")
	assert.Equal(t, []any{"a", "b", "c"}, split.Fn("a; b ;c"))
}

func TestEditDistance(t *testing.T) {
	fn := EditDistance.Fn
	assert.Equal(t, 0.0, fn("Mus musculus", "Mus musculus"))
	assert.InDelta(t, 1.0/24.0, fn("Mus musculus", "mus musculus"), 1e-9)

	// distances above the threshold collapse to no-match
	assert.Equal(t, 1.0, fn("Mus musculus", "Danio rerio"))
	assert.Equal(t, 1.0, fn("Mus musculus", nil))
	assert.Equal(t, 0.0, fn(nil, nil))
}

func TestEditDistanceTuples(t *testing.T) {
	fn := EditDistance.Fn
	assert.Equal(t, 0.0, fn([]any{"a", "b"}, []any{"a", "b"}))
	// tuples of different width never match
	assert.Equal(t, 1.0, fn([]any{"a"}, []any{"a", "b"}))
}

func TestEditDistanceWithThreshold(t *testing.T) {
	strict := EditDistanceWithThreshold(0.01)
	assert.Equal(t, 1.0, strict.Fn("Mus musculus", "mus musculus"))

	loose := EditDistanceWithThreshold(0.5)
	assert.InDelta(t, 1.0/24.0, loose.Fn("Mus musculus", "mus musculus"), 1e-9)

	assert.Panics(t, func() { EditDistanceWithThreshold(1.5) })
}

func TestIntrospectKey(t *testing.T) {
	table := rel.NewTable("specimen",
		rel.Column{Name: "id"},
		rel.Column{Name: "site"},
		rel.Column{Name: "accession"},
	)
	table.Keys = []rel.Key{
		{UniqueColumns: []string{"site", "accession"}},
		{UniqueColumns: []string{"id"}},
	}
	require.NotNil(t, IntrospectKey.Fn)
	assert.Equal(t, []string{"id"}, IntrospectKey.Fn(table))
}

func TestIntrospectKeyNoKeys(t *testing.T) {
	table := rel.NewTable("heap", rel.Column{Name: "v"})
	assert.Nil(t, IntrospectKey.Fn(table))
}
