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

package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnSetOrderAndLookup(t *testing.T) {
	var cs ColumnSet
	cs.Append(Column{Name: "id", Type: Text})
	cs.Append(Column{Name: "species", Type: Text})
	cs.Append(Column{Name: "anatomy", Type: Text})

	assert.Equal(t, 3, cs.Len())
	assert.Equal(t, []string{"id", "species", "anatomy"}, cs.Names())
	assert.True(t, cs.Has("species"))
	assert.Nil(t, cs.Get("organism"))
	require.NotNil(t, cs.Get("anatomy"))
}

func TestColumnSetRenameInPlace(t *testing.T) {
	var cs ColumnSet
	cs.Append(Column{Name: "id", Type: Text})
	cs.Append(Column{Name: "species", Type: Text})

	cs.Get("species").Name = "organism"
	cs.Reindex()

	assert.False(t, cs.Has("species"))
	assert.True(t, cs.Has("organism"))
	// insertion order is preserved across the rename
	assert.Equal(t, []string{"id", "organism"}, cs.Names())
}

func TestColumnSetDrop(t *testing.T) {
	var cs ColumnSet
	cs.Append(Column{Name: "a"})
	cs.Append(Column{Name: "b"})
	cs.Append(Column{Name: "c"})

	cs.Drop("b")
	assert.Equal(t, []string{"a", "c"}, cs.Names())
	assert.Nil(t, cs.Get("b"))

	// dropping an absent column is a no-op
	cs.Drop("b")
	assert.Equal(t, 2, cs.Len())
}

func TestColumnSetCloneIsIndependent(t *testing.T) {
	var cs ColumnSet
	cs.Append(Column{Name: "id"})
	clone := cs.Clone()
	clone.Get("id").Name = "key"
	clone.Reindex()

	assert.True(t, cs.Has("id"))
	assert.False(t, cs.Has("key"))
}

func TestTableCloneIsDeep(t *testing.T) {
	table := NewTable("specimen", Column{Name: "id"}, Column{Name: "species"})
	table.Keys = []Key{{UniqueColumns: []string{"id"}}}
	table.ForeignKeys = []ForeignKey{{
		ForeignKeyColumns: []string{"species"},
		ReferencedTable:   "species",
		ReferencedColumns: []string{"name"},
	}}

	clone := table.Clone()
	clone.Keys[0].UniqueColumns[0] = "other"
	clone.ForeignKeys[0].ReferencedTable = "renamed"
	clone.Columns.Get("id").Name = "key"

	assert.Equal(t, "id", table.Keys[0].UniqueColumns[0])
	assert.Equal(t, "species", table.ForeignKeys[0].ReferencedTable)
	assert.True(t, table.Columns.Has("id"))
}

func TestMinimalKey(t *testing.T) {
	table := NewTable("t")
	assert.Nil(t, table.MinimalKey())

	table.Keys = []Key{
		{UniqueColumns: []string{"a", "b"}},
		{UniqueColumns: []string{"id"}},
	}
	require.NotNil(t, table.MinimalKey())
	assert.Equal(t, []string{"id"}, table.MinimalKey().UniqueColumns)
}

func TestRenameRow(t *testing.T) {
	row := Row{"species": "Mus musculus", "id": "1"}
	out := RenameRow(row, map[string]string{"organism": "species"}, false)
	assert.Equal(t, Row{"organism": "Mus musculus", "id": "1"}, out)
	// input row untouched
	assert.Contains(t, row, "species")
}

func TestRenameRowSwap(t *testing.T) {
	row := Row{"a": 1, "b": 2}
	out := RenameRow(row, map[string]string{"a": "b", "b": "a"}, false)
	assert.Equal(t, Row{"a": 2, "b": 1}, out)
}

func TestRenameRowFanOut(t *testing.T) {
	row := Row{"species": "Danio rerio"}
	out := RenameRow(row, map[string]string{"name": "species", "synonyms": "species"}, false)
	assert.Equal(t, Row{"name": "Danio rerio", "synonyms": "Danio rerio"}, out)
}

func TestRenameRowEmpty(t *testing.T) {
	row := Row{"a": 1}
	same := RenameRow(row, nil, false)
	copied := RenameRow(row, nil, true)
	assert.Equal(t, row, same)
	assert.Equal(t, row, copied)
	copied["a"] = 2
	assert.Equal(t, 1, row["a"])
}

func TestArrayType(t *testing.T) {
	assert.Equal(t, "text[]", ArrayType(Text))
}

func TestNewComputedNameUnique(t *testing.T) {
	a, b := NewComputedName(), NewComputedName()
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}
