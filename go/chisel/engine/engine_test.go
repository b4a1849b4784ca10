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

package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// valuesOp is a fixed-row source for tests. Every pass replays the same rows.
type valuesOp struct {
	noInputs
	desc *rel.Table
	rows []rel.Row
}

func (v *valuesOp) Description() *rel.Table { return v.desc }

func (v *valuesOp) Rows(context.Context) (RowIterator, error) {
	rows := make([]rel.Row, len(v.rows))
	for i, row := range v.rows {
		rows[i] = rel.CopyRow(row)
	}
	return sliceIterator(rows), nil
}

func values(desc *rel.Table, rows ...rel.Row) *valuesOp {
	return &valuesOp{desc: desc, rows: rows}
}

func speciesDesc() *rel.Table {
	desc := rel.NewTable("samples",
		rel.Column{Name: "id", Type: rel.Text},
		rel.Column{Name: "species", Type: rel.Text},
		rel.Column{Name: "tissue", Type: rel.Text},
	)
	desc.Keys = []rel.Key{{UniqueColumns: []string{"id"}}}
	return desc
}

func speciesRows() []rel.Row {
	return []rel.Row{
		{"id": "1", "species": "Mus musculus", "tissue": "heart, lung"},
		{"id": "2", "species": "Mus musclus", "tissue": "liver"},
		{"id": "3", "species": "Danio rerio", "tissue": "fin"},
	}
}

func TestProject(t *testing.T) {
	ctx := context.Background()
	src := values(speciesDesc(), speciesRows()...)

	t.Run("plain and alias", func(t *testing.T) {
		p, err := NewProject(src, []plan.ProjectionItem{
			plan.Attribute("id"),
			plan.AttributeAlias{Name: "species", Alias: "organism"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "organism"}, p.Description().Columns.Names())
		require.Len(t, p.Description().Keys, 1)
		assert.Equal(t, []string{"id"}, p.Description().Keys[0].UniqueColumns)

		rows, err := Drain(ctx, p)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, rel.Row{"id": "1", "organism": "Mus musculus"}, rows[0])
	})

	t.Run("all attributes with drop", func(t *testing.T) {
		p, err := NewProject(src, []plan.ProjectionItem{
			plan.AllAttributes{},
			plan.AttributeDrop{Name: "tissue"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "species"}, p.Description().Columns.Names())
	})

	t.Run("key dropped when a key column does not survive", func(t *testing.T) {
		p, err := NewProject(src, []plan.ProjectionItem{plan.Attribute("species")})
		require.NoError(t, err)
		assert.Empty(t, p.Description().Keys)
	})

	t.Run("attribute add", func(t *testing.T) {
		p, err := NewProject(src, []plan.ProjectionItem{
			plan.AllAttributes{},
			plan.AttributeAdd{Definition: `{"name": "strain", "type": "text", "default": "wild"}`},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "species", "tissue", "strain"}, p.Description().Columns.Names())

		rows, err := Drain(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "wild", rows[0]["strain"])
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := NewProject(src, []plan.ProjectionItem{plan.Attribute("nope")})
		require.Error(t, err)
		assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
	})

	t.Run("empty projection", func(t *testing.T) {
		_, err := NewProject(src, nil)
		require.Error(t, err)
		assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
	})
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	src := values(speciesDesc(), speciesRows()...)

	s, err := NewSelect(src, plan.Comparison{Operand1: "species", Operator: "=", Operand2: "Danio rerio"})
	require.NoError(t, err)
	rows, err := Drain(ctx, s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0]["id"])

	_, err = NewSelect(src, plan.Comparison{Operand1: "id", Operator: "<", Operand2: "2"})
	require.Error(t, err)
	assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	src := values(speciesDesc(), speciesRows()...)

	t.Run("substitution", func(t *testing.T) {
		r, err := NewRename(src, []plan.AttributeAlias{{Name: "species", Alias: "organism"}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"id", "organism", "tissue"}, r.Description().Columns.Names())

		rows, err := Drain(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, "Mus musculus", rows[0]["organism"])
		assert.NotContains(t, rows[0], "species")
	})

	t.Run("fan out from one source", func(t *testing.T) {
		r, err := NewRename(src, []plan.AttributeAlias{
			{Name: "species", Alias: "name"},
			{Name: "species", Alias: "synonyms"},
		})
		require.NoError(t, err)
		assert.True(t, r.Description().Columns.Has("name"))
		assert.True(t, r.Description().Columns.Has("synonyms"))

		rows, err := Drain(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, rows[0]["name"], rows[0]["synonyms"])
	})

	t.Run("key columns follow the rename", func(t *testing.T) {
		r, err := NewRename(src, []plan.AttributeAlias{{Name: "id", Alias: "sample_id"}})
		require.NoError(t, err)
		require.Len(t, r.Description().Keys, 1)
		assert.Equal(t, []string{"sample_id"}, r.Description().Keys[0].UniqueColumns)
	})
}

func TestHashDistinct(t *testing.T) {
	ctx := context.Background()
	desc := rel.NewTable("t", rel.Column{Name: "a", Type: rel.Text}, rel.Column{Name: "b", Type: rel.Text})
	src := values(desc,
		rel.Row{"a": "x", "b": "1"},
		rel.Row{"a": "y", "b": "2"},
		rel.Row{"a": "x", "b": "3"},
	)
	d, err := NewHashDistinct(src, []string{"a"})
	require.NoError(t, err)
	assert.NotEqual(t, "t", d.Description().Name)

	rows, err := Drain(ctx, d)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// first-seen row wins
	assert.Equal(t, "1", rows[0]["b"])
	assert.Equal(t, "2", rows[1]["b"])
}

func identity() *plan.SimilarityFunc {
	return &plan.SimilarityFunc{Name: "identity", Fn: func(a, b any) float64 {
		if a == b {
			return 0.0
		}
		return 1.0
	}}
}

func TestSimilarityAggregation(t *testing.T) {
	ctx := context.Background()
	desc := rel.NewTable("t", rel.Column{Name: "name", Type: rel.Text}, rel.Column{Name: "syn", Type: rel.Text})
	src := values(desc,
		rel.Row{"name": "mouse", "syn": "Mus musculus"},
		rel.Row{"name": "mouse", "syn": "Mus muscls"},
		rel.Row{"name": "zebrafish", "syn": "Danio rerio"},
		rel.Row{"name": "mouse", "syn": "Mus musculus"},
	)

	t.Run("nesting", func(t *testing.T) {
		a, err := NewSimilarityAggregation(src, []string{"name"}, []string{"syn"}, identity(), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "syn"}, a.Description().Columns.Names())
		assert.Equal(t, rel.ArrayType(rel.Text), a.Description().Columns.Get("syn").Type)

		rows, err := Drain(ctx, a)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "mouse", rows[0]["name"])
		// duplicates are folded, order of first appearance kept
		assert.Equal(t, []any{"Mus musculus", "Mus muscls"}, rows[0]["syn"])
		assert.Equal(t, "zebrafish", rows[1]["name"])
	})

	t.Run("without nesting emits a representative row", func(t *testing.T) {
		a, err := NewSimilarityAggregation(src, []string{"name"}, nil, identity(), nil)
		require.NoError(t, err)
		rows, err := Drain(ctx, a)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "mouse", rows[0]["name"])
	})

	t.Run("grouping function partitions candidates", func(t *testing.T) {
		grp := &plan.GroupingFunc{Name: "first-rune", Fn: func(v any) string {
			s, _ := v.(string)
			if s == "" {
				return ""
			}
			return s[:1]
		}}
		always := &plan.SimilarityFunc{Name: "always", Fn: func(a, b any) float64 { return 0.0 }}
		a, err := NewSimilarityAggregation(src, []string{"name"}, nil, always, grp)
		require.NoError(t, err)
		rows, err := Drain(ctx, a)
		require.NoError(t, err)
		// without the partition every row would collapse into one cluster
		require.Len(t, rows, 2)
	})

	t.Run("contract violations", func(t *testing.T) {
		_, err := NewSimilarityAggregation(src, []string{"name", "syn"}, nil, identity(), nil)
		assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
		_, err = NewSimilarityAggregation(src, []string{"name"}, nil, nil, nil)
		assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
	})
}

func TestUnnest(t *testing.T) {
	ctx := context.Background()
	split := &plan.UnnestFunc{Name: "split", Fn: func(v any) []any {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil
		}
		var atoms []any
		for _, part := range splitComma(s) {
			atoms = append(atoms, part)
		}
		return atoms
	}}
	src := values(speciesDesc(), speciesRows()...)
	u, err := NewUnnest(src, split, "tissue")
	require.NoError(t, err)
	assert.Empty(t, u.Description().Keys)

	rows, err := Drain(ctx, u)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "heart", rows[0]["tissue"])
	assert.Equal(t, "lung", rows[1]["tissue"])
	assert.Equal(t, "1", rows[1]["id"])
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func TestCrossJoin(t *testing.T) {
	ctx := context.Background()
	left := values(rel.NewTable("l", rel.Column{Name: "id", Type: rel.Text}, rel.Column{Name: "v", Type: rel.Text}),
		rel.Row{"id": "1", "v": "a"},
		rel.Row{"id": "2", "v": "b"},
	)
	right := values(rel.NewTable("r", rel.Column{Name: "id", Type: rel.Text}),
		rel.Row{"id": "x"},
	)
	j, err := NewCrossJoin(left, right)
	require.NoError(t, err)
	assert.Equal(t, []string{"l:id", "v", "r:id"}, j.Description().Columns.Names())
	assert.Equal(t, "l_r", j.Description().Name)

	rows, err := Drain(ctx, j)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, rel.Row{"l:id": "1", "v": "a", "r:id": "x"}, rows[0])
}

func TestSimilarityJoin(t *testing.T) {
	ctx := context.Background()
	left := values(speciesDesc(), speciesRows()...)
	domain := values(rel.NewTable("vocab",
		rel.Column{Name: "name", Type: rel.Text},
		rel.Column{Name: "synonyms", Type: rel.ArrayType(rel.Text)}),
		rel.Row{"name": "Mus musculus", "synonyms": []any{"house mouse"}},
		rel.Row{"name": "Danio rerio", "synonyms": []any{"zebrafish"}},
	)
	exact := identity()
	j, err := NewSimilarityJoin(left, domain, plan.Similar{
		Attribute: "species", Domain: "name", Synonyms: "synonyms", Similarity: exact,
	})
	require.NoError(t, err)

	rows, err := Drain(ctx, j)
	require.NoError(t, err)
	// "Mus musclus" has no exact match and is dropped
	require.Len(t, rows, 2)
	assert.Equal(t, "Mus musculus", rows[0]["name"])
	assert.Equal(t, "Danio rerio", rows[1]["name"])

	t.Run("synonym match", func(t *testing.T) {
		lhs := values(rel.NewTable("obs", rel.Column{Name: "species", Type: rel.Text}),
			rel.Row{"species": "zebrafish"})
		j, err := NewSimilarityJoin(lhs, domain, plan.Similar{
			Attribute: "species", Domain: "name", Synonyms: "synonyms", Similarity: exact,
		})
		require.NoError(t, err)
		rows, err := Drain(ctx, j)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Danio rerio", rows[0]["name"])
	})

	t.Run("perfect score ends the scan", func(t *testing.T) {
		calls := 0
		counting := &plan.SimilarityFunc{Name: "identity", Fn: func(a, b any) float64 {
			calls++
			if a == b {
				return 0.0
			}
			return 1.0
		}}
		lhs := values(rel.NewTable("obs", rel.Column{Name: "species", Type: rel.Text}),
			rel.Row{"species": "Mus musculus"})
		j, err := NewSimilarityJoin(lhs, domain, plan.Similar{
			Attribute: "species", Domain: "name", Synonyms: "synonyms", Similarity: counting,
		})
		require.NoError(t, err)
		rows, err := Drain(ctx, j)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		// the first domain name matches exactly; neither its synonyms nor
		// the remaining domain rows are scored
		assert.Equal(t, 1, calls)
	})
}

func TestUnion(t *testing.T) {
	ctx := context.Background()
	desc := rel.NewTable("t", rel.Column{Name: "a", Type: rel.Text})
	desc.Keys = []rel.Key{{UniqueColumns: []string{"a"}}}
	desc.ForeignKeys = []rel.ForeignKey{{
		ForeignKeyColumns: []string{"a"},
		ReferencedSchema:  ".",
		ReferencedTable:   "vocab",
		ReferencedColumns: []string{"name"},
	}}
	u, err := NewUnion(
		values(desc, rel.Row{"a": "1"}, rel.Row{"a": "2"}),
		values(desc.Clone(), rel.Row{"a": "2"}, rel.Row{"a": "3"}),
	)
	require.NoError(t, err)
	assert.Empty(t, u.Description().Keys)
	assert.Empty(t, u.Description().ForeignKeys)

	rows, err := Drain(ctx, u)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "1", rows[0]["a"])
	assert.Equal(t, "3", rows[3]["a"])

	_, err = NewUnion(values(desc), values(rel.NewTable("o", rel.Column{Name: "b", Type: rel.Text})))
	require.Error(t, err)
	assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
}

func TestBuffered(t *testing.T) {
	ctx := context.Background()

	// countingOp counts passes over its rows
	passes := 0
	desc := rel.NewTable("t", rel.Column{Name: "a", Type: rel.Text})
	src := &passCounter{desc: desc, passes: &passes}

	b := NewBuffered(src)
	rows, err := Drain(ctx, b)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, passes)

	rows, err = Drain(ctx, b)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, passes, "second drain replays the buffer")

	t.Run("re-entry mid-drain", func(t *testing.T) {
		b := NewBuffered(&passCounter{desc: desc, passes: new(int)})
		it, err := b.Rows(ctx)
		require.NoError(t, err)
		_, err = it.Next()
		require.NoError(t, err)
		_, err = b.Rows(ctx)
		require.Error(t, err)
		assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
	})
}

type passCounter struct {
	noInputs
	desc   *rel.Table
	passes *int
}

func (p *passCounter) Description() *rel.Table { return p.desc }

func (p *passCounter) Rows(context.Context) (RowIterator, error) {
	*p.passes++
	return sliceIterator([]rel.Row{{"a": "1"}, {"a": "2"}}), nil
}

func TestTempVarRef(t *testing.T) {
	ctx := context.Background()
	passes := 0
	b := NewBuffered(&passCounter{desc: rel.NewTable("t", rel.Column{Name: "a"}), passes: &passes})

	ref1, err := NewTempVarRef(bufferedRelation{b})
	require.NoError(t, err)
	ref2, err := NewTempVarRef(bufferedRelation{b})
	require.NoError(t, err)

	_, err = Drain(ctx, ref1)
	require.NoError(t, err)
	_, err = Drain(ctx, ref2)
	require.NoError(t, err)
	assert.Equal(t, 1, passes, "both references share one evaluation")
}

type bufferedRelation struct{ b *Buffered }

func (r bufferedRelation) Description() *rel.Table { return r.b.Description() }

func (r bufferedRelation) Fetch(ctx context.Context) (RowIterator, error) { return r.b.Rows(ctx) }

func TestTabularFileScan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,species\n1,Mus musculus\n2,Danio rerio\n"), 0o644))

	s, err := NewTabularFileScan(path)
	require.NoError(t, err)
	assert.Equal(t, "samples.csv", s.Description().Name)
	assert.Equal(t, []string{"id", "species"}, s.Description().Columns.Names())

	rows, err := Drain(ctx, s)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, rel.Row{"id": "1", "species": "Mus musculus"}, rows[0])

	// a second pass re-reads the file
	rows, err = Drain(ctx, s)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestTabularFileScanTSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "samples.tsv")
	require.NoError(t, os.WriteFile(path, []byte("id\tspecies\n1\tMus musculus\n"), 0o644))

	s, err := NewTabularFileScan(path)
	require.NoError(t, err)
	rows, err := Drain(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mus musculus", rows[0]["species"])
}

func TestJSONScan(t *testing.T) {
	ctx := context.Background()

	t.Run("document", func(t *testing.T) {
		s, err := NewJSONScan("", `[{"id": 1, "name": "a", "ok": true}, {"id": 2, "name": "b", "ok": false}]`, nil, "^id$")
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name", "ok"}, s.Description().Columns.Names())
		assert.Equal(t, rel.Float, s.Description().Columns.Get("id").Type)
		assert.Equal(t, rel.Boolean, s.Description().Columns.Get("ok").Type)
		require.Len(t, s.Description().Keys, 1)
		assert.Equal(t, []string{"id"}, s.Description().Keys[0].UniqueColumns)

		rows, err := Drain(ctx, s)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "a", rows[0]["name"])
	})

	t.Run("payload", func(t *testing.T) {
		payload := plan.ObjectPayload{{"b": "2", "a": "1"}}
		s, err := NewJSONScan("", "", &payload, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, s.Description().Columns.Names())
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "data.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"x": "1"}]`), 0o644))
		s, err := NewJSONScan(path, "", nil, "")
		require.NoError(t, err)
		assert.Equal(t, "data.json", s.Description().Name)
	})

	t.Run("no source", func(t *testing.T) {
		_, err := NewJSONScan("", "", nil, "")
		require.Error(t, err)
		assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
	})
}

func TestShredScan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.nt")
	graph := `<m1> <rdf:type> <Species> .
<m1> <label> "Mus musculus" .
<d1> <rdf:type> <Species> .
<d1> <label> "Danio rerio" .
<x1> <rdf:type> <Tissue> .
`
	require.NoError(t, os.WriteFile(path, []byte(graph), 0o644))

	s, err := NewShredScan(path, "?s <rdf:type> <Species> . ?s <label> ?name")
	require.NoError(t, err)
	assert.Equal(t, []string{"s", "name"}, s.Description().Columns.Names())

	rows, err := Drain(ctx, s)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, rel.Row{"s": "m1", "name": "Mus musculus"}, rows[0])
	assert.Equal(t, rel.Row{"s": "d1", "name": "Danio rerio"}, rows[1])

	_, err = NewShredScan(path, "?s <label>")
	require.Error(t, err)
	assert.Equal(t, cherrors.Contract, cherrors.CodeOf(err))
}

func TestDescribe(t *testing.T) {
	src := values(speciesDesc())
	d, err := NewHashDistinct(src, []string{"species"})
	require.NoError(t, err)
	out := Describe(d)
	assert.Contains(t, out, "HashDistinct")
	assert.Contains(t, out, "valuesOp")
}
