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

package semistructured_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/informatics-isi-edu/chisel/go/chisel/catalog"
	"github.com/informatics-isi-edu/chisel/go/chisel/catalog/semistructured"
	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/util"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

const specimenCSV = `id,species,anatomy
1,Mus musculus,liver
2,Mus Musculus,heart
3,mus musculus,liver
4,Danio rerio,heart
`

const anatomyJSON = `[
  {"id": "a1", "term": "liver"},
  {"id": "a2", "term": "heart"}
]`

func newTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specimen.csv"), []byte(specimenCSV), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vocab"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vocab", "anatomy.json"), []byte(anatomyJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))
	return dir
}

func newTestCatalog(t *testing.T) (*catalog.Catalog, string) {
	t.Helper()
	dir := newTestDir(t)
	backend, err := semistructured.New(dir)
	require.NoError(t, err)
	c, err := catalog.New(backend)
	require.NoError(t, err)
	return c, dir
}

func fetchAll(t *testing.T, r *catalog.ComputedRelation) []rel.Row {
	t.Helper()
	it, err := r.Fetch(context.Background())
	require.NoError(t, err)
	defer it.Close()
	var rows []rel.Row
	for {
		row, err := it.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestIntrospectDirectory(t *testing.T) {
	c, _ := newTestCatalog(t)
	assert.Equal(t, []string{".", "vocab"}, c.Schemas())

	root := c.Schema(semistructured.RootSchema).Tables
	assert.Equal(t, []string{"specimen.csv"}, root.Names())
	specimen := root.Get("specimen.csv")
	require.NotNil(t, specimen)
	assert.Equal(t, []string{"id", "species", "anatomy"}, specimen.Description().Columns.Names())

	anatomy := c.Schema("vocab").Tables.Get("anatomy.json")
	require.NotNil(t, anatomy)
	require.Len(t, anatomy.Description().Keys, 1)
	assert.Equal(t, []string{"id"}, anatomy.Description().Keys[0].UniqueColumns)
}

func TestScanCSVTable(t *testing.T) {
	c, _ := newTestCatalog(t)
	specimen := c.Schema(semistructured.RootSchema).Tables.Get("specimen.csv")
	rows, err := specimen.Clone()
	require.NoError(t, err)
	all := fetchAll(t, rows)
	require.Len(t, all, 4)
	assert.Equal(t, "Mus musculus", all[0]["species"])
}

func TestCommitWritesCSV(t *testing.T) {
	c, dir := newTestCatalog(t)
	tables := c.Schema(semistructured.RootSchema).Tables

	tx, err := c.Evolve()
	require.NoError(t, err)
	col, err := tables.Get("specimen.csv").Column("species")
	require.NoError(t, err)
	domain, err := col.ToDomain(util.EditDistance, nil)
	require.NoError(t, err)
	require.NoError(t, tables.Assign("species.csv", domain))
	require.NoError(t, tx.Commit(context.Background()))

	// the file exists and re-introspection sees the table
	_, err = os.Stat(filepath.Join(dir, "species.csv"))
	require.NoError(t, err)
	species := c.Schema(semistructured.RootSchema).Tables.Get("species.csv")
	require.NotNil(t, species)
	rows, err := species.Clone()
	require.NoError(t, err)
	all := fetchAll(t, rows)
	require.Len(t, all, 2)
	assert.Equal(t, "Mus musculus", all[0]["name"])
	assert.Equal(t, "Danio rerio", all[1]["name"])
}

func TestCommitWritesJSON(t *testing.T) {
	c, dir := newTestCatalog(t)
	tables := c.Schema("vocab").Tables

	vocab, err := catalog.ReadObjects([]map[string]any{
		{"id": "s1", "term": "spleen"},
	}, "^id$")
	require.NoError(t, err)
	require.NoError(t, tables.Assign("organs.json", vocab))

	data, err := os.ReadFile(filepath.Join(dir, "vocab", "organs.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"spleen"`)

	organs := c.Schema("vocab").Tables.Get("organs.json")
	require.NotNil(t, organs)
	rows, err := organs.Clone()
	require.NoError(t, err)
	assert.Len(t, fetchAll(t, rows), 1)
}

func TestDropRemovesFile(t *testing.T) {
	c, dir := newTestCatalog(t)
	tables := c.Schema(semistructured.RootSchema).Tables

	tx, err := c.Evolve(catalog.AllowDrop())
	require.NoError(t, err)
	require.NoError(t, tables.Drop("specimen.csv"))
	require.NoError(t, tx.Commit(context.Background()))

	_, err = os.Stat(filepath.Join(dir, "specimen.csv"))
	assert.True(t, os.IsNotExist(err))
	assert.Nil(t, c.Schema(semistructured.RootSchema).Tables.Get("specimen.csv"))
}

func TestUnsupportedExtension(t *testing.T) {
	dir := newTestDir(t)
	backend, err := semistructured.New(dir)
	require.NoError(t, err)

	_, err = backend.ExtantPlan(semistructured.RootSchema, "notes.md")
	require.Error(t, err)
	assert.Equal(t, cherrors.Unsupported, cherrors.CodeOf(err))
}

func TestAlignAgainstVocabulary(t *testing.T) {
	c, _ := newTestCatalog(t)
	root := c.Schema(semistructured.RootSchema).Tables

	// build a species vocabulary, write it out as JSON, and read it back
	col, err := root.Get("specimen.csv").Column("species")
	require.NoError(t, err)
	vocab, err := col.ToVocabulary(util.EditDistance, nil)
	require.NoError(t, err)
	require.NoError(t, c.Schema("vocab").Tables.Assign("species.json", vocab))

	terms := c.Schema("vocab").Tables.Get("species.json")
	require.NotNil(t, terms)
	assert.ElementsMatch(t, []string{"name", "synonyms"}, terms.Description().Columns.Names())

	col, err = c.Schema(semistructured.RootSchema).Tables.Get("specimen.csv").Column("species")
	require.NoError(t, err)
	aligned, err := col.Align(terms, util.EditDistance, nil)
	require.NoError(t, err)
	rows := fetchAll(t, aligned)
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.Contains(t, []any{"Mus musculus", "Danio rerio"}, row["species"])
	}
}
