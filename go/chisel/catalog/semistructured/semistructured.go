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

// Package semistructured is a catalog backend over a directory of data
// files. Files in the root directory form the "." schema; each immediate
// subdirectory is a further schema. CSV, TSV and JSON files are tables,
// named by their full file name; other files are ignored.
package semistructured

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/informatics-isi-edu/chisel/go/chisel/catalog"
	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// RootSchema names the schema formed by files in the backend's root
// directory.
const RootSchema = "."

// defaultKeyRegex guesses key columns during JSON introspection.
const defaultKeyRegex = "^(RID|ID|id)$"

// Backend is a directory-of-files catalog backend.
type Backend struct {
	path string
}

// New returns a backend rooted at the given directory.
func New(path string) (*Backend, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot open catalog directory %q", path)
	}
	if !info.IsDir() {
		return nil, cherrors.Errorf(cherrors.Backend, "catalog path %q is not a directory", path)
	}
	return &Backend{path: path}, nil
}

// Name implements catalog.Backend.
func (b *Backend) Name() string { return b.path }

func (b *Backend) schemaDir(schema string) string {
	if schema == RootSchema {
		return b.path
	}
	return filepath.Join(b.path, schema)
}

// Introspect implements catalog.Backend by describing every recognized file.
func (b *Backend) Introspect() (catalog.Model, error) {
	model := catalog.Model{}
	root, subdirs, err := b.introspectDir(b.path, RootSchema)
	if err != nil {
		return nil, err
	}
	model[RootSchema] = root
	for _, sub := range subdirs {
		tables, _, err := b.introspectDir(filepath.Join(b.path, sub), sub)
		if err != nil {
			return nil, err
		}
		model[sub] = tables
	}
	return model, nil
}

func (b *Backend) introspectDir(dir, schema string) (map[string]*rel.Table, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, cherrors.Wrapf(cherrors.Backend, err, "cannot read catalog directory %q", dir)
	}
	tables := make(map[string]*rel.Table)
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			if schema == RootSchema && !strings.HasPrefix(entry.Name(), ".") {
				subdirs = append(subdirs, entry.Name())
			}
			continue
		}
		desc, err := b.describeFile(filepath.Join(dir, entry.Name()), schema, entry.Name())
		if err != nil {
			return nil, nil, err
		}
		if desc != nil {
			tables[entry.Name()] = desc
		}
	}
	return tables, subdirs, nil
}

// describeFile introspects one file, or returns nil for unrecognized
// extensions.
func (b *Backend) describeFile(path, schema, name string) (*rel.Table, error) {
	var op engine.Operator
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		scan, err := engine.NewTabularFileScan(path)
		if err != nil {
			return nil, err
		}
		op = scan
	case ".json":
		scan, err := engine.NewJSONScan(path, "", nil, defaultKeyRegex)
		if err != nil {
			return nil, err
		}
		op = scan
	default:
		return nil, nil
	}
	desc := op.Description().Clone()
	desc.Schema = schema
	desc.Name = name
	return desc, nil
}

// ExtantPlan implements catalog.Backend: resident tables scan their files.
func (b *Backend) ExtantPlan(schema, table string) (plan.Node, error) {
	path := filepath.Join(b.schemaDir(schema), table)
	if _, err := os.Stat(path); err != nil {
		return nil, cherrors.Wrapf(cherrors.Backend, err, "no data file for table %q.%q", schema, table)
	}
	switch strings.ToLower(filepath.Ext(table)) {
	case ".csv", ".tsv", ".txt":
		return &plan.TabularScan{Filename: path}, nil
	case ".json":
		return &plan.JSONScan{Filename: path, KeyRegex: defaultKeyRegex}, nil
	}
	return nil, cherrors.Errorf(cherrors.Unsupported, "no reader for file %q", table)
}

// Materialize implements catalog.Backend by rewriting, creating or removing
// data files.
func (b *Backend) Materialize(ctx context.Context, op engine.Operator) error {
	desc := op.Description()
	path := filepath.Join(b.schemaDir(desc.Schema), desc.Name)

	switch op.(type) {
	case *engine.Drop:
		if err := os.Remove(path); err != nil {
			return cherrors.Wrapf(cherrors.Backend, err, "cannot drop table %q.%q", desc.Schema, desc.Name)
		}
		return nil

	case *engine.Create:
		if _, err := os.Stat(path); err == nil {
			return cherrors.Errorf(cherrors.Backend, "data file %q already exists", path)
		}
		return b.writeFile(ctx, path, op)

	case *engine.Alter, *engine.Assign:
		return b.writeFile(ctx, path, op)
	}
	return cherrors.Errorf(cherrors.Unsupported, "backend %q cannot materialize %T", b.path, op)
}

// writeFile evaluates the operator and rewrites the destination file. The
// write goes through a temp file in the same directory and a rename, so a
// failed evaluation leaves the old file intact.
func (b *Backend) writeFile(ctx context.Context, path string, op engine.Operator) error {
	desc := op.Description()
	var comma rune
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		comma = ','
	case ".tsv", ".txt":
		comma = '\t'
	case ".json":
		comma = 0
	default:
		return cherrors.Errorf(cherrors.Unsupported, "no writer for file %q", filepath.Base(path))
	}

	rows, err := engine.Drain(ctx, op)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return cherrors.Wrapf(cherrors.Backend, err, "cannot write data file %q", path)
	}
	defer os.Remove(tmp.Name())

	if comma != 0 {
		err = writeTabular(tmp, comma, desc, rows)
	} else {
		err = writeJSON(tmp, desc, rows)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return cherrors.Wrapf(cherrors.Backend, err, "cannot write data file %q", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return cherrors.Wrapf(cherrors.Backend, err, "cannot write data file %q", path)
	}
	return nil
}

func writeTabular(w io.Writer, comma rune, desc *rel.Table, rows []rel.Row) error {
	names := desc.Columns.Names()
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(names); err != nil {
		return err
	}
	record := make([]string, len(names))
	for _, row := range rows {
		for i, name := range names {
			record[i] = ""
			if v, ok := row[name]; ok && v != nil {
				record[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, desc *rel.Table, rows []rel.Row) error {
	// Rows marshal as objects, so empty relations still round-trip as [].
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
