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
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// TabularFileScan reads a delimited text file. The delimiter follows the file
// extension: tab for ".tsv" and ".txt", comma otherwise. The header row names
// the columns; every value is text.
type TabularFileScan struct {
	noInputs
	filename string
	comma    rune
	desc     *rel.Table
}

// NewTabularFileScan introspects the file's header row.
func NewTabularFileScan(filename string) (*TabularFileScan, error) {
	comma := ','
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsv", ".txt":
		comma = '\t'
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot open tabular file %q", filename)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = comma
	header, err := r.Read()
	if err != nil {
		return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot read header of tabular file %q", filename)
	}

	desc := &rel.Table{Name: filepath.Base(filename)}
	for _, name := range header {
		desc.Columns.Append(rel.Column{Name: name, Type: rel.Text, NullOK: true})
	}
	return &TabularFileScan{filename: filename, comma: comma, desc: desc}, nil
}

func (s *TabularFileScan) Description() *rel.Table { return s.desc }

func (s *TabularFileScan) Rows(ctx context.Context) (RowIterator, error) {
	f, err := os.Open(s.filename)
	if err != nil {
		return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot open tabular file %q", s.filename)
	}
	r := csv.NewReader(f)
	r.Comma = s.comma
	if _, err := r.Read(); err != nil {
		f.Close()
		if err == io.EOF {
			return emptyIterator(), nil
		}
		return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot read tabular file %q", s.filename)
	}
	names := s.desc.Columns.Names()
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			record, err := r.Read()
			if err == io.EOF {
				return nil, io.EOF
			}
			if err != nil {
				return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot read tabular file %q", s.filename)
			}
			row := make(rel.Row, len(names))
			for i, name := range names {
				if i < len(record) {
					row[name] = record[i]
				}
			}
			return row, nil
		},
		close: f.Close,
	}, nil
}

// JSONScan reads an array of flat JSON objects from a file, a raw document,
// or an in-memory payload, whichever is set, in that order of precedence.
// The schema comes from a shallow introspection of the first object; column
// names matching the key regexp each become a single-column key.
type JSONScan struct {
	noInputs
	desc *rel.Table
	rows []rel.Row
}

// NewJSONScan loads and introspects the source once; later passes replay the
// decoded objects.
func NewJSONScan(filename, content string, payload *plan.ObjectPayload, keyRegex string) (*JSONScan, error) {
	var pattern *regexp.Regexp
	if keyRegex != "" {
		var err error
		pattern, err = regexp.Compile(keyRegex)
		if err != nil {
			return nil, cherrors.Wrapf(cherrors.Contract, err, "invalid key pattern %q", keyRegex)
		}
	}

	name := rel.NewComputedName()
	if filename != "" {
		name = filepath.Base(filename)
	}
	desc := &rel.Table{Name: name}
	s := &JSONScan{desc: desc}

	var data []byte
	switch {
	case payload != nil:
		for _, obj := range *payload {
			s.rows = append(s.rows, rel.Row(obj))
		}
	case content != "":
		data = []byte(content)
	case filename != "":
		var err error
		data, err = os.ReadFile(filename)
		if err != nil {
			return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot read JSON file %q", filename)
		}
	default:
		return nil, cherrors.New(cherrors.Contract, "JSON scan requires a filename, a document or a payload")
	}

	var columns []rel.Column
	if data != nil {
		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot decode JSON document for %q", name)
		}
		for _, obj := range decoded {
			s.rows = append(s.rows, rel.Row(obj))
		}
		columns = introspectJSONColumns(data)
	} else if len(s.rows) > 0 {
		// Payload objects have no document order; sort for determinism.
		first := s.rows[0]
		names := make([]string, 0, len(first))
		for key := range first {
			names = append(names, key)
		}
		sort.Strings(names)
		for _, key := range names {
			columns = append(columns, rel.Column{Name: key, Type: jsonColumnType(first[key]), NullOK: true})
		}
	}

	for _, col := range columns {
		desc.Columns.Append(col)
		if pattern != nil && pattern.MatchString(col.Name) {
			desc.Keys = append(desc.Keys, rel.Key{UniqueColumns: []string{col.Name}})
		}
	}
	return s, nil
}

// introspectJSONColumns reads the first object's members in document order.
func introspectJSONColumns(data []byte) []rel.Column {
	var columns []rel.Column
	first := true
	jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if !first {
			return
		}
		first = false
		jsonparser.ObjectEach(value, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
			col := rel.Column{Name: string(key), NullOK: true}
			switch dataType {
			case jsonparser.String:
				col.Type = rel.Text
			case jsonparser.Number:
				col.Type = rel.Float
			case jsonparser.Boolean:
				col.Type = rel.Boolean
			default:
				col.Type = rel.JSON
			}
			columns = append(columns, col)
			return nil
		})
	})
	return columns
}

func jsonColumnType(value any) string {
	switch value.(type) {
	case string:
		return rel.Text
	case float64, int, int64:
		return rel.Float
	case bool:
		return rel.Boolean
	default:
		return rel.JSON
	}
}

func (s *JSONScan) Description() *rel.Table { return s.desc }

func (s *JSONScan) Rows(ctx context.Context) (RowIterator, error) {
	i := 0
	return &rowIterFunc{next: func() (rel.Row, error) {
		if i >= len(s.rows) {
			return nil, io.EOF
		}
		row := rel.CopyRow(s.rows[i])
		i++
		return row, nil
	}}, nil
}
