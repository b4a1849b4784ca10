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

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Rename substitutes attribute names in the child's schema and rows. A source
// attribute may be renamed more than once, in which case its column is copied
// under each new name.
type Rename struct {
	child   Operator
	desc    *rel.Table
	renames map[string]string // new name -> old name
}

// NewRename requires a non-empty rename list whose source attributes exist in
// the child description.
func NewRename(child Operator, renames []plan.AttributeAlias) (*Rename, error) {
	if len(renames) == 0 {
		return nil, cherrors.New(cherrors.Contract, "empty rename list")
	}
	childDesc := child.Description()
	r := &Rename{child: child, renames: make(map[string]string, len(renames))}
	renamed := make(map[string]bool)
	for _, rn := range renames {
		if !childDesc.Columns.Has(rn.Name) {
			return nil, cherrors.Errorf(cherrors.Contract, "renamed attribute %q not in relation %q", rn.Name, childDesc.Name)
		}
		r.renames[rn.Alias] = rn.Name
		renamed[rn.Name] = true
	}

	// Renamed columns first, in rename order, then the untouched balance in
	// child order. The same source may fan out to several new columns.
	desc := &rel.Table{
		Schema:  childDesc.Schema,
		Name:    childDesc.Name,
		Kind:    childDesc.Kind,
		Comment: childDesc.Comment,
	}
	for _, rn := range renames {
		col := *childDesc.Columns.Get(rn.Name)
		col.Name = rn.Alias
		desc.Columns.Append(col)
	}
	for _, col := range childDesc.Columns.All() {
		if !renamed[col.Name] {
			desc.Columns.Append(col)
		}
	}

	newName := make(map[string]string, len(renames))
	for _, rn := range renames {
		if _, ok := newName[rn.Name]; !ok {
			newName[rn.Name] = rn.Alias
		}
	}
	substitute := func(columns []string) []string {
		out := make([]string, len(columns))
		for i, name := range columns {
			if mapped, ok := newName[name]; ok {
				out[i] = mapped
			} else {
				out[i] = name
			}
		}
		return out
	}
	for _, key := range childDesc.Keys {
		desc.Keys = append(desc.Keys, rel.Key{UniqueColumns: substitute(key.UniqueColumns)})
	}
	for _, fkey := range childDesc.ForeignKeys {
		desc.ForeignKeys = append(desc.ForeignKeys, rel.ForeignKey{
			ForeignKeyColumns: substitute(fkey.ForeignKeyColumns),
			ReferencedSchema:  fkey.ReferencedSchema,
			ReferencedTable:   fkey.ReferencedTable,
			ReferencedColumns: append([]string(nil), fkey.ReferencedColumns...),
		})
	}
	r.desc = desc
	return r, nil
}

func (r *Rename) Description() *rel.Table { return r.desc }

func (r *Rename) Inputs() []Operator { return []Operator{r.child} }

func (r *Rename) Rows(ctx context.Context) (RowIterator, error) {
	inner, err := r.child.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			row, err := inner.Next()
			if err != nil {
				return nil, err
			}
			return rel.RenameRow(row, r.renames, true), nil
		},
		close: inner.Close,
	}, nil
}
