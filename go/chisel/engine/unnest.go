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

// Unnest fans a row out into one row per atom produced by the unnesting
// function applied to one of its attributes. Rows whose attribute yields no
// atoms are dropped, as are the child's keys: unnested attribute values no
// longer identify a row.
type Unnest struct {
	child     Operator
	desc      *rel.Table
	fn        *plan.UnnestFunc
	attribute string
}

// NewUnnest requires an unnesting function and an attribute of the child.
func NewUnnest(child Operator, fn *plan.UnnestFunc, attribute string) (*Unnest, error) {
	if fn == nil {
		return nil, cherrors.New(cherrors.Contract, "unnest requires an unnesting function")
	}
	childDesc := child.Description()
	if !childDesc.Columns.Has(attribute) {
		return nil, cherrors.Errorf(cherrors.Contract, "unnested attribute %q not in relation %q", attribute, childDesc.Name)
	}
	desc := childDesc.Clone()
	desc.Name = rel.NewComputedName()
	desc.Keys = nil
	return &Unnest{child: child, desc: desc, fn: fn, attribute: attribute}, nil
}

func (u *Unnest) Description() *rel.Table { return u.desc }

func (u *Unnest) Inputs() []Operator { return []Operator{u.child} }

func (u *Unnest) Rows(ctx context.Context) (RowIterator, error) {
	inner, err := u.child.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var current rel.Row
	var atoms []any
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			for len(atoms) == 0 {
				row, err := inner.Next()
				if err != nil {
					return nil, err
				}
				current = row
				atoms = u.fn.Fn(row[u.attribute])
			}
			out := rel.CopyRow(current)
			out[u.attribute] = atoms[0]
			atoms = atoms[1:]
			return out, nil
		},
		close: inner.Close,
	}, nil
}
