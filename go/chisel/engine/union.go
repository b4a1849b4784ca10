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
	"io"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Union concatenates the rows of its children, left side first. Duplicates
// are preserved and right rows need not satisfy the left side's constraints,
// so neither keys nor foreign keys carry over.
type Union struct {
	left, right Operator
	desc        *rel.Table
}

// NewUnion requires the two children to have the same attribute names. The
// left child's column order and definitions shape the output.
func NewUnion(left, right Operator) (*Union, error) {
	leftDesc, rightDesc := left.Description(), right.Description()
	if leftDesc.Columns.Len() != rightDesc.Columns.Len() {
		return nil, cherrors.Errorf(cherrors.Contract, "union of incompatible relations %q and %q", leftDesc.Name, rightDesc.Name)
	}
	for _, name := range leftDesc.Columns.Names() {
		if !rightDesc.Columns.Has(name) {
			return nil, cherrors.Errorf(cherrors.Contract, "union attribute %q missing from relation %q", name, rightDesc.Name)
		}
	}
	desc := leftDesc.Clone()
	desc.Name = rel.NewComputedName()
	desc.Keys = nil
	desc.ForeignKeys = nil
	return &Union{left: left, right: right, desc: desc}, nil
}

func (u *Union) Description() *rel.Table { return u.desc }

func (u *Union) Inputs() []Operator { return []Operator{u.left, u.right} }

func (u *Union) Rows(ctx context.Context) (RowIterator, error) {
	current, err := u.left.Rows(ctx)
	if err != nil {
		return nil, err
	}
	onLeft := true
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			for {
				row, err := current.Next()
				if err == io.EOF && onLeft {
					current.Close()
					onLeft = false
					current, err = u.right.Rows(ctx)
					if err != nil {
						return nil, err
					}
					continue
				}
				if err != nil {
					return nil, err
				}
				return row, nil
			}
		},
		close: func() error { return current.Close() },
	}, nil
}
