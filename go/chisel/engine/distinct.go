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
	"fmt"
	"strings"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// HashDistinct emits the first row seen for each distinct combination of the
// given attributes, in child order. The probe table lives for one pass.
type HashDistinct struct {
	child      Operator
	desc       *rel.Table
	attributes []string
}

// NewHashDistinct requires a non-empty attribute list present in the child
// description.
func NewHashDistinct(child Operator, attributes []string) (*HashDistinct, error) {
	if len(attributes) == 0 {
		return nil, cherrors.New(cherrors.Contract, "empty distinct attribute list")
	}
	childDesc := child.Description()
	for _, name := range attributes {
		if !childDesc.Columns.Has(name) {
			return nil, cherrors.Errorf(cherrors.Contract, "distinct attribute %q not in relation %q", name, childDesc.Name)
		}
	}
	desc := childDesc.Clone()
	desc.Name = rel.NewComputedName()
	return &HashDistinct{
		child:      child,
		desc:       desc,
		attributes: append([]string(nil), attributes...),
	}, nil
}

func (d *HashDistinct) Description() *rel.Table { return d.desc }

func (d *HashDistinct) Inputs() []Operator { return []Operator{d.child} }

func (d *HashDistinct) Rows(ctx context.Context) (RowIterator, error) {
	inner, err := d.child.Rows(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			for {
				row, err := inner.Next()
				if err != nil {
					return nil, err
				}
				key := probeKey(row, d.attributes)
				if seen[key] {
					continue
				}
				seen[key] = true
				return row, nil
			}
		},
		close: inner.Close,
	}, nil
}

// probeKey renders the attribute values of a row into a hashable composite
// key. Values are separated by NUL and length-prefixed so that adjacent
// values cannot collide by concatenation.
func probeKey(row rel.Row, attributes []string) string {
	var sb strings.Builder
	for _, name := range attributes {
		value := fmt.Sprint(row[name])
		fmt.Fprintf(&sb, "%d\x00%s\x00", len(value), value)
	}
	return sb.String()
}
