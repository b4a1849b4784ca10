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

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Select filters the child's rows by a formula restricted to equality
// comparisons against literals.
type Select struct {
	child       Operator
	comparisons []plan.Comparison
}

// NewSelect validates the formula against the child description. Operators
// other than "=" and unknown attributes are contract violations. A nil
// formula passes every row.
func NewSelect(child Operator, formula plan.Formula) (*Select, error) {
	comparisons := plan.Comparisons(formula)
	desc := child.Description()
	for _, cmp := range comparisons {
		if cmp.Operator != "=" {
			return nil, cherrors.Errorf(cherrors.Contract, "unsupported comparison operator %q", cmp.Operator)
		}
		if !desc.Columns.Has(cmp.Operand1) {
			return nil, cherrors.Errorf(cherrors.Contract, "selected attribute %q not in relation %q", cmp.Operand1, desc.Name)
		}
	}
	return &Select{child: child, comparisons: comparisons}, nil
}

func (s *Select) Description() *rel.Table { return s.child.Description() }

func (s *Select) Inputs() []Operator { return []Operator{s.child} }

func (s *Select) Rows(ctx context.Context) (RowIterator, error) {
	inner, err := s.child.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			for {
				row, err := inner.Next()
				if err != nil {
					return nil, err
				}
				if s.matches(row) {
					return row, nil
				}
			}
		},
		close: inner.Close,
	}, nil
}

func (s *Select) matches(row rel.Row) bool {
	for _, cmp := range s.comparisons {
		if !literalEquals(row[cmp.Operand1], cmp.Operand2) {
			return false
		}
	}
	return true
}

// literalEquals compares a row value against a string literal. Non-string
// values compare by their canonical string form; nil never matches.
func literalEquals(value any, literal string) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v == literal
	default:
		return fmt.Sprint(v) == literal
	}
}
