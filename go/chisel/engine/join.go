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
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// CrossJoin pairs every left row with every right row. Attribute names shared
// by both sides are qualified as "table:column" on both sides; keys and
// foreign keys do not survive the product.
//
// The right side is re-scanned once per left row; wrap it in Buffered when
// recomputation is expensive.
type CrossJoin struct {
	left, right Operator
	desc        *rel.Table

	leftRenames  map[string]string // new name -> old name
	rightRenames map[string]string
}

// NewCrossJoin builds the product description from the two child
// descriptions.
func NewCrossJoin(left, right Operator) (*CrossJoin, error) {
	leftDesc, rightDesc := left.Description(), right.Description()

	shared := make(map[string]bool)
	for _, name := range leftDesc.Columns.Names() {
		if rightDesc.Columns.Has(name) {
			shared[name] = true
		}
	}
	qualify := func(desc *rel.Table, renames map[string]string) []rel.Column {
		cols := make([]rel.Column, 0, desc.Columns.Len())
		for _, col := range desc.Columns.All() {
			if shared[col.Name] {
				qualified := desc.Name + ":" + col.Name
				renames[qualified] = col.Name
				col.Name = qualified
			}
			cols = append(cols, col)
		}
		return cols
	}

	j := &CrossJoin{
		left:         left,
		right:        right,
		leftRenames:  make(map[string]string),
		rightRenames: make(map[string]string),
	}
	desc := &rel.Table{Name: leftDesc.Name + "_" + rightDesc.Name}
	for _, col := range qualify(leftDesc, j.leftRenames) {
		desc.Columns.Append(col)
	}
	for _, col := range qualify(rightDesc, j.rightRenames) {
		desc.Columns.Append(col)
	}
	j.desc = desc
	return j, nil
}

func (j *CrossJoin) Description() *rel.Table { return j.desc }

func (j *CrossJoin) Inputs() []Operator { return []Operator{j.left, j.right} }

func (j *CrossJoin) merge(leftRow, rightRow rel.Row) rel.Row {
	out := rel.RenameRow(leftRow, j.leftRenames, true)
	for k, v := range rel.RenameRow(rightRow, j.rightRenames, true) {
		out[k] = v
	}
	return out
}

func (j *CrossJoin) Rows(ctx context.Context) (RowIterator, error) {
	leftIter, err := j.left.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var leftRow rel.Row
	var rightIter RowIterator
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			for {
				if rightIter == nil {
					row, err := leftIter.Next()
					if err != nil {
						return nil, err
					}
					leftRow = row
					rightIter, err = j.right.Rows(ctx)
					if err != nil {
						return nil, err
					}
				}
				rightRow, err := rightIter.Next()
				if err == io.EOF {
					rightIter.Close()
					rightIter = nil
					continue
				}
				if err != nil {
					return nil, err
				}
				return j.merge(leftRow, rightRow), nil
			}
		},
		close: func() error {
			if rightIter != nil {
				rightIter.Close()
			}
			return leftIter.Close()
		},
	}, nil
}

// SimilarityJoin matches each left row against the single best right row
// whose domain value, or one of its synonyms, is most similar to the left
// row's target attribute. Left rows without a similar right row are dropped.
// Shared attribute names are qualified as in CrossJoin.
type SimilarityJoin struct {
	product   *CrossJoin
	condition plan.Similar
}

// NewSimilarityJoin validates the condition against the child descriptions:
// the target attribute must exist on the left, the domain attribute on the
// right, and the condition must carry a similarity function.
func NewSimilarityJoin(left, right Operator, condition plan.Similar) (*SimilarityJoin, error) {
	if condition.Similarity == nil {
		return nil, cherrors.New(cherrors.Contract, "similarity join requires a similarity function")
	}
	if !left.Description().Columns.Has(condition.Attribute) {
		return nil, cherrors.Errorf(cherrors.Contract, "join attribute %q not in relation %q", condition.Attribute, left.Description().Name)
	}
	if !right.Description().Columns.Has(condition.Domain) {
		return nil, cherrors.Errorf(cherrors.Contract, "join domain attribute %q not in relation %q", condition.Domain, right.Description().Name)
	}
	product, err := NewCrossJoin(left, right)
	if err != nil {
		return nil, err
	}
	return &SimilarityJoin{product: product, condition: condition}, nil
}

func (j *SimilarityJoin) Description() *rel.Table { return j.product.desc }

func (j *SimilarityJoin) Inputs() []Operator { return j.product.Inputs() }

func (j *SimilarityJoin) Rows(ctx context.Context) (RowIterator, error) {
	// TODO: use the grouping function to partition the domain rows and
	// restrict each probe to the target's partition.
	rightRows, err := Drain(ctx, j.product.right)
	if err != nil {
		return nil, err
	}
	leftIter, err := j.product.left.Rows(ctx)
	if err != nil {
		return nil, err
	}
	sim := j.condition.Similarity.Fn
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			for {
				leftRow, err := leftIter.Next()
				if err != nil {
					return nil, err
				}
				target := leftRow[j.condition.Attribute]
				var bestRow rel.Row
				bestScore := 1.0
				for _, rightRow := range rightRows {
					// 0.0 is a perfect score; stop scoring once it is reached
					score := sim(target, rightRow[j.condition.Domain])
					if score > 0.0 && j.condition.Synonyms != "" {
						if synonyms, ok := rightRow[j.condition.Synonyms].([]any); ok {
							for _, synonym := range synonyms {
								if s := sim(target, synonym); s < score {
									score = s
									if score == 0.0 {
										break
									}
								}
							}
						}
					}
					if score < bestScore {
						bestScore = score
						bestRow = rightRow
						if score == 0.0 {
							break
						}
					}
				}
				if bestRow == nil {
					continue
				}
				return j.product.merge(leftRow, bestRow), nil
			}
		},
		close: leftIter.Close,
	}, nil
}
