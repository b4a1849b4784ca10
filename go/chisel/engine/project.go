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

	"github.com/buger/jsonparser"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// Project narrows, renames and extends the attributes of its child relation.
//
// The projection list is interpreted at construction against the child's
// description: plain attributes and all-attribute markers select columns,
// aliases copy a column under a new name, drops remove a column, adds append
// a column from a JSON definition, and introspection items expand to the
// attributes computed from the child's description.
type Project struct {
	child Operator
	desc  *rel.Table

	attributes []string          // plain projected names, in order, deduplicated
	projected  map[string]bool   // attributes minus removals and aliased sources
	aliases    []plan.AttributeAlias
	adds       []rel.Column
}

// NewProject interprets projection against child's description. Unknown
// attributes and empty projections are contract violations.
func NewProject(child Operator, projection []plan.ProjectionItem) (*Project, error) {
	if len(projection) == 0 {
		return nil, cherrors.New(cherrors.Contract, "empty projection")
	}
	childDesc := child.Description()

	p := &Project{child: child, projected: make(map[string]bool)}
	removals := make(map[string]bool)
	aliased := make(map[string]bool)
	seen := make(map[string]bool)
	addAttribute := func(name string) error {
		if !childDesc.Columns.Has(name) {
			return cherrors.Errorf(cherrors.Contract, "projected attribute %q not in relation %q", name, childDesc.Name)
		}
		if !seen[name] {
			seen[name] = true
			p.attributes = append(p.attributes, name)
		}
		return nil
	}

	for _, item := range projection {
		switch item := item.(type) {
		case plan.Attribute:
			if err := addAttribute(string(item)); err != nil {
				return nil, err
			}
		case plan.AllAttributes:
			for _, name := range childDesc.Columns.Names() {
				if err := addAttribute(name); err != nil {
					return nil, err
				}
			}
		case plan.Introspect:
			if item.Fn == nil {
				return nil, cherrors.New(cherrors.Contract, "introspection item without a function")
			}
			for _, name := range item.Fn.Fn(childDesc) {
				if err := addAttribute(name); err != nil {
					return nil, err
				}
			}
		case plan.AttributeAlias:
			if !childDesc.Columns.Has(item.Name) {
				return nil, cherrors.Errorf(cherrors.Contract, "aliased attribute %q not in relation %q", item.Name, childDesc.Name)
			}
			p.aliases = append(p.aliases, item)
			aliased[item.Name] = true
		case plan.AttributeDrop:
			if !childDesc.Columns.Has(item.Name) {
				return nil, cherrors.Errorf(cherrors.Contract, "dropped attribute %q not in relation %q", item.Name, childDesc.Name)
			}
			removals[item.Name] = true
		case plan.AttributeAdd:
			col, err := parseColumnDefinition(item.Definition)
			if err != nil {
				return nil, err
			}
			p.adds = append(p.adds, col)
		default:
			return nil, cherrors.Errorf(cherrors.Contract, "unsupported projection item %T", item)
		}
	}

	for _, name := range p.attributes {
		if !removals[name] && !aliased[name] {
			p.projected[name] = true
		}
	}

	p.desc = projectDescription(childDesc, p.projected, p.aliases, p.adds)
	return p, nil
}

func projectDescription(childDesc *rel.Table, projected map[string]bool, aliases []plan.AttributeAlias, adds []rel.Column) *rel.Table {
	desc := &rel.Table{
		Schema:  childDesc.Schema,
		Name:    rel.NewComputedName(),
		Kind:    childDesc.Kind,
		Comment: childDesc.Comment,
	}

	for _, col := range childDesc.Columns.All() {
		if projected[col.Name] {
			desc.Columns.Append(col)
		}
		for _, alias := range aliases {
			if alias.Name == col.Name {
				renamed := col
				renamed.Name = alias.Alias
				desc.Columns.Append(renamed)
			}
		}
	}
	for _, col := range adds {
		desc.Columns.Append(col)
	}

	// Output names that each source column maps to; constraints survive only
	// when every constrained column maps somewhere.
	outName := make(map[string]string)
	for _, alias := range aliases {
		outName[alias.Name] = alias.Alias
	}
	for name := range projected {
		if _, ok := outName[name]; !ok {
			outName[name] = name
		}
	}
	rewrite := func(columns []string) ([]string, bool) {
		out := make([]string, len(columns))
		for i, name := range columns {
			mapped, ok := outName[name]
			if !ok {
				return nil, false
			}
			out[i] = mapped
		}
		return out, true
	}

	for _, key := range childDesc.Keys {
		if cols, ok := rewrite(key.UniqueColumns); ok {
			desc.Keys = append(desc.Keys, rel.Key{UniqueColumns: cols})
		}
	}
	for _, fkey := range childDesc.ForeignKeys {
		if cols, ok := rewrite(fkey.ForeignKeyColumns); ok {
			desc.ForeignKeys = append(desc.ForeignKeys, rel.ForeignKey{
				ForeignKeyColumns: cols,
				ReferencedSchema:  fkey.ReferencedSchema,
				ReferencedTable:   fkey.ReferencedTable,
				ReferencedColumns: append([]string(nil), fkey.ReferencedColumns...),
			})
		}
	}
	return desc
}

func parseColumnDefinition(definition string) (rel.Column, error) {
	data := []byte(definition)
	name, err := jsonparser.GetString(data, "name")
	if err != nil {
		return rel.Column{}, cherrors.Wrapf(cherrors.Contract, err, "column definition without a name: %s", definition)
	}
	col := rel.Column{Name: name, Type: rel.Text, NullOK: true}
	if typename, err := jsonparser.GetString(data, "type"); err == nil {
		col.Type = typename
	}
	if nullok, err := jsonparser.GetBoolean(data, "nullok"); err == nil {
		col.NullOK = nullok
	}
	if comment, err := jsonparser.GetString(data, "comment"); err == nil {
		col.Comment = comment
	}
	if value, dataType, _, err := jsonparser.Get(data, "default"); err == nil {
		switch dataType {
		case jsonparser.String:
			col.Default = string(value)
		case jsonparser.Number:
			if f, err := jsonparser.GetFloat(data, "default"); err == nil {
				col.Default = f
			}
		case jsonparser.Boolean:
			if b, err := jsonparser.GetBoolean(data, "default"); err == nil {
				col.Default = b
			}
		}
	}
	return col, nil
}

func (p *Project) Description() *rel.Table { return p.desc }

func (p *Project) Inputs() []Operator { return []Operator{p.child} }

func (p *Project) Rows(ctx context.Context) (RowIterator, error) {
	inner, err := p.child.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return &rowIterFunc{
		next: func() (rel.Row, error) {
			row, err := inner.Next()
			if err != nil {
				return nil, err
			}
			out := make(rel.Row, len(p.projected)+len(p.aliases)+len(p.adds))
			for name := range p.projected {
				out[name] = row[name]
			}
			for _, alias := range p.aliases {
				out[alias.Alias] = row[alias.Name]
			}
			for _, col := range p.adds {
				out[col.Name] = col.Default
			}
			return out, nil
		},
		close: inner.Close,
	}, nil
}
