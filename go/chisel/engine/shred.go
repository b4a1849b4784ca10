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
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/informatics-isi-edu/chisel/go/chisel/cherrors"
	"github.com/informatics-isi-edu/chisel/go/rel"
)

// ShredScan evaluates a conjunctive triple-pattern query against an RDF-style
// graph file and shreds the variable bindings into a relation, one column per
// variable in order of first appearance.
//
// The graph file is either a JSON array of {subject, predicate, object}
// objects or line-oriented triples in N-Triples form. The query is a list of
// patterns separated by ".", each pattern three terms; terms beginning with
// "?" are variables, everything else matches a graph term after stripping
// angle brackets and quotes.
type ShredScan struct {
	noInputs
	graph    string
	desc     *rel.Table
	patterns [][3]string
	vars     []string
}

// NewShredScan parses the query; the graph file is read on each pass.
func NewShredScan(graph, query string) (*ShredScan, error) {
	s := &ShredScan{graph: graph, desc: &rel.Table{Name: filepath.Base(graph)}}
	seen := make(map[string]bool)
	for _, clause := range strings.Split(query, ".") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		terms := tokenizeTriple(clause)
		if len(terms) != 3 {
			return nil, cherrors.Errorf(cherrors.Contract, "malformed triple pattern %q", clause)
		}
		var pattern [3]string
		for i, term := range terms {
			if strings.HasPrefix(term, "?") {
				if name := term[1:]; !seen[name] {
					seen[name] = true
					s.vars = append(s.vars, name)
				}
				pattern[i] = term
			} else {
				pattern[i] = trimTerm(term)
			}
		}
		s.patterns = append(s.patterns, pattern)
	}
	if len(s.patterns) == 0 {
		return nil, cherrors.Errorf(cherrors.Contract, "empty graph query %q", query)
	}
	for _, name := range s.vars {
		s.desc.Columns.Append(rel.Column{Name: name, Type: rel.Text, NullOK: true})
	}
	return s, nil
}

func (s *ShredScan) Description() *rel.Table { return s.desc }

func (s *ShredScan) Rows(ctx context.Context) (RowIterator, error) {
	triples, err := readTriples(s.graph)
	if err != nil {
		return nil, err
	}
	var out []rel.Row
	var match func(i int, bindings map[string]string)
	match = func(i int, bindings map[string]string) {
		if i == len(s.patterns) {
			row := make(rel.Row, len(s.vars))
			for _, name := range s.vars {
				row[name] = bindings[name]
			}
			out = append(out, row)
			return
		}
		pattern := s.patterns[i]
		for _, triple := range triples {
			bound := make(map[string]string, len(bindings))
			for k, v := range bindings {
				bound[k] = v
			}
			if bindTriple(pattern, triple, bound) {
				match(i+1, bound)
			}
		}
	}
	match(0, map[string]string{})
	return sliceIterator(out), nil
}

func bindTriple(pattern, triple [3]string, bindings map[string]string) bool {
	for i, term := range pattern {
		if strings.HasPrefix(term, "?") {
			name := term[1:]
			if value, ok := bindings[name]; ok {
				if value != triple[i] {
					return false
				}
			} else {
				bindings[name] = triple[i]
			}
		} else if term != triple[i] {
			return false
		}
	}
	return true
}

func readTriples(filename string) ([][3]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot read graph file %q", filename)
	}
	if strings.ToLower(filepath.Ext(filename)) == ".json" {
		var decoded []struct {
			Subject   string `json:"subject"`
			Predicate string `json:"predicate"`
			Object    string `json:"object"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, cherrors.Wrapf(cherrors.Backend, err, "cannot decode graph file %q", filename)
		}
		triples := make([][3]string, len(decoded))
		for i, t := range decoded {
			triples[i] = [3]string{t.Subject, t.Predicate, t.Object}
		}
		return triples, nil
	}

	var triples [][3]string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSuffix(line, ".")
		terms := tokenizeTriple(line)
		if len(terms) != 3 {
			return nil, cherrors.Errorf(cherrors.Backend, "malformed triple %q in graph file %q", line, filename)
		}
		triples = append(triples, [3]string{trimTerm(terms[0]), trimTerm(terms[1]), trimTerm(terms[2])})
	}
	return triples, nil
}

// tokenizeTriple splits a triple into terms, keeping quoted literals with
// embedded whitespace intact.
func tokenizeTriple(line string) []string {
	var terms []string
	var current strings.Builder
	inQuote := false
	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return terms
}

func trimTerm(term string) string {
	term = strings.TrimSpace(term)
	if strings.HasPrefix(term, "<") && strings.HasSuffix(term, ">") {
		return term[1 : len(term)-1]
	}
	return strings.Trim(term, `"`)
}
