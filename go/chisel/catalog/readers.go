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

package catalog

import (
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
)

// Free-standing readers: computed relations over data outside any catalog.
// They can be combined with catalog tables and assigned like any other
// derived relation.

// ReadTabular reads a delimited data file. The delimiter follows the file
// extension, tab for .tsv and .txt, comma otherwise.
func ReadTabular(filename string) (*ComputedRelation, error) {
	return newComputedRelation(nil, &plan.TabularScan{Filename: filename})
}

// ReadJSON reads a list of objects from a JSON file. Column names matching
// keyRegex are taken to be keys; an empty pattern guesses none.
func ReadJSON(filename, keyRegex string) (*ComputedRelation, error) {
	return newComputedRelation(nil, &plan.JSONScan{Filename: filename, KeyRegex: keyRegex})
}

// ReadJSONContent reads a list of objects from inline JSON text.
func ReadJSONContent(content, keyRegex string) (*ComputedRelation, error) {
	return newComputedRelation(nil, &plan.JSONScan{Content: content, KeyRegex: keyRegex})
}

// ReadObjects wraps an in-memory list of objects as a relation.
func ReadObjects(objects []map[string]any, keyRegex string) (*ComputedRelation, error) {
	payload := plan.ObjectPayload(objects)
	return newComputedRelation(nil, &plan.JSONScan{Payload: &payload, KeyRegex: keyRegex})
}

// ReadGraph evaluates a triple-pattern query against a graph file and
// returns the resulting rows.
func ReadGraph(graph, query string) (*ComputedRelation, error) {
	return newComputedRelation(nil, &plan.Shred{Graph: graph, Query: query})
}
