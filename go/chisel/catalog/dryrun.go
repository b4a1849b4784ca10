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
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
)

// dryRunSampleLimit caps the number of preview rows printed per assignment.
const dryRunSampleLimit = 100

// printDryRun renders one planned assignment: the logical plan, the physical
// operator tree, the output description, and a sample of the rows that would
// be written.
func (tx *Tx) printDryRun(ctx context.Context, j job, logical plan.Node, marker engine.Operator) error {
	w := tx.out
	fmt.Fprintf(w, "=== %s %q.%q ===\n", verbFor(marker), j.schema, j.pending.name)
	if logical != nil {
		fmt.Fprintf(w, "logical plan:\n  %s\n", plan.String(logical))
	}
	fmt.Fprintf(w, "physical plan:\n%s", engine.Describe(marker))

	if _, ok := marker.(*engine.Drop); ok {
		fmt.Fprintln(w)
		return nil
	}

	desc := marker.Description()
	fmt.Fprintln(w, "columns:")
	schemaTable := tablewriter.NewWriter(w)
	schemaTable.SetHeader([]string{"name", "type", "nullok", "default"})
	for _, col := range desc.Columns.All() {
		dflt := ""
		if col.Default != nil {
			dflt = fmt.Sprint(col.Default)
		}
		schemaTable.Append([]string{col.Name, col.Type, fmt.Sprint(col.NullOK), dflt})
	}
	schemaTable.Render()

	return tx.printSample(ctx, w, marker)
}

func (tx *Tx) printSample(ctx context.Context, w io.Writer, marker engine.Operator) error {
	desc := marker.Description()
	names := desc.Columns.Names()

	it, err := marker.Rows(ctx)
	if err != nil {
		return err
	}
	defer it.Close()

	sample := tablewriter.NewWriter(w)
	sample.SetHeader(names)
	count, truncated := 0, false
	for {
		row, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if count == dryRunSampleLimit {
			truncated = true
			break
		}
		cells := make([]string, len(names))
		for i, name := range names {
			if v, ok := row[name]; ok && v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		sample.Append(cells)
		count++
	}
	fmt.Fprintf(w, "rows (%d shown):\n", count)
	sample.Render()
	if truncated {
		fmt.Fprintf(w, "... truncated at %d rows\n", dryRunSampleLimit)
	}
	fmt.Fprintln(w)
	return nil
}

func verbFor(marker engine.Operator) string {
	switch marker.(type) {
	case *engine.Create:
		return "create"
	case *engine.Alter:
		return "alter"
	case *engine.Drop:
		return "drop"
	default:
		return "assign"
	}
}
