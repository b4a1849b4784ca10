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

package rel

// Row is one tuple of a relation, keyed by attribute name.
type Row = map[string]any

// CopyRow returns a shallow copy of the row.
func CopyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// RenameRow renames attributes according to renames, a mapping of new name to
// old name. If renames is empty the input row is returned as-is unless
// alwaysCopy is set.
func RenameRow(row Row, renames map[string]string, alwaysCopy bool) Row {
	if len(renames) == 0 {
		if alwaysCopy {
			return CopyRow(row)
		}
		return row
	}
	out := CopyRow(row)
	for newName, oldName := range renames {
		out[newName] = row[oldName]
		if _, ok := renames[oldName]; !ok && oldName != newName {
			delete(out, oldName)
		}
	}
	return out
}
