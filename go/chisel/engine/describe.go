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
	"fmt"
	"strings"
)

// Describe renders the operator tree as an indented outline, one operator
// per line with the name of the relation it computes.
func Describe(op Operator) string {
	var sb strings.Builder
	describe(&sb, op, 0)
	return sb.String()
}

func describe(sb *strings.Builder, op Operator, depth int) {
	label := fmt.Sprintf("%T", op)
	if i := strings.LastIndex(label, "."); i >= 0 {
		label = label[i+1:]
	}
	fmt.Fprintf(sb, "%s%s (%s)\n", strings.Repeat("  ", depth), label, op.Description().Name)
	for _, child := range op.Inputs() {
		describe(sb, child, depth+1)
	}
}
