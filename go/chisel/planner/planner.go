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

// Package planner normalizes logical plans and lowers them to physical
// operator trees.
//
// Normalization runs two rule sets to fixpoint: logical optimizations (dead
// branch elimination, select and rename fusion) and composite expansion
// (reify, atomize, domainify, canonicalize, align, tagify rewritten into
// primitives). Lowering then matches AST shapes bottom-up and emits engine
// operators, fusing scan, select and project into a single backend fetch
// whenever the extant's source supports it.
package planner

import (
	"github.com/informatics-isi-edu/chisel/go/chisel/engine"
	"github.com/informatics-isi-edu/chisel/go/chisel/plan"
)

// LogicalPlanner applies the optimization and composition rules to the plan
// until a full pass produces no change.
func LogicalPlanner(n plan.Node) plan.Node {
	rules := make([]rule, 0, len(optimizationRules)+len(compositionRules))
	rules = append(rules, optimizationRules...)
	rules = append(rules, compositionRules...)
	return rewriteFixpoint(n, rules)
}

// PhysicalPlanner lowers a normalized logical plan to a physical operator
// tree. Composite nodes must have been expanded by LogicalPlanner first;
// encountering one is an internal error.
func PhysicalPlanner(n plan.Node) (engine.Operator, error) {
	return lower(n)
}
