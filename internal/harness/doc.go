// Package harness runs conformance scenarios against the relations engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: end_to_end
//	description: "Synonyms merged under a shared parent"
//	token_prefix: e2e
//	steps:
//	  - op: add_child
//	    child: Cat
//	    parent: Animal
//	  - op: add_synonym
//	    tag: Cat
//	    group: CatGroup
//	  - op: add_child
//	    child: Cat
//	    parent: Plant
//	    expect: different_parent
//	assertions:
//	  - type: relations
//	    tag: Cat
//	    group: CatGroup
//	    tags: [Cat]
//	    ancestors: [Animal_auto]
//	  - type: invariants
//
// A step's expect is "ok" (the default) or the failure code the step must
// be rejected with. Unknown fields are rejected when loading.
//
// # Assertion Types
//
//   - relations: the tag's group name, tags and ancestors (nearest first)
//   - ungrouped: the tag belongs to no group
//   - forest: group names in pre-order
//   - invariants: partition, single parent and no cycles over the stored rows
//   - journal: number of journaled commands, optionally how many failed
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory database with sequential operation
// tokens ("<token_prefix>-1", ...) and a clock starting at zero, so the trace
// and final forest are identical across runs. RunWithGolden compares them
// against testdata/golden/<name>.golden.
package harness
