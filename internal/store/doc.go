// Package store provides SQLite-backed storage for tag relations.
//
// The store holds four kinds of records:
//   - Tags: canonical tag identities (the tag identity provider)
//   - Synonym groups: named sets of tags (group_tags membership rows)
//   - Hierarchy edges: one parent group plus its child set (edge_children rows)
//   - Journal: append-only log of executed commands, ordered by logical seq
//
// # Invariants held by the schema
//
//   - group_tags.tag_id is UNIQUE: a tag belongs to at most one group
//   - edge_children.child_group_id is UNIQUE: a group has at most one parent edge
//   - synonym_groups.name is UNIQUE
//
// Edges reference groups by ID without foreign keys. Group replacement during
// a merge deletes the old groups before the edges are re-pointed, inside the
// same transaction.
//
// # Transactions
//
// Every relation mutation runs inside WithinTx. All reads and writes of one
// operation go through the Tx handed to the callback; returning an error (or
// a cancelled context) rolls the whole unit back.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All reads order by primary key so results are stable across runs.
package store
