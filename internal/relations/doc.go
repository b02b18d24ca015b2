// Package relations implements synonym groups and the group hierarchy over tags.
//
// Two relation kinds are kept consistent here:
//
//   - Synonym groups partition tags: a tag belongs to at most one group.
//   - Hierarchy edges arrange groups into a forest: each group is listed as a
//     child by at most one edge, and following parents never loops.
//
// Tags that take part in a hierarchy edge before being grouped get an auto
// group: a single-tag placeholder that is merged away once the tag is given
// an explicit group with AddSynonym.
//
// Every Manager operation is one unit of work. All reads and writes happen in
// a single store transaction; a business-rule violation returns a *Failure
// and rolls back everything the operation wrote, including auto groups it
// created on the way.
//
// The forest is never stored. BuildForest reconstructs it from the unordered
// group and edge records on every read; see tree.go.
package relations
