package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RootGroupID is the ID of the synthetic forest root. No stored group uses it.
const RootGroupID GroupID = -1

// AutoGroupSuffix is appended to the tag name to build an auto group's name.
// User-named groups may not end with it.
const AutoGroupSuffix = "_auto"

// GroupID identifies a SynonymGroup.
type GroupID int64

// TagRef is a resolved tag identity. Two refs are the same tag iff their IDs match.
type TagRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SynonymGroup is a set of interchangeable tags.
//
// Auto groups are placeholders created for ungrouped tags that take part in a
// hierarchy edge. They hold exactly one tag when created.
type SynonymGroup struct {
	ID   GroupID `json:"id"`
	Name string  `json:"name"`
	Auto bool    `json:"auto"`
	Tags TagSet  `json:"tags"`
}

// HierarchyEdge links one parent group to all of its direct children.
type HierarchyEdge struct {
	ID       int64    `json:"id"`
	Parent   GroupID  `json:"parent"`
	Children GroupSet `json:"children"`
}

// GroupDescription is the read-side view of one group in the forest.
type GroupDescription struct {
	GroupName string   `json:"group_name"`
	Tags      []string `json:"tags"`
	Ancestors []string `json:"ancestors"` // nearest parent first, root excluded
}

// JournalEntry records one executed command and its outcome.
type JournalEntry struct {
	Seq     int64  `json:"seq"`
	Token   string `json:"token"`
	Op      string `json:"op"`
	Args    string `json:"args"` // canonical JSON of the command arguments
	Outcome string `json:"outcome"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Journal outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// AutoGroupName returns the reserved placeholder name for a tag.
func AutoGroupName(tag TagRef) string {
	return tag.Name + AutoGroupSuffix
}

// IsReservedGroupName reports whether name is in the auto group namespace.
func IsReservedGroupName(name string) bool {
	return strings.HasSuffix(name, AutoGroupSuffix)
}

// NormalizeTagName returns the identity form of a tag name (Unicode NFC).
// Composed and decomposed spellings of the same text resolve to one tag.
func NormalizeTagName(name string) string {
	return norm.NFC.String(name)
}

// Describe builds a GroupDescription with tag names sorted.
func Describe(g SynonymGroup, ancestors []string) GroupDescription {
	if ancestors == nil {
		ancestors = []string{}
	}
	return GroupDescription{
		GroupName: g.Name,
		Tags:      g.Tags.Names(),
		Ancestors: ancestors,
	}
}
