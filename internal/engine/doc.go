// Package engine is the public operation surface over the relations core.
//
// The engine takes name-based Commands, resolves tag names through the tag
// registry, runs the matching relations.Manager operation and reports the
// result as an Outcome value. Business-rule failures are Outcomes, not Go
// errors; Execute returns an error only for malformed commands and store
// failures.
//
// Every mutating command is stamped with a sequence number from a logical
// Clock and an operation token, and its outcome is appended to the journal.
// Replay re-executes a journal against a fresh in-memory store and reports
// any command whose outcome differs from the recorded one.
//
// Sequence numbers come from the Clock, never from wall time. The clock
// resumes from the journal's last seq when an engine is opened on an
// existing database.
package engine
