package relations

import (
	"errors"
	"fmt"
)

// Kind classifies a Failure.
type Kind string

const (
	// KindNotFound means a group, tag membership or relation is absent.
	KindNotFound Kind = "NOT_FOUND"

	// KindConflict means the request contradicts existing relations.
	KindConflict Kind = "CONFLICT"

	// KindInvariant means the store holds data the manager assumed impossible.
	// It signals a defect, not a user mistake.
	KindInvariant Kind = "INVARIANT_VIOLATION"
)

// Code identifies the specific business rule that was violated.
type Code string

const (
	CodeInvalidName           Code = "invalid_name"
	CodeReservedName          Code = "reserved_name"
	CodeAlreadyMember         Code = "already_member"
	CodeAlreadyInGroup        Code = "already_in_group"
	CodeDifferentGroup        Code = "different_group"
	CodeIncompatibleHierarchy Code = "incompatible_hierarchy"
	CodeGroupNotFound         Code = "group_not_found"
	CodeTagNotInGroup         Code = "tag_not_in_group"
	CodeDifferentParent       Code = "different_parent"
	CodeAlreadySynonyms       Code = "already_synonyms"
	CodeAlreadyChild          Code = "already_child"
	CodeCycle                 Code = "cycle"
	CodeNoSuchRelation        Code = "no_such_relation"
	CodeUnresolvedTag         Code = "unresolved_tag"
	CodeDuplicateMembership   Code = "duplicate_membership"
)

// Codes lists every failure code.
var Codes = []Code{
	CodeInvalidName, CodeReservedName, CodeAlreadyMember, CodeAlreadyInGroup,
	CodeDifferentGroup, CodeIncompatibleHierarchy, CodeGroupNotFound,
	CodeTagNotInGroup, CodeDifferentParent, CodeAlreadySynonyms, CodeAlreadyChild,
	CodeCycle, CodeNoSuchRelation, CodeUnresolvedTag, CodeDuplicateMembership,
}

// KnownCode reports whether s names a failure code.
func KnownCode(s string) bool {
	for _, c := range Codes {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Failure is a business-rule violation returned by Manager operations.
//
// Failures are ordinary values: the operation had no effect and retrying it
// unchanged fails the same way. Store and I/O errors are never Failures.
type Failure struct {
	Kind    Kind
	Code    Code
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func notFound(code Code, format string, args ...any) *Failure {
	return &Failure{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflict(code Code, format string, args ...any) *Failure {
	return &Failure{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func invariant(code Code, format string, args ...any) *Failure {
	return &Failure{Kind: KindInvariant, Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a *Failure from err. Uses errors.As to handle wrapped errors.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsConflict reports whether err is a Conflict failure.
func IsConflict(err error) bool { return hasKind(err, KindConflict) }

// IsInvariant reports whether err is an InvariantViolation failure.
func IsInvariant(err error) bool { return hasKind(err, KindInvariant) }

// HasCode reports whether err is a failure with the given code.
func HasCode(err error, code Code) bool {
	f, ok := AsFailure(err)
	return ok && f.Code == code
}

func hasKind(err error, kind Kind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}
