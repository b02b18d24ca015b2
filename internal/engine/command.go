package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/tagrel/internal/model"
)

// Op names a relations operation.
type Op string

const (
	OpAddSynonym    Op = "add_synonym"
	OpRemoveSynonym Op = "remove_synonym"
	OpAddChild      Op = "add_child"
	OpRemoveChild   Op = "remove_child"
	OpGetRelations  Op = "get_relations"
)

// Ops lists every op in a stable order.
var Ops = []Op{OpAddSynonym, OpRemoveSynonym, OpAddChild, OpRemoveChild, OpGetRelations}

// Command is one name-based request. Which fields are required depends on Op:
//
//	add_synonym, remove_synonym: Tag, Group
//	add_child, remove_child:     Child, Parent
//	get_relations:               Tag (optional; empty means every group)
type Command struct {
	Op     Op     `json:"op" yaml:"op"`
	Tag    string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Group  string `json:"group,omitempty" yaml:"group,omitempty"`
	Child  string `json:"child,omitempty" yaml:"child,omitempty"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// Mutating reports whether the command changes relations and is journaled.
func (c Command) Mutating() bool {
	return c.Op != OpGetRelations
}

// Validate checks that the op is known and its required arguments are set.
func (c Command) Validate() error {
	required := func(field, value string) error {
		if strings.TrimSpace(value) == "" {
			return &CommandError{Op: string(c.Op), Field: field, Message: "required"}
		}
		return nil
	}

	switch c.Op {
	case OpAddSynonym, OpRemoveSynonym:
		if err := required("tag", c.Tag); err != nil {
			return err
		}
		return required("group", c.Group)
	case OpAddChild, OpRemoveChild:
		if err := required("child", c.Child); err != nil {
			return err
		}
		return required("parent", c.Parent)
	case OpGetRelations:
		return nil
	case "":
		return &CommandError{Op: "<empty>", Message: "op is required"}
	default:
		return &CommandError{Op: string(c.Op), Message: fmt.Sprintf("unknown op (want one of %v)", Ops)}
	}
}

// String renders the command the way it is typed on the command line.
func (c Command) String() string {
	switch c.Op {
	case OpAddSynonym, OpRemoveSynonym:
		return fmt.Sprintf("%s(%s, %s)", c.Op, c.Tag, c.Group)
	case OpAddChild, OpRemoveChild:
		return fmt.Sprintf("%s(%s, %s)", c.Op, c.Child, c.Parent)
	case OpGetRelations:
		if c.Tag == "" {
			return string(c.Op) + "()"
		}
		return fmt.Sprintf("%s(%s)", c.Op, c.Tag)
	default:
		return string(c.Op)
	}
}

// commandArgs is the journaled argument form of a Command. Field order is
// fixed, so the encoding is canonical.
type commandArgs struct {
	Tag    string `json:"tag,omitempty"`
	Group  string `json:"group,omitempty"`
	Child  string `json:"child,omitempty"`
	Parent string `json:"parent,omitempty"`
}

func (c Command) marshalArgs() (string, error) {
	data, err := json.Marshal(commandArgs{Tag: c.Tag, Group: c.Group, Child: c.Child, Parent: c.Parent})
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// CommandFromJournal rebuilds the command recorded in a journal entry.
func CommandFromJournal(e model.JournalEntry) (Command, error) {
	var args commandArgs
	if err := json.Unmarshal([]byte(e.Args), &args); err != nil {
		return Command{}, fmt.Errorf("journal seq %d: unmarshal args: %w", e.Seq, err)
	}
	return Command{
		Op:     Op(e.Op),
		Tag:    args.Tag,
		Group:  args.Group,
		Child:  args.Child,
		Parent: args.Parent,
	}, nil
}
