package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/relations"
	"github.com/roach88/tagrel/internal/store"
)

// Outcome is the result value of one command.
type Outcome struct {
	// Seq and Token identify the journal entry. Both are zero for reads.
	Seq   int64  `json:"seq,omitempty"`
	Token string `json:"token,omitempty"`

	OK      bool   `json:"ok"`
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	// Relations is set for get_relations.
	Relations []model.GroupDescription `json:"relations,omitempty"`
}

// Engine executes Commands against one store.
//
// Execute is not meant to be called concurrently: the store allows a single
// writer and journal seqs are assigned in call order.
type Engine struct {
	store   *store.Store
	manager *relations.Manager
	clock   *Clock
	tokens  TokenGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenGenerator replaces the default UUIDv7 token source.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithClock replaces the clock resumed from the journal.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over s. Unless WithClock is given, the clock resumes
// after the store's last journal seq.
func New(ctx context.Context, s *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:   s,
		manager: relations.New(s),
		tokens:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.clock == nil {
		c, err := ResumeClock(ctx, s)
		if err != nil {
			return nil, err
		}
		e.clock = c
	}
	return e, nil
}

// Execute runs cmd and returns its outcome.
//
// A business-rule failure yields Outcome{OK: false} and a nil error. The
// returned error is a *CommandError for malformed commands, or a store error.
// Mutating commands are journaled whether they succeed or fail.
func (e *Engine) Execute(ctx context.Context, cmd Command) (Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return Outcome{}, err
	}

	if !cmd.Mutating() {
		return e.read(ctx, cmd)
	}

	slog.Debug("executing command", "op", cmd.Op, "command", cmd.String())

	var out Outcome
	err := e.dispatch(ctx, cmd)
	if f, ok := relations.AsFailure(err); ok {
		out.Kind = string(f.Kind)
		out.Code = string(f.Code)
		out.Message = f.Message
	} else if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", cmd, err)
	} else {
		out.OK = true
	}

	// The seq is only consumed once its journal entry is written.
	err = e.clock.Advance(func(seq int64) error {
		out.Seq = seq
		out.Token = e.tokens.Generate()
		return e.journal(ctx, cmd, out)
	})
	if err != nil {
		return Outcome{}, err
	}

	if out.OK {
		slog.Info("command applied",
			"op", cmd.Op,
			"seq", out.Seq,
			"token", out.Token)
	} else {
		slog.Info("command rejected",
			"op", cmd.Op,
			"seq", out.Seq,
			"token", out.Token,
			"code", out.Code)
	}
	return out, nil
}

func (e *Engine) dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Op {
	case OpAddSynonym:
		tag, err := e.lookup(ctx, cmd.Tag)
		if err != nil {
			return err
		}
		return e.manager.AddSynonym(ctx, tag, cmd.Group)

	case OpRemoveSynonym:
		tag, err := e.lookup(ctx, cmd.Tag)
		if err != nil {
			return err
		}
		return e.manager.RemoveSynonym(ctx, tag, cmd.Group)

	case OpAddChild, OpRemoveChild:
		child, err := e.lookup(ctx, cmd.Child)
		if err != nil {
			return err
		}
		parent, err := e.lookup(ctx, cmd.Parent)
		if err != nil {
			return err
		}
		if cmd.Op == OpAddChild {
			return e.manager.AddChild(ctx, child, parent)
		}
		return e.manager.RemoveChild(ctx, child, parent)

	default:
		return &CommandError{Op: string(cmd.Op), Message: "not a mutating op"}
	}
}

// lookup resolves a tag name without registering it. Unknown names come back
// as a ref with no ID: AddSynonym and AddChild register those inside their own
// transaction, and for removals no group or edge can contain them, so the
// manager reports the precise not-found failure.
func (e *Engine) lookup(ctx context.Context, name string) (model.TagRef, error) {
	tag, err := e.store.ResolveTag(ctx, name)
	if errors.Is(err, store.ErrTagNotFound) {
		return model.TagRef{Name: model.NormalizeTagName(name)}, nil
	}
	return tag, err
}

func (e *Engine) read(ctx context.Context, cmd Command) (Outcome, error) {
	var tag *model.TagRef
	if cmd.Tag != "" {
		t, err := e.store.ResolveTag(ctx, cmd.Tag)
		if errors.Is(err, store.ErrTagNotFound) {
			return Outcome{OK: true, Relations: []model.GroupDescription{}}, nil
		}
		if err != nil {
			return Outcome{}, err
		}
		tag = &t
	}

	descs, err := e.manager.GetRelations(ctx, tag)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", cmd, err)
	}
	return Outcome{OK: true, Relations: descs}, nil
}

func (e *Engine) journal(ctx context.Context, cmd Command, out Outcome) error {
	args, err := cmd.marshalArgs()
	if err != nil {
		return err
	}

	entry := model.JournalEntry{
		Seq:     out.Seq,
		Token:   out.Token,
		Op:      string(cmd.Op),
		Args:    args,
		Outcome: model.OutcomeOK,
		Code:    out.Code,
		Message: out.Message,
	}
	if !out.OK {
		entry.Outcome = model.OutcomeFailed
	}
	return e.store.AppendJournal(ctx, entry)
}
