// Package seed loads declarative relation seeds written in CUE.
//
// A seed file lists tags to register and relation operations to apply:
//
//	tags: ["Cat", "Dog"]
//	operations: [
//		{op: "add_child", child: "Cat", parent: "Animal"},
//		{op: "add_synonym", tag: "Cat", group: "Felines"},
//	]
//
// Files are checked against an embedded schema before anything runs, so a
// typo in an op name or a missing argument is reported with its position.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// Seed is a decoded seed file.
type Seed struct {
	Tags       []string         `json:"tags"`
	Operations []engine.Command `json:"operations"`
}

// LoadError reports an invalid seed file, with the CUE position when known.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadFile reads and validates a seed file.
func LoadFile(path string) (*Seed, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Load(path, src)
}

// Load validates src against the seed schema and decodes it.
// filename is used only in error positions.
func Load(filename string, src []byte) (*Seed, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile seed schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Seed")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	seed := &Seed{}
	if err := v.Decode(seed); err != nil {
		return nil, formatCUEError(err)
	}
	if seed.Tags == nil {
		seed.Tags = []string{}
	}
	if seed.Operations == nil {
		seed.Operations = []engine.Command{}
	}
	return seed, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// TagRegistry creates tags by name. *store.Store implements it.
type TagRegistry interface {
	EnsureTag(ctx context.Context, name string) (model.TagRef, error)
}

// Executor runs one command. *engine.Engine implements it.
type Executor interface {
	Execute(ctx context.Context, cmd engine.Command) (engine.Outcome, error)
}

// Rejection is an operation the engine refused.
type Rejection struct {
	Index   int            `json:"index"`
	Command engine.Command `json:"command"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
}

// Report summarizes an Apply call.
type Report struct {
	Tags     int         `json:"tags"`
	Applied  int         `json:"applied"`
	Rejected []Rejection `json:"rejected"`
}

// Apply registers the seed's tags, then runs its operations in order.
//
// Each operation is its own unit of work: a rejected operation is recorded
// and the rest still run. Apply stops only on a command or store error.
func Apply(ctx context.Context, reg TagRegistry, exec Executor, s *Seed) (Report, error) {
	report := Report{Rejected: []Rejection{}}

	for _, name := range s.Tags {
		if _, err := reg.EnsureTag(ctx, name); err != nil {
			return report, fmt.Errorf("seed tag %q: %w", name, err)
		}
		report.Tags++
	}

	for i, cmd := range s.Operations {
		out, err := exec.Execute(ctx, cmd)
		if err != nil {
			return report, fmt.Errorf("seed operation %d: %w", i, err)
		}
		if out.OK {
			report.Applied++
			continue
		}
		slog.Debug("seed operation rejected", "index", i, "command", cmd.String(), "code", out.Code)
		report.Rejected = append(report.Rejected, Rejection{
			Index:   i,
			Command: cmd,
			Code:    out.Code,
			Message: out.Message,
		})
	}

	return report, nil
}
