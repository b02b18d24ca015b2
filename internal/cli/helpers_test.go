package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/tagrel/internal/testutil"
)

// cliEnv runs commands against one database with deterministic tokens.
type cliEnv struct {
	t      *testing.T
	db     string
	tokens *testutil.SequentialTokens
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{
		t:      t,
		db:     filepath.Join(t.TempDir(), "tagrel.db"),
		tokens: testutil.NewSequentialTokens("op"),
	}
}

// run executes the root command with args followed by --db.
func (e *cliEnv) run(args ...string) (stdout, stderr string, err error) {
	e.t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommandWithOptions(&RootOptions{Tokens: e.tokens})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append(args, "--db", e.db))

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// mustRun fails the test when the command returns an error.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%v: %v\nstdout: %s\nstderr: %s", args, err, out, errOut)
	}
	return out
}

// seedAnimals builds the Animal/CatGroup hierarchy through the CLI.
func (e *cliEnv) seedAnimals() {
	e.t.Helper()
	e.mustRun("child", "add", "Cat", "Animal")
	e.mustRun("child", "add", "Pussy", "Animal")
	e.mustRun("child", "add", "Dog", "Animal")
	e.mustRun("synonym", "add", "Cat", "CatGroup")
	e.mustRun("synonym", "add", "Cat2", "CatGroup")
	e.mustRun("synonym", "add", "Pussy", "CatGroup")
	e.mustRun("child", "add", "Animal", "AnimalBase")
}
