package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// board runs CLI commands against one SQLite file.
type board struct {
	t  *testing.T
	db string
}

func newBoard(t *testing.T) *board {
	t.Helper()
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("REDIS_ADDR", "")
	return &board{t: t, db: filepath.Join(t.TempDir(), "board.db")}
}

// run executes args with --db set and returns stdout.
func (b *board) run(args ...string) (string, error) {
	b.t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--db", b.db))
	err := cmd.Execute()
	return out.String(), err
}

func (b *board) mustRun(args ...string) string {
	b.t.Helper()
	out, err := b.run(args...)
	require.NoError(b.t, err, out)
	return out
}

// runJSON runs with --format json and decodes the envelope.
func (b *board) runJSON(args ...string) (Response, json.RawMessage, error) {
	b.t.Helper()
	out, err := b.run(append(args, "--format", "json")...)
	var env struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(b.t, json.Unmarshal([]byte(out), &env), out)
	return env.Response, env.Data, err
}

func TestInit(t *testing.T) {
	b := newBoard(t)

	out, err := b.run("postings", "list")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "not_initialized")

	assert.Equal(t, "board initialized\n", b.mustRun("init"))

	resp, _, err := b.runJSON("init")
	require.Error(t, err)
	assert.Equal(t, "already_initialized", resp.Error.Code)
}

func TestPostingsCommands(t *testing.T) {
	b := newBoard(t)
	b.mustRun("init")

	out := b.mustRun("postings", "create", "--as", "alice", "--title", "Go developer", "--contact", "jobs@example.com")
	assert.Equal(t, "created posting 0\n", out)
	b.mustRun("postings", "create", "--as", "alice", "--title", "SRE", "--description", "On call")

	resp, data, err := b.runJSON("postings", "list", "--from", "1", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.JSONEq(t, `[{"id":1,"posting":{"id":1,"title":"SRE","description":"On call","contact":""}}]`, string(data))

	out = b.mustRun("postings", "list")
	assert.Contains(t, out, "Go developer")
	assert.Contains(t, out, "jobs@example.com")

	out, err = b.run("postings", "delete", "0", "--as", "bob")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [unauthorized]")

	assert.Equal(t, "deleted posting 0 (Go developer)\n", b.mustRun("postings", "delete", "0", "--as", "alice"))
	assert.Equal(t, "deleted posting 1 (SRE)\n", b.mustRun("postings", "delete", "1", "--as", "alice"))

	resp, _, err = b.runJSON("postings", "list")
	require.Error(t, err)
	assert.Equal(t, "empty_collection", resp.Error.Code)
}

func TestPostingsCreate_Validation(t *testing.T) {
	b := newBoard(t)
	b.mustRun("init")

	resp, _, err := b.runJSON("postings", "create", "--as", "alice")
	require.Error(t, err)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "title", resp.Error.Field)

	_, err = b.run("postings", "create", "--title", "no owner")
	require.Error(t, err, "--as is required")

	resp, _, err = b.runJSON("postings", "delete", "seven", "--as", "alice")
	require.Error(t, err)
	assert.Equal(t, "validation_error", resp.Error.Code)
}

func TestRepliesCommands(t *testing.T) {
	b := newBoard(t)
	b.mustRun("init")
	b.mustRun("postings", "create", "--as", "alice", "--title", "Go developer")

	assert.Equal(t, "no replies to posting 0\n", b.mustRun("replies", "list", "0"))

	out := b.mustRun("replies", "create", "0", "--github", "octocat", "--description", "Five years of Go", "--contact", "oc@example.com")
	assert.Equal(t, "replied to posting 0 as octocat\n", out)

	_, data, err := b.runJSON("replies", "list", "0")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"github":"octocat","description":"Five years of Go","contact":"oc@example.com"}]`, string(data))

	b.mustRun("postings", "delete", "0", "--as", "alice")
	assert.Equal(t, "no replies to posting 0\n", b.mustRun("replies", "list", "0"))

	_, data, err = b.runJSON("stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"postings":0,"replies":0,"nextPostingId":1,"nextReplyId":1}`, string(data))
}

func TestCommandErrors(t *testing.T) {
	b := newBoard(t)

	_, err := b.run("stats", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	t.Setenv("STORE_DRIVER", "memory")
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"stats"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "memory store")
}
