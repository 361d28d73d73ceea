package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":                {nil, 0},
		"validation":         {ValidationError("bad frontmatter").Build(), 2},
		"not found":          {NotFoundError("no post").Build(), 4},
		"auth":               {AuthError("unauthorized").Build(), 5},
		"config":             {ConfigError("bad config").Build(), 7},
		"wrapped forge":      {fmt.Errorf("publish: %w", ForgeError("merge failed").Build()), 8},
		"network":            {NetworkError("reset").Build(), 8},
		"internal":           {InternalError("panic").Build(), 10},
		"store":              {StoreError("locked").Build(), 11},
		"daemon":             {DaemonError("watch failed").Build(), 12},
		"unknown category":   {NewError("other", "x").Build(), 1},
		"unclassified plain": {stderrors.New("boom"), 1},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestFormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	assert.Empty(t, adapter.FormatError(nil))
	assert.Equal(t, "Internal error occurred (use -v for details)", adapter.FormatError(InternalError("internal issue").Build()))
	assert.Equal(t, "Error: bad config: line 3", adapter.FormatError(ConfigError("bad config").WithCause(stderrors.New("line 3")).Build()))
	assert.Equal(t, "Error: unknown error", adapter.FormatError(stderrors.New("unknown error")))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Equal(t, "[auth:error] token missing", verbose.FormatError(AuthError("token missing").Build()))
}

func TestHandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(nil)
	assert.Equal(t, -1, code)

	adapter.HandleError(NotFoundError("no post for slug").Build())
	assert.Equal(t, 4, code)
	assert.Equal(t, "Error: no post for slug\n", stderr.String())
	assert.Empty(t, logs.String(), "non-fatal errors are not logged outside verbose mode")

	stderr.Reset()
	adapter.HandleError(ConfigError("missing sites").Build())
	assert.Equal(t, 7, code)
	assert.Contains(t, logs.String(), "missing sites")
	assert.Contains(t, logs.String(), "category=config")
}
