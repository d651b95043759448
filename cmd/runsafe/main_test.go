package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/runsafetonight/internal/config"
)

var errExited = errors.New("exited")

// runExit runs args, turning kong's exit into a recovered panic.
func runExit(t *testing.T, args ...string) (code int, out string, err error) {
	t.Helper()
	var buf bytes.Buffer
	code = -1
	func() {
		defer func() {
			if r := recover(); r != nil && r != errExited {
				panic(r)
			}
		}()
		err = run(args,
			kong.Writers(&buf, &buf),
			kong.Exit(func(c int) {
				code = c
				panic(errExited)
			}),
		)
	}()
	return code, buf.String(), err
}

func TestRun_HelpWithInvalidEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	code, out, err := runExit(t, "--help")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "readiness")
}

func TestRun_InvalidEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	code, _, err := runExit(t, "readiness", "veteran")
	assert.Equal(t, -1, code)

	var cfgErr *config.Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, config.ErrValidation, cfgErr.Type)
}
