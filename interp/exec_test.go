package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellExecutor(t *testing.T) {
	var stderr bytes.Buffer
	exec := &shellExecutor{stderr: &stderr}

	out, code, err := exec.Execute("echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
	assert.Equal(t, 0, code)
}

func TestShellExecutorExitCode(t *testing.T) {
	exec := &shellExecutor{stderr: &bytes.Buffer{}}

	_, code, err := exec.Execute("exit 7")
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestShellExecutorStderr(t *testing.T) {
	var stderr bytes.Buffer
	exec := &shellExecutor{stderr: &stderr}

	out, code, err := exec.Execute("echo oops >&2")
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.Equal(t, 0, code)
	assert.Equal(t, "oops\n", stderr.String())
}

func TestShellExecutorCustomShell(t *testing.T) {
	exec := &shellExecutor{shell: []string{"sh", "-c"}, stderr: &bytes.Buffer{}}

	out, code, err := exec.Execute("printf x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	assert.Equal(t, 0, code)
}
