package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncFileWritesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.log")
	af, err := newAsyncFile(path)
	require.NoError(t, err)

	var want string
	for i := 0; i < 250; i++ {
		line := fmt.Sprintf("line %d\n", i)
		want += line
		require.NoError(t, af.Write([]byte(line)))
	}
	require.NoError(t, af.Close(), "Close drains the queue before closing")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(content))
}

func TestAsyncFileWriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.log")
	af, err := newAsyncFile(path)
	require.NoError(t, err)
	require.NoError(t, af.Close())

	err = af.Write([]byte("late\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is closed")
}

func TestAsyncFileCallerMayReuseBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.log")
	af, err := newAsyncFile(path)
	require.NoError(t, err)

	buf := []byte("first\n")
	require.NoError(t, af.Write(buf))
	copy(buf, []byte("XXXXX\n"))
	require.NoError(t, af.Write(buf))
	require.NoError(t, af.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nXXXXX\n", string(content))
}
