package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "deeper", "state.json")

	got, err := EnsureParentDir(target)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	info, err := os.Stat(filepath.Dir(got))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureParentDir_Existing(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "state.json")

	_, err := EnsureParentDir(target)
	require.NoError(t, err)
	_, err = EnsureParentDir(target)
	require.NoError(t, err)
}
