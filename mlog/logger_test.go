package mlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(&LogConfig{Level: "bogus"})
	require.Error(t, err)

	// zapcore.ParseLevel treats "" as info.
	lg, err := NewLogger(&LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, lg)

	p := filepath.Join(t.TempDir(), "nscache.log")
	lg, err = NewLogger(&LogConfig{Level: "debug", File: p, Production: true})
	require.NoError(t, err)
	lg.Info("hello")
	require.NoError(t, lg.Sync())

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"hello"`)
}
