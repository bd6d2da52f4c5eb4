package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Static(t *testing.T) {
	g, err := NewGate(GateOpts{Token: "s3cret"})
	require.NoError(t, err)
	defer g.Close()

	tests := []struct {
		header string
		want   bool
	}{
		{"Bearer s3cret", true},
		{"bearer s3cret", true},
		{"Bearer  s3cret ", true},
		{"Bearer wrong", false},
		{"Bearer ", false},
		{"Bearer", false},
		{"Basic s3cret", false},
		{"s3cret", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Allow(tt.header), "%q", tt.header)
	}
}

func TestGate_NoToken(t *testing.T) {
	_, err := NewGate(GateOpts{})
	assert.ErrorIs(t, err, ErrNoToken)

	p := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(p, []byte("  \n"), 0o600))
	_, err = NewGate(GateOpts{File: p})
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = NewGate(GateOpts{File: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestGate_FileReload(t *testing.T) {
	p := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(p, []byte("first\n"), 0o600))

	g, err := NewGate(GateOpts{File: p, Token: "ignored"})
	require.NoError(t, err)
	defer g.Close()

	assert.True(t, g.Allow("Bearer first"))
	assert.False(t, g.Allow("Bearer ignored"))

	require.NoError(t, os.WriteFile(p, []byte("second\n"), 0o600))
	require.Eventually(t, func() bool { return g.Allow("Bearer second") }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, g.Allow("Bearer first"))
}
