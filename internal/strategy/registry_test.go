package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRegistrySelect(t *testing.T) {
	r := NewStaticRegistry(KindAdaptive, 0.01)

	sel := r.Select("XAUUSD")
	assert.Equal(t, KindAdaptive, sel.Kind)
	assert.Equal(t, 0.01, sel.Volume)

	// Unknown symbols share the fallback.
	assert.Equal(t, sel, r.Select("GBPJPY"))
}

func TestRegistryLoadsProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := []byte(`strategy: midpoint
default_volume: 0.02
symbols:
  XAUUSD:
    strategy: range_break
    volume: 0.05
  EURUSD:
    strategy: momentum
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	r, err := NewRegistry(path, KindAdaptive, 0.01)
	require.NoError(t, err)

	gold := r.Select("XAUUSD")
	assert.Equal(t, KindRangeBreak, gold.Kind)
	assert.Equal(t, 0.05, gold.Volume)

	// Per-symbol strategy without volume inherits the file default.
	eur := r.Select("EURUSD")
	assert.Equal(t, KindMomentum, eur.Kind)
	assert.Equal(t, 0.02, eur.Volume)

	// File-level defaults replace the constructor fallback.
	other := r.Select("GBPUSD")
	assert.Equal(t, KindMidpoint, other.Kind)
	assert.Equal(t, 0.02, other.Volume)
}

func TestRegistrySelectIgnoresBrokerSuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := []byte(`symbols:
  XAUUSD:
    strategy: range_break
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	r, err := NewRegistry(path, KindAdaptive, 0.01)
	require.NoError(t, err)
	assert.Equal(t, KindRangeBreak, r.Select("XAUUSD.p").Kind)
}

func TestRegistrySeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "profiles.yaml")
	r, err := NewRegistry(path, KindMomentum, 0.03)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "missing file is seeded with defaults")

	sel := r.Select("XAUUSD")
	assert.Equal(t, KindMomentum, sel.Kind)
	assert.Equal(t, 0.03, sel.Volume)
}

func TestRegistryRejectsUnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: scalping\n"), 0o644))

	_, err := NewRegistry(path, KindAdaptive, 0.01)
	assert.Error(t, err)
}
