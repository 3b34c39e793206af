package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Symbol{Name: "XAUUSD"}, Parse("xauusd"))
	assert.Equal(t, Symbol{Name: "XAUUSD", Suffix: "p"}, Parse("XAUUSD.p"))
	assert.Equal(t, Symbol{Name: "XAUUSD"}, Parse("GOLD"))
	assert.Equal(t, Symbol{Name: "NAS100"}, Parse("nasdaq"))
	assert.Equal(t, Symbol{}, Parse("  "))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "XAUUSD.p", Normalize("gold.P"))
	assert.Equal(t, "EURUSD", Normalize("eurusd"))
	assert.Equal(t, "", Normalize(""))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "XAUUSD.p", WithSuffix("GOLD", "p"))
	assert.Equal(t, "XAUUSD.p", WithSuffix("GOLD", ".p"))
	assert.Equal(t, "XAUUSD.raw", WithSuffix("XAUUSD.raw", "p"), "existing suffix wins")
	assert.Equal(t, "EURUSD", WithSuffix("eurusd", ""))
	assert.Equal(t, "", WithSuffix("", "p"))
}

func TestIsCandidate(t *testing.T) {
	assert.True(t, IsCandidate("XAUUSD"))
	assert.True(t, IsCandidate("US30"))
	assert.True(t, IsCandidate("eurusd.p"))
	assert.False(t, IsCandidate("GO"))
	assert.False(t, IsCandidate("3305"))
	assert.False(t, IsCandidate("1.0850"))
	assert.False(t, IsCandidate("averyveryverylongtoken"))
}
