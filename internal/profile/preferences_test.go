package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	assert.Equal(t, true, prefs["notifications"])
	assert.Equal(t, true, prefs["sounds"])
	assert.Equal(t, true, prefs["music"])
	assert.Equal(t, "regular", prefs["default_game"])

	_, invalid := prefs.FirstInvalidKey()
	assert.False(t, invalid, "defaults must stay inside the whitelist")
}

func Test_FirstInvalidKey(t *testing.T) {
	_, invalid := Preferences{"language": "en", "sounds": false}.FirstInvalidKey()
	assert.False(t, invalid)

	key, invalid := Preferences{"language": "en", "theme": "dark"}.FirstInvalidKey()
	require.True(t, invalid)
	assert.Equal(t, "theme", key)
}

func Test_Merge(t *testing.T) {
	base := Preferences{"music": true}

	merged := base.Merge(Preferences{"language": "de"})
	assert.Equal(t, Preferences{"music": true, "language": "de"}, merged)

	merged = merged.Merge(Preferences{"music": false})
	assert.Equal(t, false, merged["music"])
	assert.Equal(t, "de", merged["language"])

	// Merge never mutates the receiver.
	assert.Equal(t, Preferences{"music": true}, base)
}

func Test_GameSubset(t *testing.T) {
	prefs := Preferences{
		"notifications":  true,
		"music":          false,
		"default_game":   "blitz",
		"num_of_players": float64(4),
		"language":       "en",
	}

	subset := prefs.GameSubset()
	assert.Equal(t, Preferences{
		"default_game":   "blitz",
		"num_of_players": float64(4),
		"language":       "en",
	}, subset)
}
