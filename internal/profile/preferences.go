package profile

// Preferences maps whitelisted keys to arbitrary JSON values (booleans,
// strings, numbers, arrays, objects). The key set is closed; values are not
// schema-checked.
type Preferences map[string]any

// validPreferences is the full whitelist of accepted preference keys.
var validPreferences = map[string]struct{}{
	"notifications":  {},
	"sounds":         {},
	"music":          {},
	"default_game":   {},
	"num_of_players": {},
	"language":       {},
}

// gamePreferences tags the subset relevant to game setup.
var gamePreferences = map[string]struct{}{
	"default_game":   {},
	"num_of_players": {},
	"language":       {},
}

// DefaultPreferences returns the preference set every new profile starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		"notifications": true,
		"sounds":        true,
		"music":         true,
		"default_game":  "regular",
	}
}

// IsValidPreference reports whether key is in the whitelist.
func IsValidPreference(key string) bool {
	_, ok := validPreferences[key]
	return ok
}

// FirstInvalidKey returns the first key outside the whitelist, if any.
// Used to reject a whole update before anything is merged.
func (p Preferences) FirstInvalidKey() (string, bool) {
	for key := range p {
		if !IsValidPreference(key) {
			return key, true
		}
	}
	return "", false
}

// Merge unions incoming into p with override, returning a new map. Keys not
// mentioned in incoming are preserved. Callers validate incoming first.
func (p Preferences) Merge(incoming Preferences) Preferences {
	merged := make(Preferences, len(p)+len(incoming))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}

// GameSubset filters p down to the game-preferences keys.
func (p Preferences) GameSubset() Preferences {
	subset := make(Preferences)
	for k, v := range p {
		if _, ok := gamePreferences[k]; ok {
			subset[k] = v
		}
	}
	return subset
}
