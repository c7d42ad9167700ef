package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentFallsBackToDefault(t *testing.T) {
	name, th := Current("nord")
	assert.Equal(t, "nord", name)
	assert.Equal(t, "nord", th.Name)

	for _, configured := range []string{"", "solarized"} {
		name, th = Current(configured)
		assert.Equal(t, "default", name)
		assert.Equal(t, "default", th.Name)
	}
}

func TestEveryListedThemeExists(t *testing.T) {
	for _, name := range ListThemes() {
		th, err := GetTheme(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, th.Lanes, name)
	}
	_, err := GetTheme("nope")
	assert.ErrorIs(t, err, ErrThemeNotFound)
}
