package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func updateSetup(t *testing.T, m SetupModel, msg tea.Msg) SetupModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(SetupModel)
	require.True(t, ok)
	return out
}

func TestSetupMovesThroughThemes(t *testing.T) {
	m := NewSetupModel()
	first := m.Selected()

	m = updateSetup(t, m, runes("k"))
	assert.Equal(t, first, m.Selected(), "the cursor stops at the top")

	m = updateSetup(t, m, runes("j"))
	assert.NotEqual(t, first, m.Selected())
	assert.Equal(t, m.Selected(), m.current.Name)
	assert.Contains(t, m.View(), "▶ "+m.Selected())
}

func TestSetupSavesSelection(t *testing.T) {
	var saved string
	m := NewSetupModel()
	m.saveFunc = func(name string) error {
		saved = name
		return nil
	}

	m = updateSetup(t, m, runes("j"))
	m = updateSetup(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, m.Selected(), saved)
	assert.True(t, m.saved)
	assert.Empty(t, m.View())
}

func TestSetupReportsSaveFailure(t *testing.T) {
	m := NewSetupModel()
	m.saveFunc = func(string) error { return errors.New("read-only home") }

	m = updateSetup(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.saved)
	assert.Contains(t, m.View(), "read-only home")
}

func TestSetupTooSmall(t *testing.T) {
	m := updateSetup(t, NewSetupModel(), tea.WindowSizeMsg{Width: 40, Height: 8})
	assert.Contains(t, m.View(), "Terminal too small")
}
