package profile_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulsar/pulsarctl/command"
	"github.com/openpulsar/pulsarctl/internal/profile"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			p := profile.Default()
			p.Name = "gaming"
			p.PollingRate = 4000
			p.Buttons[4] = command.ActionDPICycle.String()

			path := filepath.Join(t.TempDir(), "gaming"+ext)
			require.NoError(t, p.Save(path))

			loaded, err := profile.Load(path)
			require.NoError(t, err)
			assert.Equal(t, p, loaded)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := profile.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSettingsOrder(t *testing.T) {
	p := profile.Default()
	settings, err := p.Settings()
	require.NoError(t, err)
	require.Len(t, settings, 6)

	assert.IsType(t, command.DPITable{}, settings[0])
	assert.IsType(t, command.PollingRate{}, settings[1])
	assert.IsType(t, command.LiftOffDistance{}, settings[2])
	assert.IsType(t, command.MotionSync{}, settings[3])
	assert.IsType(t, command.ButtonMap{}, settings[4])
	assert.IsType(t, command.PowerOptions{}, settings[5])
}

func TestSettingsRejectsUnknownAction(t *testing.T) {
	p := profile.Default()
	p.Buttons[2] = "hyperspace"
	_, err := p.Settings()
	assert.Error(t, err)
}

func TestSettingsWithoutButtons(t *testing.T) {
	p := profile.Default()
	p.Buttons = nil
	settings, err := p.Settings()
	require.NoError(t, err)
	assert.Len(t, settings, 5)
}
