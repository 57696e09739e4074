package acpi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

func newFixture(t *testing.T, profile, choices string) (string, *Backend) {
	t.Helper()
	root := t.TempDir()
	profilePath := filepath.Join(root, "platform_profile")
	choicesPath := filepath.Join(root, "platform_profile_choices")
	require.NoError(t, os.WriteFile(profilePath, []byte(profile), 0644))
	require.NoError(t, os.WriteFile(choicesPath, []byte(choices), 0644))
	return root, New(profilePath, choicesPath)
}

func TestProbe(t *testing.T) {
	root, _ := newFixture(t, "balanced", "low-power balanced performance")
	assert.True(t, Probe(filepath.Join(root, "platform_profile"), filepath.Join(root, "platform_profile_choices")))
	assert.False(t, Probe(filepath.Join(root, "missing"), filepath.Join(root, "platform_profile_choices")))
}

func TestPowerProfileAndChoices(t *testing.T) {
	_, b := newFixture(t, "balanced\n", "low-power balanced performance\n")

	profile, err := b.PowerProfile()
	require.NoError(t, err)
	assert.Equal(t, "balanced", profile)

	choices, err := b.PowerProfilesAvailable()
	require.NoError(t, err)
	assert.Equal(t, []string{"low-power", "balanced", "performance"}, choices)
}

func TestSetPowerProfileDirectMatch(t *testing.T) {
	root, b := newFixture(t, "balanced", "low-power balanced performance")
	require.NoError(t, b.SetPowerProfile("performance"))

	data, err := os.ReadFile(filepath.Join(root, "platform_profile"))
	require.NoError(t, err)
	assert.Equal(t, "performance", strings.TrimSpace(string(data)))
}

func TestSetPowerProfileLegacyTranslation(t *testing.T) {
	root, b := newFixture(t, "balanced", "low-power balanced performance")

	require.NoError(t, b.SetPowerProfile("max-performance"))
	data, err := os.ReadFile(filepath.Join(root, "platform_profile"))
	require.NoError(t, err)
	assert.Equal(t, "performance", strings.TrimSpace(string(data)))
}

func TestSetPowerProfileNoopWhenAlreadyActive(t *testing.T) {
	_, b := newFixture(t, "performance", "low-power balanced performance")
	require.NoError(t, b.SetPowerProfile("performance"))
}

func TestSetPowerProfileRejectsUntranslatable(t *testing.T) {
	_, b := newFixture(t, "balanced", "low-power balanced performance")
	err := b.SetPowerProfile("turbo")
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestTDPAndBoostAreUnsupported(t *testing.T) {
	_, b := newFixture(t, "balanced", "low-power balanced performance")

	_, err := b.TDP()
	assert.True(t, errdefs.IsFeatureUnsupported(err))
	assert.True(t, errdefs.IsFeatureUnsupported(b.SetTDP(10)))
	_, err = b.Boost()
	assert.True(t, errdefs.IsFeatureUnsupported(err))
	assert.True(t, errdefs.IsFeatureUnsupported(b.SetBoost(10)))
	_, err = b.ThermalThrottleLimitC()
	assert.True(t, errdefs.IsFeatureUnsupported(err))
	assert.True(t, errdefs.IsFeatureUnsupported(b.SetThermalThrottleLimitC(90)))
}
