package rapl

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

func readMicrowatts(t *testing.T, zonePath, attr string) int64 {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(zonePath, attr))
	require.NoError(t, err)
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	require.NoError(t, err)
	return v
}

func newFixture(t *testing.T) (string, *Backend) {
	t.Helper()
	zone := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(zone, attrLong), []byte("15000000"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(zone, attrShort), []byte("25000000"), 0644))
	return zone, New(zone)
}

func TestProbe(t *testing.T) {
	zone, _ := newFixture(t)
	assert.True(t, Probe(zone))
	assert.False(t, Probe(filepath.Join(zone, "missing")))
}

// TestTDPAndBoostScenario5 is spec.md's literal Scenario 5:
// constraint_0=15000000, constraint_1=25000000 -> TDP=15, Boost=10.
func TestTDPAndBoostScenario5(t *testing.T) {
	_, b := newFixture(t)

	tdp, err := b.TDP()
	require.NoError(t, err)
	assert.Equal(t, 15.0, tdp)

	boost, err := b.Boost()
	require.NoError(t, err)
	assert.Equal(t, 10.0, boost)
}

// TestSetTDPScenario5 continues spec.md's Scenario 5: after
// SetTDP(20), expect constraint_0=20000000, constraint_1=30000000.
func TestSetTDPScenario5(t *testing.T) {
	zone, b := newFixture(t)

	require.NoError(t, b.SetTDP(20))
	assert.EqualValues(t, 20_000_000, readMicrowatts(t, zone, attrLong))
	assert.EqualValues(t, 30_000_000, readMicrowatts(t, zone, attrShort))
}

func TestSetBoostWritesOnlyShortTerm(t *testing.T) {
	zone, b := newFixture(t)
	require.NoError(t, b.SetBoost(0))
	assert.EqualValues(t, 15_000_000, readMicrowatts(t, zone, attrShort))
	assert.NoFileExists(t, filepath.Join(zone, attrPeak))
}

func TestBoostFloorsAtZero(t *testing.T) {
	zone := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(zone, attrLong), []byte("15000000"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(zone, attrShort), []byte("10000000"), 0644))
	b := New(zone)

	boost, err := b.Boost()
	require.NoError(t, err)
	assert.Equal(t, 0.0, boost)
}

// TestBoostFallsBackToPeakWhenShortAbsent exercises the legacy
// constraint_2 fallback: constraint_1 does not exist on this zone, so
// Boost reads constraint_2 instead.
func TestBoostFallsBackToPeakWhenShortAbsent(t *testing.T) {
	zone := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(zone, attrLong), []byte("15000000"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(zone, attrPeak), []byte("20000000"), 0644))
	b := New(zone)

	boost, err := b.Boost()
	require.NoError(t, err)
	assert.Equal(t, 5.0, boost) // 20 - 15, via constraint_2 fallback
}

func TestSetTDPRejectsBelowOne(t *testing.T) {
	_, b := newFixture(t)
	err := b.SetTDP(0.5)
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestSetBoostRejectsNegative(t *testing.T) {
	_, b := newFixture(t)
	err := b.SetBoost(-1)
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestThermalAndProfileAreUnsupported(t *testing.T) {
	_, b := newFixture(t)

	_, err := b.ThermalThrottleLimitC()
	assert.True(t, errdefs.IsFeatureUnsupported(err))
	assert.True(t, errdefs.IsFeatureUnsupported(b.SetThermalThrottleLimitC(90)))
	_, err = b.PowerProfile()
	assert.True(t, errdefs.IsFeatureUnsupported(err))
	assert.True(t, errdefs.IsFeatureUnsupported(b.SetPowerProfile("max-performance")))
	_, err = b.PowerProfilesAvailable()
	assert.True(t, errdefs.IsFeatureUnsupported(err))
}
