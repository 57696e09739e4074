package tdp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/internal/pciids"
)

func writeFixtureFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestBuildBackendsAMDWithoutRyzenAdjFallsBackToAcpi(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "platform_profile")
	choicesPath := filepath.Join(dir, "platform_profile_choices")
	writeFixtureFile(t, profilePath, "balanced")
	writeFixtureFile(t, choicesPath, "balanced performance")

	backends := BuildBackends(pciids.VendorAMD, AssembleOptions{
		AsusWmiRoot:     filepath.Join(dir, "no-such-asus-root"),
		AcpiProfilePath: profilePath,
		AcpiChoicesPath: choicesPath,
	})

	require.Len(t, backends, 1)
	assert.Equal(t, "acpi", backends[0].Name())
}

func TestBuildBackendsIntelUsesRaplWhenPresent(t *testing.T) {
	dir := t.TempDir()
	zoneDir := filepath.Join(dir, "intel-rapl:0")
	require.NoError(t, os.MkdirAll(zoneDir, 0755))
	writeFixtureFile(t, filepath.Join(zoneDir, "constraint_0_power_limit_uw"), "15000000")
	writeFixtureFile(t, filepath.Join(zoneDir, "constraint_1_power_limit_uw"), "18000000")
	writeFixtureFile(t, filepath.Join(zoneDir, "constraint_2_power_limit_uw"), "20000000")

	backends := BuildBackends(pciids.VendorIntel, AssembleOptions{
		RaplZonePath:    zoneDir,
		AcpiProfilePath: filepath.Join(dir, "no-such-profile"),
		AcpiChoicesPath: filepath.Join(dir, "no-such-choices"),
	})

	require.Len(t, backends, 1)
	assert.Equal(t, "rapl", backends[0].Name())
}

func TestBuildBackendsUnknownVendorStillTriesAcpi(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "platform_profile")
	choicesPath := filepath.Join(dir, "platform_profile_choices")
	writeFixtureFile(t, profilePath, "balanced")
	writeFixtureFile(t, choicesPath, "balanced performance")

	backends := BuildBackends("", AssembleOptions{
		AcpiProfilePath: profilePath,
		AcpiChoicesPath: choicesPath,
	})

	require.Len(t, backends, 1)
	assert.Equal(t, "acpi", backends[0].Name())
}

func TestBuildBackendsNoneAvailable(t *testing.T) {
	dir := t.TempDir()
	backends := BuildBackends(pciids.VendorAMD, AssembleOptions{
		AsusWmiRoot:     filepath.Join(dir, "missing"),
		AcpiProfilePath: filepath.Join(dir, "missing-profile"),
		AcpiChoicesPath: filepath.Join(dir, "missing-choices"),
	})
	assert.Empty(t, backends)
}
