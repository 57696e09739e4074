package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/internal/gpu"
	"github.com/ShadowBlip/PowerStation/internal/pciids"
	"github.com/ShadowBlip/PowerStation/internal/tdp"
	"github.com/ShadowBlip/PowerStation/internal/tdp/acpi"
)

func TestBackendNamesEmpty(t *testing.T) {
	assert.Nil(t, backendNames(nil))
}

func TestBackendNamesPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "platform_profile")
	choicesPath := filepath.Join(dir, "platform_profile_choices")
	require.NoError(t, os.WriteFile(profilePath, []byte("balanced"), 0644))
	require.NoError(t, os.WriteFile(choicesPath, []byte("balanced performance"), 0644))

	backends := []tdp.Backend{acpi.New(profilePath, choicesPath)}
	assert.Equal(t, []string{"acpi"}, backendNames(backends))
}

func TestBuildCardRuntimeBindsClockByVendor(t *testing.T) {
	dir := t.TempDir()

	amdCard := &gpu.Card{Name: "card0", SysfsPath: dir, DeviceID: "163f", PCIVendor: pciids.VendorAMD}
	cr := buildCardRuntime(amdCard, &tdp.HardwareLimits{MaxTDP: 25})
	assert.NotNil(t, cr.clock)
	assert.NotNil(t, cr.aggregator)

	intelCard := &gpu.Card{Name: "card1", SysfsPath: dir, DeviceID: "46a6", PCIVendor: pciids.VendorIntel}
	cr = buildCardRuntime(intelCard, &tdp.HardwareLimits{MaxTDP: 15})
	assert.NotNil(t, cr.clock)
	assert.NotNil(t, cr.aggregator)
}
