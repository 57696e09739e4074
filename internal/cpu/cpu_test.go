package cpu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/internal/cpuinfo"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// buildFixture creates numPhysical*2 cores (SMT pairs) under
// <root>/bus/cpu/devices and the global boost/smt control files under
// <root>/devices/system/cpu. coreID for cpu N is N/2, matching a typical SMT topology.
func buildFixture(t *testing.T, numPhysical int, smtOn bool, cpb, ht bool) (*CPU, string) {
	t.Helper()
	root := t.TempDir()
	devicesRoot := filepath.Join(root, "bus", "cpu", "devices")

	var cores []*Core
	for i := 0; i < numPhysical*2; i++ {
		coreID := i / 2
		core := NewCore(devicesRoot, uint32(i))
		require.NoError(t, os.MkdirAll(core.SysfsPath+"/topology", 0755))
		require.NoError(t, os.WriteFile(core.SysfsPath+"/topology/core_id", []byte(itoaTest(coreID)), 0644))
		if i != 0 {
			require.NoError(t, os.WriteFile(core.SysfsPath+"/online", []byte("1"), 0644))
		}
		cores = append(cores, core)
	}

	smtDir := filepath.Join(root, "devices", "system", "cpu", "smt")
	require.NoError(t, os.MkdirAll(smtDir, 0755))
	smtVal := "off"
	if smtOn {
		smtVal = "on"
	}
	require.NoError(t, os.WriteFile(filepath.Join(smtDir, "control"), []byte(smtVal), 0644))

	boostDir := filepath.Join(root, "devices", "system", "cpu", "cpufreq")
	require.NoError(t, os.MkdirAll(boostDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(boostDir, "boost"), []byte("1"), 0644))

	var flags []string
	if cpb {
		flags = append(flags, "cpb")
	}
	if ht {
		flags = append(flags, "ht")
	}
	reader := func() (cpuinfo.Info, error) {
		return cpuinfo.Info{ModelName: "test-cpu", Flags: flags}, nil
	}

	c, err := New(filepath.Join(root, "devices", "system", "cpu"), cores, reader)
	require.NoError(t, err)
	return c, root
}

func itoaTest(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestEndToEndScenario1_SMTOnSetThree(t *testing.T) {
	c, _ := buildFixture(t, 4, true, true, true)

	require.NoError(t, c.SetCoresEnabled(3))
	assert.Equal(t, uint32(3), c.CoresEnabled())

	for _, core := range c.Cores() {
		switch core.Number {
		case 0, 2, 4:
			assert.Truef(t, core.Online(), "core %d should be online", core.Number)
		default:
			assert.Falsef(t, core.Online(), "core %d should be offline", core.Number)
		}
	}
}

func TestEndToEndScenario2_SMTOffClamped(t *testing.T) {
	c, _ := buildFixture(t, 4, false, true, false)

	require.NoError(t, c.SetCoresEnabled(6))
	assert.Equal(t, uint32(4), c.CoresEnabled())

	for _, core := range c.Cores() {
		switch core.Number {
		case 0, 2, 4, 6:
			assert.Truef(t, core.Online(), "core %d should be online", core.Number)
		default:
			assert.Falsef(t, core.Online(), "core %d should be offline", core.Number)
		}
	}
}

func TestSetCoresEnabledRejectsZero(t *testing.T) {
	c, _ := buildFixture(t, 4, true, true, true)
	err := c.SetCoresEnabled(0)
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestCoreZeroAlwaysOnlineAfterSetCoresEnabled(t *testing.T) {
	c, _ := buildFixture(t, 4, true, true, true)
	require.NoError(t, c.SetCoresEnabled(1))
	assert.True(t, c.Cores()[0].Online())
	assert.Equal(t, uint32(1), c.CoresEnabled())
}

func TestBoostEnabledRequiresCPBFlag(t *testing.T) {
	c, _ := buildFixture(t, 2, true, false, true)
	enabled, err := c.BoostEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestBoostEnabledRoundTrip(t *testing.T) {
	c, _ := buildFixture(t, 2, true, true, true)
	require.NoError(t, c.SetBoostEnabled(false))
	enabled, err := c.BoostEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, c.SetBoostEnabled(true))
	enabled, err = c.BoostEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestSmtEnabledRequiresHTFlag(t *testing.T) {
	c, _ := buildFixture(t, 2, true, true, false)
	enabled, err := c.SmtEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestFeaturesAndHasFeature(t *testing.T) {
	c, _ := buildFixture(t, 2, true, true, true)
	features, err := c.Features()
	require.NoError(t, err)
	assert.Contains(t, features, "cpb")

	has, err := c.HasFeature("cpb")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = c.HasFeature("avx512f")
	require.NoError(t, err)
	assert.False(t, has)
}
