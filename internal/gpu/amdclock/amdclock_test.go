package amdclock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

func newFixture(t *testing.T, clkVoltage string) *Controller {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, clkVoltageAttr), []byte(clkVoltage), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, forcePerfLevelAttr), []byte("manual\n"), 0644))
	return New(dir)
}

const manualClkVoltage = `OD_SCLK:
0:        200Mhz
1:        1800Mhz
OD_RANGE:
SCLK:     200Mhz       2000Mhz
`

func TestClockLimitMhz(t *testing.T) {
	c := newFixture(t, manualClkVoltage)
	min, max, err := c.ClockLimitMhz()
	require.NoError(t, err)
	assert.Equal(t, 200.0, min)
	assert.Equal(t, 2000.0, max)
}

func TestClockValueMhz(t *testing.T) {
	c := newFixture(t, manualClkVoltage)
	min, max, err := c.ClockValueMhz()
	require.NoError(t, err)
	assert.Equal(t, 200.0, min)
	assert.Equal(t, 1800.0, max)
}

func TestClockLimitMhzEmptyInAutoModeIsFailedOperation(t *testing.T) {
	c := newFixture(t, "")
	_, _, err := c.ClockLimitMhz()
	require.Error(t, err)
	assert.True(t, errdefs.IsFailedOperation(err))
}

func TestSetClockValueMhzMinWritesCommandThenCommit(t *testing.T) {
	c := newFixture(t, manualClkVoltage)
	require.NoError(t, c.SetClockValueMhzMin(300))
}

func TestManualClockRoundTrip(t *testing.T) {
	c := newFixture(t, manualClkVoltage)
	manual, err := c.ManualClock()
	require.NoError(t, err)
	assert.True(t, manual)

	require.NoError(t, c.SetManualClock(false))
	manual, err = c.ManualClock()
	require.NoError(t, err)
	assert.False(t, manual)
}
