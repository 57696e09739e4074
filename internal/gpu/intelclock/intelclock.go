// Package intelclock implements the Intel GPU clock controller:
// hardware limits and min/max frequency read/write over the gt_*_freq_mhz
// sysfs attributes (spec §4.6). Unlike the AMD controller, manual_clock
// has no sysfs equivalent and is tracked purely in process memory.
package intelclock

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ShadowBlip/PowerStation/internal/sysfs"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

const (
	rpnFreqAttr = "gt_RPn_freq_mhz"
	rp0FreqAttr = "gt_RP0_freq_mhz"
	minFreqAttr = "gt_min_freq_mhz"
	maxFreqAttr = "gt_max_freq_mhz"
)

// Controller manages a single Intel GPU card's gt_*_freq_mhz
// attributes, directly under the card's sysfs path (unlike AMD, these
// live at the card root rather than under "device").
type Controller struct {
	mu sync.Mutex

	sysfsPath string
	manual    bool
}

// New builds a Controller rooted at sysfsPath (a GPU card's sysfs
// directory, e.g. /sys/class/drm/card0).
func New(sysfsPath string) *Controller {
	return &Controller{sysfsPath: sysfsPath}
}

func (c *Controller) path(attr string) string {
	return filepath.Join(c.sysfsPath, attr)
}

// ClockLimitMhzMin is the hardware floor, gt_RPn_freq_mhz.
func (c *Controller) ClockLimitMhzMin() (float64, error) {
	return sysfs.ReadF64(c.path(rpnFreqAttr))
}

// ClockLimitMhzMax is the hardware ceiling, gt_RP0_freq_mhz.
func (c *Controller) ClockLimitMhzMax() (float64, error) {
	return sysfs.ReadF64(c.path(rp0FreqAttr))
}

// ClockValueMhzMin is the current gt_min_freq_mhz.
func (c *Controller) ClockValueMhzMin() (float64, error) {
	return sysfs.ReadF64(c.path(minFreqAttr))
}

// ClockValueMhzMax is the current gt_max_freq_mhz.
func (c *Controller) ClockValueMhzMax() (float64, error) {
	return sysfs.ReadF64(c.path(maxFreqAttr))
}

// SetClockValueMhzMin writes gt_min_freq_mhz. A value of zero is
// rejected; the Intel driver treats 0 as "unset" rather than "lowest
// possible", so silently accepting it would desynchronize the
// reported value from the hardware.
func (c *Controller) SetClockValueMhzMin(v float64) error {
	if v == 0 {
		return errdefs.InvalidArgumentf("clock value must be nonzero")
	}
	return sysfs.WriteString(c.path(minFreqAttr), strconv.FormatFloat(v, 'f', -1, 64))
}

// SetClockValueMhzMax writes gt_max_freq_mhz, rejecting zero as SetClockValueMhzMin does.
func (c *Controller) SetClockValueMhzMax(v float64) error {
	if v == 0 {
		return errdefs.InvalidArgumentf("clock value must be nonzero")
	}
	return sysfs.WriteString(c.path(maxFreqAttr), strconv.FormatFloat(v, 'f', -1, 64))
}

// ManualClock returns the in-process manual/auto flag; Intel's driver
// has no sysfs attribute for this mode, so set_clock_value_* writes are
// always live rather than gated on this flag.
func (c *Controller) ManualClock() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manual
}

// SetManualClock updates the in-process manual/auto flag.
func (c *Controller) SetManualClock(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual = enabled
}
