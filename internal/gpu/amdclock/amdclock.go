// Package amdclock implements the AMD GPU clock controller: reading
// and committing manual overclock ranges through pp_od_clk_voltage,
// and the manual/auto performance-level toggle (spec §4.5).
package amdclock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

const (
	clkVoltageAttr    = "pp_od_clk_voltage"
	forcePerfLevelAttr = "power_dpm_force_performance_level"
)

// Controller manages the AMD clock attributes under a single GPU
// card's device subdirectory. All reads and writes are serialized by
// mu, matching the per-card exclusive-access model of spec §5.
type Controller struct {
	mu         sync.Mutex
	devicePath string
}

// New builds a Controller rooted at devicePath (a GPU card's
// ".../device" subdirectory).
func New(devicePath string) *Controller {
	return &Controller{devicePath: devicePath}
}

func (c *Controller) path(attr string) string {
	return filepath.Join(c.devicePath, attr)
}

// ClockLimitMhz returns the (min, max) hardware overclock limits
// parsed from the "SCLK:" line of pp_od_clk_voltage. The file reads
// empty while in automatic mode, which surfaces as a FailedOperation
// "no limits found" error.
func (c *Controller) ClockLimitMhz() (min, max float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parseClkVoltage("SCLK:")
}

// ClockValueMhz returns the (min, max) currently committed overclock
// values parsed from the "0:"/"1:" lines of pp_od_clk_voltage.
func (c *Controller) ClockValueMhz() (min, max float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parseClkVoltageValues()
}

func (c *Controller) parseClkVoltage(wantTag string) (min, max float64, err error) {
	content, err := os.ReadFile(c.path(clkVoltageAttr))
	if err != nil {
		return 0, 0, errdefs.IOErrorf("%s: %v", c.path(clkVoltageAttr), err)
	}

	var haveMin, haveMax bool
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 3 || fields[0] != wantTag {
			continue
		}
		minV, ok1 := parseMhz(fields[1])
		maxV, ok2 := parseMhz(fields[2])
		if !ok1 || !ok2 {
			continue
		}
		min, max = minV, maxV
		haveMin, haveMax = true, true
	}
	if !haveMin || !haveMax {
		return 0, 0, errdefs.FailedOperationf("%s: no %s limits found (card may not be in manual mode)", c.path(clkVoltageAttr), wantTag)
	}
	return min, max, nil
}

func (c *Controller) parseClkVoltageValues() (min, max float64, err error) {
	content, err := os.ReadFile(c.path(clkVoltageAttr))
	if err != nil {
		return 0, 0, errdefs.IOErrorf("%s: %v", c.path(clkVoltageAttr), err)
	}

	var haveMin, haveMax bool
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		v, ok := parseMhz(fields[1])
		if !ok {
			continue
		}
		switch fields[0] {
		case "0:":
			min = v
			haveMin = true
		case "1:":
			max = v
			haveMax = true
		}
	}
	if !haveMin || !haveMax {
		return 0, 0, errdefs.FailedOperationf("%s: no current clock values found (card may not be in manual mode)", c.path(clkVoltageAttr))
	}
	return min, max, nil
}

func parseMhz(field string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(field, "Mhz"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetClockValueMhzMin writes "s 0 <v>\n" followed by a "c\n" commit to
// pp_od_clk_voltage. Both writes must succeed for the operation to be
// considered successful.
func (c *Controller) SetClockValueMhzMin(v float64) error {
	return c.commit(fmt.Sprintf("s 0 %v\n", v))
}

// SetClockValueMhzMax writes "s 1 <v>\n" followed by a "c\n" commit.
func (c *Controller) SetClockValueMhzMax(v float64) error {
	return c.commit(fmt.Sprintf("s 1 %v\n", v))
}

func (c *Controller) commit(setCmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(clkVoltageAttr)
	if err := writeAttr(path, setCmd); err != nil {
		return err
	}
	return writeAttr(path, "c\n")
}

func writeAttr(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return errdefs.FailedOperationf("opening %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return errdefs.IOErrorf("writing %s: %v", path, err)
	}
	return nil
}

// ManualClock reports whether power_dpm_force_performance_level reads
// literal "manual".
func (c *Controller) ManualClock() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, err := os.ReadFile(c.path(forcePerfLevelAttr))
	if err != nil {
		return false, errdefs.IOErrorf("%s: %v", c.path(forcePerfLevelAttr), err)
	}
	return strings.ToLower(strings.TrimSpace(string(content))) == "manual", nil
}

// SetManualClock writes "manual" or "auto" to power_dpm_force_performance_level.
func (c *Controller) SetManualClock(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := "auto"
	if enabled {
		status = "manual"
	}
	return writeAttr(c.path(forcePerfLevelAttr), status)
}
