package gpu

import (
	"github.com/ShadowBlip/PowerStation/internal/gpu/amdclock"
	"github.com/ShadowBlip/PowerStation/internal/gpu/intelclock"
)

// ClockController is the vendor-neutral clock-control surface a Card
// binds to its bus object (spec §6's ClockLimitMhzMin/Max,
// ClockValueMhzMin/Max, ManualClock properties). AMD and Intel expose
// the same properties over very different sysfs shapes, so each
// vendor's Controller is adapted to this shared shape rather than
// exposing its native method signatures directly on the bus.
type ClockController interface {
	ClockLimitMhzMin() (float64, error)
	ClockLimitMhzMax() (float64, error)
	ClockValueMhzMin() (float64, error)
	SetClockValueMhzMin(float64) error
	ClockValueMhzMax() (float64, error)
	SetClockValueMhzMax(float64) error
	ManualClock() (bool, error)
	SetManualClock(bool) error
}

// amdClockAdapter adapts amdclock.Controller's combined-pair methods to
// the single-value ClockController shape.
type amdClockAdapter struct {
	c *amdclock.Controller
}

// NewAMDClockController adapts an AMD clock Controller to ClockController.
func NewAMDClockController(c *amdclock.Controller) ClockController {
	return &amdClockAdapter{c: c}
}

func (a *amdClockAdapter) ClockLimitMhzMin() (float64, error) {
	min, _, err := a.c.ClockLimitMhz()
	return min, err
}

func (a *amdClockAdapter) ClockLimitMhzMax() (float64, error) {
	_, max, err := a.c.ClockLimitMhz()
	return max, err
}

func (a *amdClockAdapter) ClockValueMhzMin() (float64, error) {
	min, _, err := a.c.ClockValueMhz()
	return min, err
}

func (a *amdClockAdapter) ClockValueMhzMax() (float64, error) {
	_, max, err := a.c.ClockValueMhz()
	return max, err
}

func (a *amdClockAdapter) SetClockValueMhzMin(v float64) error { return a.c.SetClockValueMhzMin(v) }
func (a *amdClockAdapter) SetClockValueMhzMax(v float64) error { return a.c.SetClockValueMhzMax(v) }
func (a *amdClockAdapter) ManualClock() (bool, error)          { return a.c.ManualClock() }
func (a *amdClockAdapter) SetManualClock(v bool) error         { return a.c.SetManualClock(v) }

// intelClockAdapter adapts intelclock.Controller's infallible
// ManualClock flag to the (bool, error) ClockController shape.
type intelClockAdapter struct {
	c *intelclock.Controller
}

// NewIntelClockController adapts an Intel clock Controller to ClockController.
func NewIntelClockController(c *intelclock.Controller) ClockController {
	return &intelClockAdapter{c: c}
}

func (a *intelClockAdapter) ClockLimitMhzMin() (float64, error) { return a.c.ClockLimitMhzMin() }
func (a *intelClockAdapter) ClockLimitMhzMax() (float64, error) { return a.c.ClockLimitMhzMax() }
func (a *intelClockAdapter) ClockValueMhzMin() (float64, error) { return a.c.ClockValueMhzMin() }
func (a *intelClockAdapter) ClockValueMhzMax() (float64, error) { return a.c.ClockValueMhzMax() }
func (a *intelClockAdapter) SetClockValueMhzMin(v float64) error {
	return a.c.SetClockValueMhzMin(v)
}
func (a *intelClockAdapter) SetClockValueMhzMax(v float64) error {
	return a.c.SetClockValueMhzMax(v)
}
func (a *intelClockAdapter) ManualClock() (bool, error) { return a.c.ManualClock(), nil }
func (a *intelClockAdapter) SetManualClock(v bool) error {
	a.c.SetManualClock(v)
	return nil
}
