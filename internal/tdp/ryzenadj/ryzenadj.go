// Package ryzenadj implements the AMD RyzenAdj TDP backend (spec
// §4.7): STAPM/slow-PPT/fast-PPT control and thermal throttle limit via
// a native library, with shadow values for APUs the library cannot
// read back from.
package ryzenadj

import (
	"sync"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

// Device IDs RyzenAdj is known to be unable to read limits back from
// (spec §4.7) — the Steam Deck's Van Gogh and Sephiroth APUs.
const (
	DeviceVanGogh  = "163f"
	DeviceSephiroth = "1435"
)

const powerSaving = "power-saving"
const maxPerformance = "max-performance"

// Library is the native RyzenAdj binding this backend drives. It is an
// interface rather than a cgo binding because no RyzenAdj Go binding
// exists in the ecosystem's usual dependency surface. No implementation
// linking libryzenadj ships in this repository; callers supply one. This
// matches the native-library-behind-an-interface seam
// the reference daemon also uses (it stores an Option<RyzenAdj> and
// degrades gracefully when the library fails to load).
type Library interface {
	Refresh() error
	GetStapmLimit() (float32, error)
	SetStapmLimit(mw uint32) error
	GetSlowLimit() (float32, error)
	SetSlowLimit(mw uint32) error
	GetFastLimit() (float32, error)
	SetFastLimit(mw uint32) error
	GetTctlTemp() (float32, error)
	SetTctlTemp(c uint32) error
	SetPowerSaving() error
	SetMaxPerformance() error
}

// shadow holds the last-set STAPM/thermal values and the unscaled
// STAPM+boost (slow-PPT equivalent) in fast, for device IDs RyzenAdj
// cannot read back from.
type shadow struct {
	stapm float64
	fast  float64
	thm   float64
}

func seedShadow(deviceID string) shadow {
	switch deviceID {
	case DeviceVanGogh, DeviceSephiroth:
		return shadow{stapm: 12, fast: 15, thm: 95}
	default:
		return shadow{stapm: 10, fast: 10, thm: 95}
	}
}

// Backend drives a single card's RyzenAdj-controlled TDP.
type Backend struct {
	mu sync.Mutex

	deviceID string
	lib      Library
	profile  string
	shadow   shadow
}

// New builds a Backend for the card with the given PCI device ID,
// driven through lib.
func New(deviceID string, lib Library) *Backend {
	return &Backend{
		deviceID: deviceID,
		lib:      lib,
		profile:  powerSaving, // RyzenAdj exposes no way to read the active profile back.
		shadow:   seedShadow(deviceID),
	}
}

func (b *Backend) Name() string { return "ryzenadj" }

func (b *Backend) isUnsupportedGPU() bool {
	return b.deviceID == DeviceVanGogh || b.deviceID == DeviceSephiroth
}

// TDP returns the STAPM limit in Watts.
func (b *Backend) TDP() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.getStapmLimit()
}

func (b *Backend) getStapmLimit() (float64, error) {
	if b.isUnsupportedGPU() {
		return b.shadow.stapm, nil
	}
	if err := b.lib.Refresh(); err != nil {
		log.Logger.Warnw("ryzenadj refresh failed", "error", err)
	}
	v, err := b.lib.GetStapmLimit()
	if err != nil {
		return 0, errdefs.FailedOperationf("get stapm limit: %v", err)
	}
	return float64(v), nil
}

func (b *Backend) getSlowLimit() (float64, error) {
	if err := b.lib.Refresh(); err != nil {
		log.Logger.Warnw("ryzenadj refresh failed", "error", err)
	}
	v, err := b.lib.GetSlowLimit()
	if err != nil {
		return 0, errdefs.FailedOperationf("get slow ppt limit: %v", err)
	}
	return float64(v), nil
}

// SetTDP sets STAPM to v (Watts), then re-applies boost so the fast/slow
// PPT distance from STAPM is preserved (spec §4.7).
func (b *Backend) SetTDP(v float64) error {
	if v < 1 {
		return errdefs.InvalidArgumentf("cowardly refusing to set TDP less than 1W: provided %vW", v)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	boost, err := b.boostLocked()
	if err != nil {
		return err
	}

	limit := uint32(v * 1000)
	if err := b.lib.SetStapmLimit(limit); err != nil {
		return errdefs.FailedOperationf("set stapm limit: %v", err)
	}
	if b.isUnsupportedGPU() {
		b.shadow.stapm = v
	}

	return b.setBoostLocked(boost)
}

// Boost is slow-PPT minus STAPM (spec §4.7).
func (b *Backend) Boost() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.boostLocked()
}

func (b *Backend) boostLocked() (float64, error) {
	var slowOrShadowedFast float64
	if b.isUnsupportedGPU() {
		// This device can't report its slow-PPT limit at all; the
		// last-set fast-PPT shadow is the best proxy available.
		slowOrShadowedFast = b.shadow.fast
	} else {
		var err error
		slowOrShadowedFast, err = b.getSlowLimit()
		if err != nil {
			return 0, err
		}
	}

	stapm, err := b.getStapmLimit()
	if err != nil {
		return 0, err
	}

	if slowOrShadowedFast < 1 {
		log.Logger.Warnw("ryzenadj reported a slow limit under 1W; treating boost as 0")
		return 0, nil
	}
	return slowOrShadowedFast - stapm, nil
}

// SetBoost re-derives slow-PPT and fast-PPT from STAPM+v, with slow-PPT
// at STAPM+v and fast-PPT at 1.25x slow-PPT (spec §4.7).
func (b *Backend) SetBoost(v float64) error {
	if v < 0 {
		return errdefs.InvalidArgumentf("cowardly refusing to set TDP boost less than 0W: provided %vW", v)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setBoostLocked(v)
}

func (b *Backend) setBoostLocked(v float64) error {
	stapm, err := b.getStapmLimit()
	if err != nil {
		return err
	}

	slowLimit := uint32((stapm + v) * 1000)
	if err := b.lib.SetSlowLimit(slowLimit); err != nil {
		return errdefs.FailedOperationf("set slow ppt limit: %v", err)
	}

	fastLimit := uint32((stapm + v) * 1250)
	if err := b.lib.SetFastLimit(fastLimit); err != nil {
		return errdefs.FailedOperationf("set fast ppt limit: %v", err)
	}
	if b.isUnsupportedGPU() {
		// Shadow the unscaled slow-PPT equivalent (stapm+v), not the
		// 1.25x-scaled fast-PPT value: boostLocked treats this field as
		// slowOrShadowedFast and subtracts stapm from it to recover v.
		b.shadow.fast = stapm + v
	}

	return nil
}

// ThermalThrottleLimitC returns the Tctl thermal limit in Celsius.
func (b *Backend) ThermalThrottleLimitC() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isUnsupportedGPU() {
		return b.shadow.thm, nil
	}
	if err := b.lib.Refresh(); err != nil {
		log.Logger.Warnw("ryzenadj refresh failed", "error", err)
	}
	v, err := b.lib.GetTctlTemp()
	if err != nil {
		return 0, errdefs.FailedOperationf("get tctl temp: %v", err)
	}
	return float64(v), nil
}

// SetThermalThrottleLimitC writes the Tctl thermal limit in Celsius.
func (b *Backend) SetThermalThrottleLimitC(v float64) error {
	if v < 0 {
		return errdefs.InvalidArgumentf("cowardly refusing to set thermal throttle limit below 0C: provided %vC", v)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.lib.SetTctlTemp(uint32(v)); err != nil {
		return errdefs.FailedOperationf("set tctl temp: %v", err)
	}
	if b.isUnsupportedGPU() {
		b.shadow.thm = v
	}
	return nil
}

// PowerProfile returns the last-written power profile (RyzenAdj exposes
// no way to read it back from the hardware).
func (b *Backend) PowerProfile() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile, nil
}

// SetPowerProfile must be "power-saving" or "max-performance".
func (b *Backend) SetPowerProfile(profile string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch profile {
	case powerSaving:
		if err := b.lib.SetPowerSaving(); err != nil {
			return errdefs.FailedOperationf("set power saving: %v", err)
		}
	case maxPerformance:
		if err := b.lib.SetMaxPerformance(); err != nil {
			return errdefs.FailedOperationf("set max performance: %v", err)
		}
	default:
		return errdefs.InvalidArgumentf("invalid power profile %q: must be power-saving or max-performance", profile)
	}

	b.profile = profile
	return nil
}

// PowerProfilesAvailable is the fixed set RyzenAdj supports.
func (b *Backend) PowerProfilesAvailable() ([]string, error) {
	return []string{maxPerformance, powerSaving}, nil
}
